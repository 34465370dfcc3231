package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"whatsgram/internal/app/db"
	"whatsgram/internal/app/message"
	"whatsgram/internal/pkg/auth/jwt"
	"whatsgram/internal/pkg/errs"
	"whatsgram/internal/pkg/logx"
	"whatsgram/internal/pkg/randx"
	"whatsgram/internal/pkg/req"
	"whatsgram/internal/pkg/resp"
)

// conversationID reads and validates the {id} path parameter.
func conversationID(r *http.Request) (string, *errs.CustomError) {
	id := chi.URLParam(r, "id")
	if !randx.IsValidID(id) {
		return "", errs.NewError(errs.ErrInvalidParams)
	}
	return id, nil
}

// HandleGetMessages returns the conversation between the caller and {id}.
func HandleGetMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)

		otherID, customErr := conversationID(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		msgs, err := deps.DB.ListMessages(r.Context(), identity.ID, otherID)
		if err != nil {
			logx.Error(err, "get_messages: failed", "user_id", identity.ID, "conversation_id", otherID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, message.History{Messages: msgs})
	}
}

// HandleSendMessage stores a message from the caller to {id}.
func HandleSendMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)

		receiverID, customErr := conversationID(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		var input message.SendInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if strings.TrimSpace(input.Message) == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrMessageContentEmpty))
			return
		}

		if message.TooLong(input.Message) {
			resp.RespondError(w, r, errs.NewError(errs.ErrMessageContentTooLong))
			return
		}

		msg, err := deps.DB.CreateMessage(r.Context(), db.CreateMessageParams{
			SenderID:   identity.ID,
			ReceiverID: receiverID,
			Text:       input.Message,
		})
		if err != nil {
			if db.IsNotFound(err) {
				resp.RespondError(w, r, errs.NewError(errs.ErrConversationNotFound))
				return
			}

			logx.Error(err, "send_message: failed", "user_id", identity.ID, "conversation_id", receiverID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondCreated(w, r, msg)
	}
}
