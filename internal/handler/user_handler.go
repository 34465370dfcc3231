package handler

import (
	"net/http"

	"whatsgram/internal/pkg/auth/jwt"
	"whatsgram/internal/pkg/errs"
	"whatsgram/internal/pkg/logx"
	"whatsgram/internal/pkg/resp"
)

// HandleCurrentChats lists the caller's conversation partners, or every other user when the
// caller has not talked to anyone yet.
func HandleCurrentChats(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)

		partners, err := deps.DB.ConversationPartners(r.Context(), identity.ID)
		if err != nil {
			logx.Error(err, "current_chats: failed to list partners", "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if len(partners) == 0 {
			partners, err = deps.DB.ListUsersExcept(r.Context(), identity.ID)
			if err != nil {
				logx.Error(err, "current_chats: failed to list users", "user_id", identity.ID)
				resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
				return
			}
		}

		resp.RespondSuccess(w, r, partners)
	}
}

// HandleSearchUsers matches ?search= against usernames and full names.
func HandleSearchUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		term := r.URL.Query().Get("search")

		users, err := deps.DB.SearchUsers(r.Context(), term, identity.ID)
		if err != nil {
			logx.Error(err, "search: failed", "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, users)
	}
}
