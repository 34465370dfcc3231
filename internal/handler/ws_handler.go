/*
Package handler provides the HTTP handler function for presence WebSocket connections.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"whatsgram/internal/app/hub"
	"whatsgram/internal/app/presence"
	"whatsgram/internal/pkg/errs"
	"whatsgram/internal/pkg/limiter"
	"whatsgram/internal/pkg/logx"
	"whatsgram/internal/pkg/randx"
	"whatsgram/internal/pkg/resp"
)

// HandleWebSocket upgrades /ws?userId= requests and attaches them to the presence hub.
func HandleWebSocket(deps *AppDeps, upgrader websocket.Upgrader, rateLimiter *limiter.KeyedLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)
		if !rateLimiter.Allow(ip) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		userID := r.URL.Query().Get(presence.QueryUserID)
		if !randx.IsValidID(userID) {
			logx.Warn("WebSocket request rejected: Missing or invalid userId query parameter")
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if _, err := deps.DB.GetUserByID(r.Context(), userID); err != nil {
			logx.Info("WebSocket connection rejected: Unknown user.", "user_id", userID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := hub.NewClient(deps.Hub, conn, userID)

		go client.WritePump()

		if !deps.Hub.Register(client) {
			_ = conn.Close()
			return
		}

		logx.Info("Presence connection established", "user_id", userID)

		client.ReadPump()
	}
}
