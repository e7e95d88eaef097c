package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/AnshRaj112/ediary-backend/internal/middleware"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 90 * time.Second
	wsPingPeriod = 60 * time.Second
)

var diaryUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS is enforced at the HTTP layer.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// DiaryFeed streams the caller's diary events over a websocket. Browsers cannot set
// headers on websocket requests, so the token may also be passed as ?token=.
func (h *Handler) DiaryFeed(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		writeError(w, http.StatusUnauthorized, "No authentication token, access denied")
		return
	}
	claims, err := h.Tokens.Verify(r.Context(), token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Token is not valid")
		return
	}

	conn, err := diaryUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	events, unsubscribe := h.Hub.Subscribe(claims.UserID)
	defer unsubscribe()

	go func() {
		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case evt, ok := <-events:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteJSON(evt); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
					return
				}
			}
		}
	}()

	log.Debug().Str("user_id", claims.UserID).Msg("diary feed connected")

	// Client messages are ignored; reading keeps pongs and close frames flowing.
	conn.SetReadLimit(4 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Debug().Str("user_id", claims.UserID).Msg("diary feed disconnected")
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	}
}
