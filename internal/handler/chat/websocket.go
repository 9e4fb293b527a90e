package chat

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/geo-chat/backend/internal/handler/session"
	"github.com/zhouzirui/geo-chat/backend/internal/view"
)

const writeWait = 10 * time.Second

// inboundFrame matches what the htmx ws extension sends for the chat form.
type inboundFrame struct {
	Message string `json:"message"`
}

// handleWebSocket 处理WebSocket连接：每个表单帧触发一次问答并推送新的 #chatbox 片段
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := session.FromContext(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("ws: upgrade failed")
		return
	}
	defer conn.Close()

	log.Info().Str("session_id", sessionID).Msg("ws: connection opened")
	defer log.Info().Str("session_id", sessionID).Msg("ws: connection closed")

	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("session_id", sessionID).Msg("ws: read failed")
			}
			return
		}

		transcript, ok := h.exchange(r.Context(), frame.Message)
		if !ok {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "exchange failed"),
				time.Now().Add(writeWait))
			return
		}

		var buf bytes.Buffer
		if err := view.Render(&buf, view.Transcript(transcript)); err != nil {
			log.Error().Err(err).Str("session_id", sessionID).Msg("ws: render failed")
			return
		}

		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, buf.Bytes()); err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("ws: write failed")
			return
		}
	}
}
