package chat

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/geo-chat/backend/internal/handler/session"
	"github.com/zhouzirui/geo-chat/backend/internal/model/chat"
	chatService "github.com/zhouzirui/geo-chat/backend/internal/service/chat"
	"github.com/zhouzirui/geo-chat/backend/internal/view"
	"github.com/zhouzirui/geo-chat/backend/pkg/utils"
)

// Service 是处理器依赖的会话能力。
type Service interface {
	Transcript(ctx context.Context, sessionID string) (chat.Transcript, error)
	AppendExchange(ctx context.Context, sessionID, text string) (chat.Transcript, error)
}

// Handler 地理聊天的HTTP处理器
type Handler struct {
	chatSvc  Service
	pageOpts view.PageOptions
	upgrader websocket.Upgrader
}

// New 创建聊天处理器
func New(chatSvc Service, pageOpts view.PageOptions) *Handler {
	return &Handler{
		chatSvc:  chatSvc,
		pageOpts: pageOpts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册聊天相关的路由，需挂在 session.Middleware 之后
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get(view.ChatPath, h.handlePage)
	r.Post(view.ChatPath, h.handleSubmit)
	r.Get(view.ChatSocketPath, h.handleWebSocket)
	r.Get("/api/transcript", h.handleTranscript)
}

// handlePage 渲染完整聊天页面
func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	sessionID := session.FromContext(r.Context())
	transcript, err := h.chatSvc.Transcript(r.Context(), sessionID)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("chat: failed to load transcript")
		http.Error(w, "failed to load conversation", http.StatusInternalServerError)
		return
	}

	utils.RespondHTML(w, http.StatusOK, view.ChatPage(transcript, h.pageOpts))
}

// handleSubmit 处理表单提交，返回重新渲染的 #chatbox 片段。过短的消息被静默忽略。
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}

	transcript, ok := h.exchange(r.Context(), r.PostFormValue("message"))
	if !ok {
		http.Error(w, "failed to process message", http.StatusInternalServerError)
		return
	}

	utils.RespondHTML(w, http.StatusOK, view.Transcript(transcript))
}

// handleTranscript 以 JSON 返回当前会话记录
func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := session.FromContext(r.Context())
	transcript, err := h.chatSvc.Transcript(r.Context(), sessionID)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("chat: failed to load transcript")
		utils.RespondError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"sessionId": sessionID,
		"messages":  transcript,
	})
}

// exchange runs one submission and reports false only for failures the user should see.
func (h *Handler) exchange(ctx context.Context, text string) (chat.Transcript, bool) {
	sessionID := session.FromContext(ctx)
	transcript, err := h.chatSvc.AppendExchange(ctx, sessionID, text)
	if err == nil {
		return transcript, true
	}
	if chatService.IsValidation(err) {
		log.Debug().Err(err).Str("session_id", sessionID).Int("length", len(text)).Msg("chat: submission ignored")
		return transcript, true
	}

	log.Error().Err(err).Str("session_id", sessionID).Msg("chat: exchange failed")
	return nil, false
}
