package utils

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// RespondError 发送错误响应
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{"error": message})
}

// RespondHTML 渲染节点树并发送HTML响应。先完整渲染再写出，渲染失败时返回 500。
func RespondHTML(w http.ResponseWriter, status int, nodes ...*html.Node) {
	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			log.Error().Err(err).Msg("failed to render html response")
			http.Error(w, "render failed", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Error().Err(err).Msg("failed to write html response")
	}
}
