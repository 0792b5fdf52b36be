package utils

import (
	"encoding/json"
	"log"
	"net/http"
)

// 内联错误的分类，与交互层的错误类型一一对应
const (
	KindInvalidRequest   = "invalid_request"
	KindEmptyInput       = "empty_input"
	KindNotConfigured    = "not_configured"
	KindProfileNotFound  = "profile_not_found"
	KindUnknownCharacter = "unknown_character"
	KindSessionNotFound  = "session_not_found"
	KindTimeout          = "timeout"
	KindBackendFailure   = "backend_failure"
	KindInternal         = "internal"
)

// ErrorResponse 是返回给前端的内联错误，展示后会话继续可用
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[http] failed to encode response: %v", err)
	}
}

// RespondError 发送带分类的错误响应
func RespondError(w http.ResponseWriter, status int, kind, message string) {
	if kind == "" {
		kind = KindInternal
	}
	RespondJSON(w, status, ErrorResponse{Error: message, Kind: kind})
}
