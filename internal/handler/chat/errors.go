package chat

import (
	"context"
	"errors"
	"net/http"

	aiService "github.com/zhouzirui/dialogue-sim/backend/internal/service/ai"
	chatService "github.com/zhouzirui/dialogue-sim/backend/internal/service/chat"
	"github.com/zhouzirui/dialogue-sim/backend/pkg/utils"
)

// ErrorStatus maps interaction errors to an HTTP status, the error kind and
// the inline message shown to the user.
func ErrorStatus(err error) (int, string, string) {
	switch {
	case errors.Is(err, aiService.ErrEmptyInput):
		return http.StatusBadRequest, utils.KindEmptyInput, "Please ask a question first."
	case errors.Is(err, aiService.ErrNotConfigured):
		return http.StatusServiceUnavailable, utils.KindNotConfigured, err.Error()
	case errors.Is(err, aiService.ErrProfileNotFound):
		return http.StatusNotFound, utils.KindProfileNotFound, err.Error()
	case errors.Is(err, aiService.ErrUnknownCharacter):
		return http.StatusNotFound, utils.KindUnknownCharacter, err.Error()
	case errors.Is(err, chatService.ErrSessionNotFound):
		return http.StatusNotFound, utils.KindSessionNotFound, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, utils.KindTimeout, "the character took too long to answer, please try again"
	case errors.Is(err, aiService.ErrBackendFailure):
		return http.StatusBadGateway, utils.KindBackendFailure, err.Error()
	default:
		return http.StatusInternalServerError, utils.KindInternal, "internal error"
	}
}
