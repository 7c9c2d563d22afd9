package transport

import (
	"context"
	"errors"
	"net"

	"github.com/UnendingLoop/BgRemover/internal/model"
)

func errorCodeDefiner(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return 400
	case errors.Is(err, model.ErrUpstreamRejected):
		return 422
	case errors.Is(err, model.ErrUpstreamUnavailable):
		if isTimeout(err) {
			return 504
		}
		return 502
	case errors.Is(err, model.ErrStorageUnavailable):
		return 503
	case errors.Is(err, model.ErrStorageRejected):
		return 500
	default:
		return 500
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nErr net.Error
	return errors.As(err, &nErr) && nErr.Timeout()
}

// errorBody - тело ответа с ошибкой; stage пустой только для неклассифицированных ошибок
func errorBody(err error) map[string]string {
	body := map[string]string{"error": err.Error()}
	if stage := model.StageOf(err); stage != "" {
		body["stage"] = string(stage)
	}
	return body
}
