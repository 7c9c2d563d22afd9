// Package transport provides methods for processing requests from endpoints
package transport

import (
	"context"
	"strings"

	"github.com/UnendingLoop/BgRemover/internal/model"
	"github.com/wb-go/wbf/ginext"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type ImageHandler struct {
	service ImageService
}

type ImageService interface {
	Process(ctx context.Context, req *model.ImageRequest) (*model.PipelineResult, error) // удалить фон и положить результат в хранилище
}

func NewImageHandler(svc ImageService) *ImageHandler {
	return &ImageHandler{
		service: svc,
	}
}

func (h ImageHandler) SimplePinger(ctx *ginext.Context) {
	ctx.JSON(200, map[string]string{"message": "pong"})
}

func (h ImageHandler) Process(ctx *ginext.Context) {
	var req model.ImageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(400, errorBody(&model.ValidationError{Field: "body", Reason: "must be a valid JSON object"}))
		return
	}
	req.IdempotencyKey = strings.TrimSpace(ctx.GetHeader(IdempotencyKeyHeader))

	res, err := h.service.Process(ctx.Request.Context(), &req)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), errorBody(err))
		return
	}

	ctx.JSON(200, res)
}
