package transport

import (
	"context"

	"github.com/UnendingLoop/BgRemover/internal/model"
	"github.com/gin-gonic/gin"
)

type mockImageService struct {
	processFn func(ctx context.Context, req *model.ImageRequest) (*model.PipelineResult, error)
}

func (m *mockImageService) Process(ctx context.Context, req *model.ImageRequest) (*model.PipelineResult, error) {
	return m.processFn(ctx, req)
}

func init() {
	gin.SetMode(gin.TestMode)
}
