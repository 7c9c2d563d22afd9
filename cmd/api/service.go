package main

import (
	"context"

	"github.com/UnendingLoop/BgRemover/internal/model"
)

type ImageAPIService interface {
	Process(ctx context.Context, req *model.ImageRequest) (*model.PipelineResult, error)
	Wait() // фоновые записи в кэш и очередь
}
