// Package service provides business-logic for the app
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/UnendingLoop/BgRemover/internal/model"
	"github.com/UnendingLoop/BgRemover/internal/mwlogger"
)

// BackgroundRemover - контракт внешнего сервиса удаления фона
type BackgroundRemover interface {
	Remove(ctx context.Context, source string, box *model.BoundingBox) (*model.ProcessedImage, error)
}

// BlobStore - контракт для работы с хранилищем
type BlobStore interface {
	Put(ctx context.Context, data []byte, contentType string) (*model.StoredImageReference, error)
}

// ResultCache - контракт кэша результатов по ключу идемпотентности
type ResultCache interface {
	Get(ctx context.Context, key string) (*model.PipelineResult, error)
	Save(ctx context.Context, key string, res *model.PipelineResult) error
}

// EventPublisher - контракт для уведомлений о готовых картинках
type EventPublisher interface {
	Publish(ctx context.Context, event *model.ProcessedEvent) error
}

// сколько ждем кэш и очередь после успешной загрузки
const afterwordTimeout = 5 * time.Second

type ImageService struct {
	remover      BackgroundRemover
	storage      BlobStore
	cache        ResultCache
	publisher    EventPublisher
	bboxRequired bool
	background   sync.WaitGroup // кэш и уведомления, которые еще в полете
}

type Option func(*ImageService)

func WithResultCache(c ResultCache) Option {
	return func(s *ImageService) { s.cache = c }
}

func WithEventPublisher(p EventPublisher) Option {
	return func(s *ImageService) { s.publisher = p }
}

func WithBoundingBoxRequired(required bool) Option {
	return func(s *ImageService) { s.bboxRequired = required }
}

func NewImageService(rm BackgroundRemover, strg BlobStore, opts ...Option) *ImageService {
	s := &ImageService{
		remover: rm,
		storage: strg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process runs validation, background removal and upload for one request.
// Errors are always one of *model.ValidationError, *model.UpstreamProcessingError or *model.StorageError.
func (s *ImageService) Process(ctx context.Context, req *model.ImageRequest) (*model.PipelineResult, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	// валидируем до любых внешних вызовов
	if err := validateNormalizeRequest(req, s.bboxRequired); err != nil {
		logger.Warn().Err(err).Msg("Rejected invalid process request")
		return nil, err
	}

	if res, err := s.replay(ctx, req); res != nil || err != nil {
		return res, err
	}

	// удаляем фон
	img, err := s.remover.Remove(ctx, req.SourceReference, req.BoundingBox)
	if err == nil && (img == nil || len(img.Data) == 0) {
		err = fmt.Errorf("%w: empty result", model.ErrUpstreamUnavailable)
	}
	if err != nil {
		uErr := model.NewUpstreamError(err)
		logger.Error().Err(uErr).Str("image_url", req.SourceReference).Msg("Failed to remove background")
		return nil, uErr
	}

	contentType := img.ContentType
	if contentType == "" {
		contentType = model.PNG
	}

	// кладем результат в хранилище; при ошибке байты просто выкидываем
	ref, err := s.storage.Put(ctx, img.Data, contentType)
	if err == nil && (ref == nil || ref.Location == "") {
		err = fmt.Errorf("%w: storage returned no location", model.ErrStorageUnavailable)
	}
	if err != nil {
		sErr := model.NewStorageError(err)
		logger.Error().Err(sErr).Str("image_url", req.SourceReference).Msg("Failed to save processed image in Storage")
		return nil, sErr
	}

	res := &model.PipelineResult{
		OriginalReference: req.SourceReference,
		ProcessedLocation: ref.Location,
	}
	logger.Info().Str("key", ref.Key).Str("location", ref.Location).Msg("Image processed")

	s.afterword(ctx, req, ref, res)
	return res, nil
}

// replay отдает сохраненный результат для повторного запроса с тем же ключом идемпотентности
func (s *ImageService) replay(ctx context.Context, req *model.ImageRequest) (*model.PipelineResult, error) {
	if s.cache == nil || req.IdempotencyKey == "" {
		return nil, nil
	}
	logger := mwlogger.LoggerFromContext(ctx)

	cached, err := s.cache.Get(ctx, req.IdempotencyKey)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read idempotency cache, processing request as new")
		return nil, nil
	}
	if cached == nil {
		return nil, nil
	}

	if cached.OriginalReference != req.SourceReference {
		return nil, &model.ValidationError{Field: "Idempotency-Key", Reason: "was already used for a different image_url"}
	}

	logger.Info().Str("idempotency_key", req.IdempotencyKey).Msg("Replaying cached result")
	return cached, nil
}

// afterword - кэш и уведомления в фоне; их ошибки не влияют на ответ клиенту
func (s *ImageService) afterword(ctx context.Context, req *model.ImageRequest, ref *model.StoredImageReference, res *model.PipelineResult) {
	saveCache := s.cache != nil && req.IdempotencyKey != ""
	if !saveCache && s.publisher == nil {
		return
	}
	logger := mwlogger.LoggerFromContext(ctx)
	key := req.IdempotencyKey

	// клиент мог уже отвалиться, а запись в хранилище уже сделана
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), afterwordTimeout)

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		defer cancel()

		if saveCache {
			if err := s.cache.Save(ctx, key, res); err != nil {
				logger.Error().Err(err).Msg("Failed to save result in idempotency cache")
			}
		}

		if s.publisher != nil {
			event := &model.ProcessedEvent{
				OriginalReference: res.OriginalReference,
				ProcessedLocation: res.ProcessedLocation,
				Key:               ref.Key,
				CreatedAt:         ref.CreatedAt,
			}
			if err := s.publisher.Publish(ctx, event); err != nil {
				logger.Error().Err(err).Msg(fmt.Sprintf("Failed to publish processed image %q to queue", ref.Key))
			}
		}
	}()
}

// Wait blocks until every background cache save and event publish has finished.
func (s *ImageService) Wait() {
	s.background.Wait()
}
