// Package model provides data-structs for internal app-usage
package model

import (
	"time"
)

// BoundingBox - область интереса на исходном изображении
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether the box describes a region with positive area and non-negative offsets.
func (b BoundingBox) Valid() bool {
	return b.X >= 0 && b.Y >= 0 && b.Width > 0 && b.Height > 0
}

//---------------------

// ImageRequest - входящий запрос на удаление фона
type ImageRequest struct {
	SourceReference string       `json:"image_url"`
	BoundingBox     *BoundingBox `json:"bounding_box,omitempty"`
	IdempotencyKey  string       `json:"-"` // из заголовка Idempotency-Key, опционален
}

// ProcessedImage holds the removal output, always normalised to PNG.
type ProcessedImage struct {
	Data        []byte
	ContentType string
}

// StoredImageReference - где лежит загруженный результат
type StoredImageReference struct {
	Location  string    `json:"location"`
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"created_at"`
}

// PipelineResult is the response body of a successful request.
type PipelineResult struct {
	OriginalReference string `json:"original_image_url"`
	ProcessedLocation string `json:"processed_image_url"`
}

// ProcessedEvent - сообщение в очередь после успешной обработки
type ProcessedEvent struct {
	OriginalReference string    `json:"original_image_url"`
	ProcessedLocation string    `json:"processed_image_url"`
	Key               string    `json:"key"`
	CreatedAt         time.Time `json:"created_at"`
}

//--------------------

const MaxSourceReferenceLen = 2048

const (
	JPEG = "image/jpeg"
	PNG  = "image/png"
	GIF  = "image/gif"
)

var GetImageFileExt = map[string]string{
	JPEG: ".jpg",
	PNG:  ".png",
	GIF:  ".gif",
}
