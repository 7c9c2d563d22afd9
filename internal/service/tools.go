package service

import (
	"strings"

	"github.com/UnendingLoop/BgRemover/internal/model"
)

func validateNormalizeRequest(req *model.ImageRequest, bboxRequired bool) error {
	if req == nil {
		return &model.ValidationError{Field: "body", Reason: "is required"}
	}

	// корректен ли исходник
	req.SourceReference = strings.TrimSpace(req.SourceReference)
	if req.SourceReference == "" {
		return &model.ValidationError{Field: "image_url", Reason: "is required"}
	}
	if len(req.SourceReference) > model.MaxSourceReferenceLen {
		return &model.ValidationError{Field: "image_url", Reason: "is too long"}
	}

	req.IdempotencyKey = strings.TrimSpace(req.IdempotencyKey)

	// корректна ли область
	if req.BoundingBox == nil {
		if bboxRequired {
			return &model.ValidationError{Field: "bounding_box", Reason: "is required"}
		}
		return nil
	}
	if !req.BoundingBox.Valid() {
		return &model.ValidationError{Field: "bounding_box", Reason: "must have non-negative offsets and positive width and height"}
	}
	return nil
}
