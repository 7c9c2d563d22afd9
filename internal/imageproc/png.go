// Package imageproc normalises images returned by the background removal service
package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

var ErrEmptyImage = errors.New("empty image payload")

// ToPNG returns data re-encoded as PNG. PNG input is returned untouched.
func ToPNG(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	_, f, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to detect image format: %w", err)
	}

	format, err := imaging.FormatFromExtension(f)
	if err != nil {
		return nil, fmt.Errorf("unsupported image format %q: %w", f, err)
	}
	if format == imaging.PNG {
		return data, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to DEcode %s image: %w", f, err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to ENcode PNG image: %w", err)
	}
	return buf.Bytes(), nil
}
