// Package rembg provides an HTTP adapter over the external background removal service
package rembg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/UnendingLoop/BgRemover/internal/config"
	"github.com/UnendingLoop/BgRemover/internal/imageproc"
	"github.com/UnendingLoop/BgRemover/internal/model"
	"github.com/wb-go/wbf/retry"
)

// HTTPDoer - контракт http-клиента, в тестах подменяется
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	url      string
	apiKey   string
	maxBytes int64
	http     HTTPDoer
	strategy retry.Strategy
}

type removeRequest struct {
	ImageURL    string             `json:"image_url"`
	BoundingBox *model.BoundingBox `json:"bounding_box,omitempty"`
}

func NewClient(cfg config.RemoverConfig) *Client {
	return NewClientWithDoer(cfg, &http.Client{Timeout: cfg.Timeout})
}

func NewClientWithDoer(cfg config.RemoverConfig, doer HTTPDoer) *Client {
	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Client{
		url:      cfg.URL,
		apiKey:   cfg.APIKey,
		maxBytes: cfg.MaxBytes,
		http:     doer,
		strategy: retry.Strategy{
			Attempts: attempts,
			Delay:    cfg.RetryDelay,
			Backoff:  cfg.RetryBackoff,
		},
	}
}

// Remove asks the service to cut the background out of source within box.
// Only ErrUpstreamUnavailable failures are retried, up to the configured number of attempts.
// Backoff between attempts is interrupted by ctx; there is no wait after the last attempt.
func (c *Client) Remove(ctx context.Context, source string, box *model.BoundingBox) (*model.ProcessedImage, error) {
	var (
		img     *model.ProcessedImage
		last    error
		attempt int
	)

	err := retry.DoContext(ctx, c.strategy, func() error {
		attempt++
		img, last = c.removeOnce(ctx, source, box)
		switch {
		case last == nil, ctx.Err() != nil, !errors.Is(last, model.ErrUpstreamUnavailable):
			// успех, отмена или отказ по входным данным - повторять нечего
			return nil
		case attempt >= c.strategy.Attempts:
			// последняя попытка: не даем ретраю уснуть впустую
			return nil
		}
		return last
	})

	if err != nil {
		// контекст отменили во время паузы между попытками
		return nil, fmt.Errorf("%w: retry aborted after %d attempts: %w", model.ErrUpstreamUnavailable, attempt, err)
	}
	if last != nil {
		return nil, last
	}
	if img == nil {
		return nil, fmt.Errorf("%w: no attempt was made: %w", model.ErrUpstreamUnavailable, ctx.Err())
	}
	return img, nil
}

func (c *Client) removeOnce(ctx context.Context, source string, box *model.BoundingBox) (*model.ProcessedImage, error) {
	body, err := json.Marshal(removeRequest{ImageURL: source, BoundingBox: box})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal request: %w", model.ErrUpstreamRejected, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build request: %w", model.ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", model.PNG)
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrUpstreamUnavailable, err)
	}
	defer closeBody(resp.Body)

	// читаем на байт больше лимита, чтобы отличить ровно-лимит от переполнения
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", model.ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classifyStatus(resp.StatusCode, data)
	}

	if int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", model.ErrUpstreamUnavailable, c.maxBytes)
	}

	pngData, err := imageproc.ToPNG(data)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed image in response: %w", model.ErrUpstreamUnavailable, err)
	}

	return &model.ProcessedImage{Data: pngData, ContentType: model.PNG}, nil
}

func classifyStatus(code int, body []byte) error {
	msg := errorMessage(body)
	if msg == "" {
		msg = http.StatusText(code)
	}

	switch {
	case code == http.StatusRequestTimeout,
		code == http.StatusTooManyRequests,
		code >= 500:
		return fmt.Errorf("%w: status %d: %s", model.ErrUpstreamUnavailable, code, msg)
	case code >= 400:
		return fmt.Errorf("%w: status %d: %s", model.ErrUpstreamRejected, code, msg)
	default:
		// 1xx/3xx сюда доходят только если редиректы не отработали
		return fmt.Errorf("%w: unexpected status %d", model.ErrUpstreamUnavailable, code)
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Errors  []struct {
		Title string `json:"title"`
	} `json:"errors"`
}

// errorMessage вытаскивает текст ошибки из json-ответа сервиса, если он там есть
func errorMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}

	switch {
	case eb.Error != "":
		return eb.Error
	case eb.Message != "":
		return eb.Message
	}

	titles := make([]string, 0, len(eb.Errors))
	for _, e := range eb.Errors {
		if e.Title != "" {
			titles = append(titles, e.Title)
		}
	}
	return strings.Join(titles, "; ")
}

func closeBody(b io.ReadCloser) {
	_, _ = io.Copy(io.Discard, b)
	_ = b.Close()
}
