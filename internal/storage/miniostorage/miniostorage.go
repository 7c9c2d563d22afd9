// Package miniostorage provides the append-only blob store over any S3-compatible backend
package miniostorage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/UnendingLoop/BgRemover/internal/config"
	"github.com/UnendingLoop/BgRemover/internal/model"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioBlobStore struct {
	bucket        string
	region        string
	prefix        string
	publicRead    bool
	baseURL       string
	uploadTimeout time.Duration
	client        *minio.Client
	now           func() time.Time
}

func NewMinioClient(cfg config.StorageConfig) (*MinioBlobStore, error) {
	// подключаемся к хранилищу - создаем клиента; пустые ключи = анонимный доступ
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	return newStore(cfg, client), nil
}

func newStore(cfg config.StorageConfig, client *minio.Client) *MinioBlobStore {
	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		// адрес вида <scheme>://<endpoint>/<bucket>
		u := *client.EndpointURL()
		u.Path = "/" + cfg.Bucket
		baseURL = strings.TrimRight(u.String(), "/")
	}

	return &MinioBlobStore{
		bucket:        cfg.Bucket,
		region:        cfg.Region,
		prefix:        cfg.KeyPrefix,
		publicRead:    cfg.PublicRead,
		baseURL:       baseURL,
		uploadTimeout: cfg.UploadTimeout,
		client:        client,
		now:           time.Now,
	}
}

// EnsureBucket creates the configured bucket if it does not exist yet.
func (s *MinioBlobStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}

	if exists {
		return nil
	}

	return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
}

// Put stores data under a freshly generated key and returns its public location.
// Keys are never reused, so a Put can not overwrite an earlier object.
func (s *MinioBlobStore) Put(ctx context.Context, data []byte, contentType string) (*model.StoredImageReference, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", model.ErrStorageRejected)
	}

	if s.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.uploadTimeout)
		defer cancel()
	}

	key := s.newKey(contentType)

	opts := minio.PutObjectOptions{ContentType: contentType}
	if s.publicRead {
		opts.UserMetadata = map[string]string{"x-amz-acl": "public-read"}
	}

	if _, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), opts); err != nil {
		return nil, classifyErr(key, err)
	}

	return &model.StoredImageReference{
		Location:  s.baseURL + "/" + key,
		Key:       key,
		CreatedAt: s.now().UTC(),
	}, nil
}

func (s *MinioBlobStore) newKey(contentType string) string {
	ext, ok := model.GetImageFileExt[contentType]
	if !ok {
		ext = ".bin"
	}

	key := uuid.NewString() + ext
	if s.prefix != "" {
		key = s.prefix + "/" + key
	}
	return key
}

// коды S3, после которых повтор запроса бессмысленен
var rejectedCodes = map[string]bool{
	"AccessDenied":          true,
	"QuotaExceeded":         true,
	"EntityTooLarge":        true,
	"NoSuchBucket":          true,
	"InvalidBucketName":     true,
	"InvalidAccessKeyId":    true,
	"SignatureDoesNotMatch": true,
	"AccountProblem":        true,
}

func classifyErr(key string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: upload of %q aborted: %w", model.ErrStorageUnavailable, key, err)
	}

	resp := minio.ToErrorResponse(err)
	switch {
	case rejectedCodes[resp.Code]:
		return fmt.Errorf("%w: upload of %q: %s: %w", model.ErrStorageRejected, key, resp.Code, err)
	case resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: upload of %q: %w", model.ErrStorageUnavailable, key, err)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return fmt.Errorf("%w: upload of %q: status %d: %w", model.ErrStorageRejected, key, resp.StatusCode, err)
	default:
		return fmt.Errorf("%w: upload of %q: %w", model.ErrStorageUnavailable, key, err)
	}
}
