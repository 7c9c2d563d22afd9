package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/UnendingLoop/BgRemover/internal/model"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/require"
)

var cachedResult = &model.PipelineResult{
	OriginalReference: "https://example.com/a.jpg",
	ProcessedLocation: "https://store/processed-images/1.png",
}

func TestRedisCache_Get_Hit(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	b, err := json.Marshal(cachedResult)
	require.NoError(t, err)
	mock.ExpectGet(keyPrefix + "key-1").SetVal(string(b))

	res, err := NewRedisCache(rdb, time.Hour).Get(context.Background(), "key-1")
	require.NoError(t, err)
	require.Equal(t, cachedResult, res)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_Get_Miss(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	mock.ExpectGet(keyPrefix + "key-1").RedisNil()

	res, err := NewRedisCache(rdb, time.Hour).Get(context.Background(), "key-1")
	require.NoError(t, err)
	require.Nil(t, res)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_Get_Errors(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()
	cache := NewRedisCache(rdb, time.Hour)

	redisErr := errors.New("connection reset")
	mock.ExpectGet(keyPrefix + "key-1").SetErr(redisErr)
	_, err := cache.Get(context.Background(), "key-1")
	require.ErrorIs(t, err, redisErr)

	mock.ExpectGet(keyPrefix + "key-2").SetVal("{not json")
	_, err = cache.Get(context.Background(), "key-2")
	require.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_Save(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	b, err := json.Marshal(cachedResult)
	require.NoError(t, err)
	mock.ExpectSet(keyPrefix+"key-1", b, 24*time.Hour).SetVal("OK")

	require.NoError(t, NewRedisCache(rdb, 24*time.Hour).Save(context.Background(), "key-1", cachedResult))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_Save_Error(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	b, err := json.Marshal(cachedResult)
	require.NoError(t, err)
	redisErr := errors.New("OOM command not allowed")
	mock.ExpectSet(keyPrefix+"key-1", b, time.Minute).SetErr(redisErr)

	err = NewRedisCache(rdb, time.Minute).Save(context.Background(), "key-1", cachedResult)
	require.ErrorIs(t, err, redisErr)
	require.NoError(t, mock.ExpectationsWereMet())
}
