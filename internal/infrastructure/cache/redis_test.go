package cache_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/graphctx/internal/infrastructure/cache"
	"github.com/turtacn/graphctx/pkg/graphmodel"
)

func TestResultCache_Get_Hit(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := cache.NewResultCacheWithClient(rdb, "graphctx:retrieval:", nil)

	want := graphmodel.RetrievalResult{Strategy: graphmodel.StrategyVectorOnly, RetrievalTimeMs: 12}
	payload, err := json.Marshal(want)
	require.NoError(t, err)

	mock.ExpectGet("graphctx:retrieval:abc").SetVal(string(payload))

	got, ok := c.Get(context.Background(), "abc")
	assert.True(t, ok)
	assert.Equal(t, want.Strategy, got.Strategy)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResultCache_Get_Miss(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := cache.NewResultCacheWithClient(rdb, "graphctx:retrieval:", nil)

	mock.ExpectGet("graphctx:retrieval:missing").RedisNil()

	_, ok := c.Get(context.Background(), "missing")
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResultCache_Set_BestEffort(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := cache.NewResultCacheWithClient(rdb, "graphctx:retrieval:", nil)

	result := graphmodel.RetrievalResult{Strategy: graphmodel.StrategyHybrid}
	payload, _ := json.Marshal(result)

	mock.ExpectSet("graphctx:retrieval:key1", payload, 5*time.Minute).SetVal("OK")

	c.Set(context.Background(), "key1", result, 5*time.Minute)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResultCache_Ping_ReportsUnderlyingError(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := cache.NewResultCacheWithClient(rdb, "graphctx:retrieval:", nil)

	mock.ExpectPing().SetErr(assert.AnError)

	err := c.Ping(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
	require.NoError(t, mock.ExpectationsWereMet())
}
