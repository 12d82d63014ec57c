package http

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/graphctx/internal/infrastructure/monitoring/logging"
)

func TestServer_StartAndShutdown(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := NewServer(ServerConfig{Port: 0}, handler, logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	require.Eventually(t, srv.IsRunning, time.Second, 10*time.Millisecond)
	assert.NotEmpty(t, srv.Addr())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down in time")
	}
	assert.False(t, srv.IsRunning())
}

func TestServer_Shutdown_BeforeStart_IsNoop(t *testing.T) {
	srv := NewServer(ServerConfig{}, http.NotFoundHandler(), logging.NewNop())
	assert.NoError(t, srv.Shutdown(context.Background()))
}
