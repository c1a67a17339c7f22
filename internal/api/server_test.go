package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradecal/internal/config"
)

func TestServerServesAndShutsDown(t *testing.T) {
	cfg := config.Default()
	srv := NewServer(cfg, testRegistry(t), slog.New(slog.NewTextHandler(io.Discard, nil)))

	httpLis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	grpcLis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, httpLis, grpcLis) }()

	resp, err := http.Get("http://" + httpLis.Addr().String() + "/api/exchanges")
	require.NoError(t, err)
	var body struct {
		Exchanges []string `json:"exchanges"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Equal(t, []string{"ADX"}, body.Exchanges)

	client, conn, err := Dial(grpcLis.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	names, err := client.Exchanges(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ADX"}, names)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
