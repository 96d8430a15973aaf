package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"posync/internal/engine"
	"posync/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func startServer(t *testing.T) (*Hub, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub()
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/ws", ServeWs(hub, secret))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func TestServeWs_RejectsMissingOrBadToken(t *testing.T) {
	_, url := startServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(url+"?token=nope", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHub_BroadcastsSignals(t *testing.T) {
	hub, url := startServer(t)
	tok, err := middleware.IssueToken(secret, middleware.DeviceClaims{DeviceID: "tablet-1", Role: middleware.RoleWaiter}, time.Hour)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token="+tok, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	hub.PublishSignals(engine.Signals{Status: engine.StatusOnline, RenderGeneration: 7})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type string `json:"type"`
		Data struct {
			Status           string `json:"status"`
			RenderGeneration uint64 `json:"render_generation"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, MessageSyncSignal, msg.Type)
	assert.Equal(t, "online", msg.Data.Status)
	assert.EqualValues(t, 7, msg.Data.RenderGeneration)
}

func TestHub_NewClientGetsLastSignal(t *testing.T) {
	hub, url := startServer(t)
	hub.PublishSignals(engine.Signals{Status: engine.StatusPolling, RenderGeneration: 3})
	tok, err := middleware.IssueToken(secret, middleware.DeviceClaims{DeviceID: "kds-1", Role: middleware.RoleKitchen}, time.Hour)
	require.NoError(t, err)

	// the broadcast must be processed before the client registers
	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return hub.last != nil
	}, time.Second, 10*time.Millisecond)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token="+tok, nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"status":"polling"`)
}
