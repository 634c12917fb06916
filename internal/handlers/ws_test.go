package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workqueue-dev/workqueue/internal/auth"
)

func dialDeadlineFeed(t *testing.T) *websocket.Conn {
	t.Helper()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/deadlines", DeadlineFeed)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	token, err := auth.GenerateJWT(1, "student", []string{"CS101"})
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/deadlines?token=" + token
	header := http.Header{"Origin": []string{"http://localhost:5173"}}

	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func stubSnapshot(t *testing.T) {
	t.Helper()
	orig := upcomingSnapshot
	upcomingSnapshot = func(ctx context.Context, cached []string, userID uint, from, to time.Time) ([]gin.H, error) {
		return []gin.H{}, nil
	}
	t.Cleanup(func() { upcomingSnapshot = orig })
}

func TestDeadlineFeedConcurrentBroadcasts(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	require.NoError(t, auth.InitJWTSecret())
	stubSnapshot(t)

	conn := dialDeadlineFeed(t)

	var first map[string]interface{}
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "snapshot", first["type"])

	// Broadcasts race the connection's own write goroutine; every write
	// must serialize onto the single permitted writer.
	const broadcasts = 20
	var wg sync.WaitGroup
	for i := 0; i < broadcasts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			BroadcastDeadlineRefresh()
		}()
	}
	wg.Wait()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for i := 0; i < broadcasts; i++ {
		var msg map[string]interface{}
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, "refresh", msg["type"])
	}
}

func TestDeadlineFeedRejectsMissingToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	require.NoError(t, auth.InitJWTSecret())

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/deadlines", DeadlineFeed)

	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/deadlines"
	header := http.Header{"Origin": []string{"http://localhost:5173"}}

	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
