package handlers

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/workqueue-dev/workqueue/internal/auth"
	"github.com/workqueue-dev/workqueue/internal/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512

	snapshotPeriod = 5 * time.Minute
)

// upcomingSnapshot builds the per-user snapshot payload; a variable so
// feed tests can supply canned data.
var upcomingSnapshot = upcomingForLabels

// deadlineClient wraps one feed connection. The mutex serializes writes:
// gorilla allows a single concurrent writer, and both the connection's
// own goroutine and broadcasts write.
type deadlineClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *deadlineClient) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

func (c *deadlineClient) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

var (
	deadlineClients   = make(map[*deadlineClient]bool)
	deadlineClientsMu sync.RWMutex
)

// BroadcastDeadlineRefresh tells every connected client a deadline moved
// so they refetch their upcoming list.
func BroadcastDeadlineRefresh() {
	deadlineClientsMu.RLock()
	if len(deadlineClients) == 0 {
		deadlineClientsMu.RUnlock()
		return
	}

	// Copy the set so the lock is not held during sends.
	clientsCopy := make([]*deadlineClient, 0, len(deadlineClients))
	for client := range deadlineClients {
		clientsCopy = append(clientsCopy, client)
	}
	deadlineClientsMu.RUnlock()

	for _, client := range clientsCopy {
		err := client.writeJSON(map[string]string{
			"type":    "refresh",
			"message": "Deadlines updated",
		})

		if err != nil {
			log.Printf("Failed to broadcast refresh to client: %v", err)
			deadlineClientsMu.Lock()
			delete(deadlineClients, client)
			deadlineClientsMu.Unlock()
			client.conn.Close()
		}
	}
}

// DeadlineFeed upgrades the connection and streams the caller's upcoming
// deadlines: a snapshot on connect, fresh snapshots periodically, and
// refresh notices whenever a deadline changes. The token travels as a
// query parameter because browsers cannot set headers on websockets.
func DeadlineFeed(c *gin.Context) {
	token := c.Query("token")

	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is required"})
		return
	}

	parsed, err := auth.VerifyJWT(token)

	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	userLabels := auth.ClaimLabels(claims)

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			for _, allowed := range types.AllowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &deadlineClient{conn: conn}

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("Failed to set initial read deadline: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("Failed to set read deadline in pong handler: %v", err)
		}
		return nil
	})

	deadlineClientsMu.Lock()
	deadlineClients[client] = true
	deadlineClientsMu.Unlock()

	defer func() {
		deadlineClientsMu.Lock()
		delete(deadlineClients, client)
		deadlineClientsMu.Unlock()
		conn.Close()

		log.Printf("Deadline feed closed for user %d", uint(userID))
	}()

	// Stops the write goroutine when the read loop exits.
	done := make(chan struct{})
	defer close(done)

	sendSnapshot := func() error {
		now := time.Now()
		items, err := upcomingSnapshot(c.Request.Context(), userLabels, uint(userID), now, now.Add(48*time.Hour))
		if err != nil {
			log.Printf("Failed to build deadline snapshot for user %d: %v", uint(userID), err)
			return nil
		}

		return client.writeJSON(gin.H{
			"type":      "snapshot",
			"deadlines": items,
			"count":     len(items),
		})
	}

	if err := sendSnapshot(); err != nil {
		log.Printf("Failed to send initial snapshot: %v", err)
		return
	}

	go func() {
		pingTicker := time.NewTicker(pingPeriod)
		snapshotTicker := time.NewTicker(snapshotPeriod)
		defer pingTicker.Stop()
		defer snapshotTicker.Stop()

		for {
			select {
			case <-done:
				return
			case <-pingTicker.C:
				if err := client.ping(); err != nil {
					log.Printf("Ping failed for user %d: %v", uint(userID), err)
					return
				}
			case <-snapshotTicker.C:
				if err := sendSnapshot(); err != nil {
					log.Printf("Snapshot failed for user %d: %v", uint(userID), err)
					return
				}
			}
		}
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("Failed to set read deadline for user %d: %v", uint(userID), err)
			break
		}

		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error for user %d: %v", uint(userID), err)
			}
			break
		}

		if messageType == websocket.TextMessage {
			log.Printf("Received message from user %d: %s", uint(userID), string(message))
		}
	}
}
