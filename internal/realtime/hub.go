package realtime

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"log"
	"sync"
	"time"

	"github.com/classboardhq/classboard-backend/internal/repository"
	"github.com/gofiber/websocket/v2"
)

// Pusher delivers a frame to one user's live connection. Implemented by Hub;
// faked in tests.
type Pusher interface {
	Push(userID uint, data interface{}) error
	IsOnline(userID uint) bool
}

// ClientConnection wraps a WebSocket connection with metadata. All frames go
// through writeMessage/writeJSON/writeControl; the websocket connection does
// not tolerate concurrent writers.
type ClientConnection struct {
	Conn         *websocket.Conn
	UserID       uint
	LastPong     time.Time
	SupportsGzip bool
	PingTicker   *time.Ticker
	CloseChan    chan struct{}

	writeMu sync.Mutex
}

func (c *ClientConnection) writeMessage(frameType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteMessage(frameType, data)
}

func (c *ClientConnection) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteJSON(v)
}

func (c *ClientConnection) writeControl(frameType int, data []byte, deadline time.Time) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteControl(frameType, data, deadline)
}

// Hub manages all active WebSocket connections
type Hub struct {
	clients        map[uint]*ClientConnection
	clientsMux     sync.RWMutex
	pendingRepo    repository.PendingNotificationRepositoryInterface
	maxRetries     int
	baseRetryDelay time.Duration
	pingInterval   time.Duration
	pongTimeout    time.Duration
}

// NewHub creates a new Hub instance
func NewHub(pendingRepo repository.PendingNotificationRepositoryInterface) *Hub {
	hub := &Hub{
		clients:        make(map[uint]*ClientConnection),
		pendingRepo:    pendingRepo,
		maxRetries:     5,
		baseRetryDelay: 2 * time.Second,
		pingInterval:   30 * time.Second,
		pongTimeout:    90 * time.Second,
	}

	// Start background workers
	go hub.retryWorker()
	go hub.connectionHealthChecker()

	return hub
}

// Register adds a client connection with health monitoring
func (h *Hub) Register(userID uint, conn *websocket.Conn, supportsGzip bool) {
	clientConn := &ClientConnection{
		Conn:         conn,
		UserID:       userID,
		LastPong:     time.Now(),
		SupportsGzip: supportsGzip,
		PingTicker:   time.NewTicker(h.pingInterval),
		CloseChan:    make(chan struct{}),
	}

	conn.SetPongHandler(func(appData string) error {
		h.clientsMux.Lock()
		if client, exists := h.clients[userID]; exists {
			client.LastPong = time.Now()
		}
		h.clientsMux.Unlock()
		return nil
	})

	conn.SetReadDeadline(time.Now().Add(h.pongTimeout))

	h.swapClient(clientConn)

	go h.pingRoutine(clientConn)

	log.Printf("User %d connected to hub (total: %d, gzip: %v)", userID, len(h.clients), supportsGzip)
}

// swapClient installs the user's connection. A reconnect supersedes the
// previous connection: its ping routine is shut down before it can
// unregister the new one.
func (h *Hub) swapClient(clientConn *ClientConnection) {
	h.clientsMux.Lock()
	if old, exists := h.clients[clientConn.UserID]; exists {
		if old.PingTicker != nil {
			old.PingTicker.Stop()
		}
		close(old.CloseChan)
		if old.Conn != nil {
			old.Conn.Close()
		}
	}
	h.clients[clientConn.UserID] = clientConn
	h.clientsMux.Unlock()
}

// Unregister removes a client connection
func (h *Hub) Unregister(userID uint) {
	h.clientsMux.Lock()
	if client, exists := h.clients[userID]; exists {
		if client.PingTicker != nil {
			client.PingTicker.Stop()
		}
		close(client.CloseChan)
	}
	delete(h.clients, userID)
	count := len(h.clients)
	h.clientsMux.Unlock()
	log.Printf("User %d disconnected from hub (total: %d)", userID, count)
}

// unregisterClient removes a specific connection. A stale goroutine holding a
// superseded connection must not evict the user's current one.
func (h *Hub) unregisterClient(client *ClientConnection) {
	h.clientsMux.Lock()
	current, exists := h.clients[client.UserID]
	if !exists || current != client {
		h.clientsMux.Unlock()
		return
	}
	if client.PingTicker != nil {
		client.PingTicker.Stop()
	}
	close(client.CloseChan)
	delete(h.clients, client.UserID)
	count := len(h.clients)
	h.clientsMux.Unlock()
	log.Printf("User %d disconnected from hub (total: %d)", client.UserID, count)
}

// IsOnline checks if a user is connected
func (h *Hub) IsOnline(userID uint) bool {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	_, exists := h.clients[userID]
	return exists
}

// Push sends a frame to a specific user, compressing when supported. If the
// user is offline the frame is queued for later delivery.
func (h *Hub) Push(userID uint, data interface{}) error {
	h.clientsMux.RLock()
	clientConn, exists := h.clients[userID]
	h.clientsMux.RUnlock()

	if !exists {
		return h.queueFrame(userID, data, 0)
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("Error marshaling frame for user %d: %v", userID, err)
		return err
	}

	// Compress if supported and beneficial (> 512 bytes)
	var finalData []byte
	frameType := websocket.TextMessage
	if clientConn.SupportsGzip && len(jsonData) > 512 {
		compressed, err := compressData(jsonData)
		if err == nil && len(compressed) < len(jsonData) {
			finalData = compressed
			frameType = websocket.BinaryMessage
		} else {
			finalData = jsonData
		}
	} else {
		finalData = jsonData
	}

	if err := clientConn.writeMessage(frameType, finalData); err != nil {
		log.Printf("Error pushing frame to user %d: %v", userID, err)
		// Connection may be dead, unregister and queue the frame
		h.unregisterClient(clientConn)
		return h.queueFrame(userID, data, 0)
	}

	return nil
}

// Reply writes a frame on the user's current connection, serialized with
// hub pushes. Unlike Push it never queues for offline delivery.
func (h *Hub) Reply(userID uint, data interface{}) error {
	h.clientsMux.RLock()
	clientConn, exists := h.clients[userID]
	h.clientsMux.RUnlock()

	if !exists {
		return nil
	}
	return clientConn.writeJSON(data)
}

// queueFrame stores a frame for offline or failed delivery
func (h *Hub) queueFrame(userID uint, data interface{}, priority int) error {
	if h.pendingRepo == nil {
		return nil
	}

	kind := ""
	if dataMap, ok := data.(map[string]interface{}); ok {
		kind, _ = dataMap["type"].(string)
	}
	// Ephemeral frames are meaningless after the fact.
	if kind == "" || kind == "typing" || kind == "ping" || kind == "pong" {
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return h.pendingRepo.Enqueue(userID, kind, string(jsonData), priority)
}

// BroadcastToUsers sends a frame to specific users
func (h *Hub) BroadcastToUsers(userIDs []uint, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("Error marshaling frame: %v", err)
		return
	}

	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()

	for _, userID := range userIDs {
		if clientConn, exists := h.clients[userID]; exists {
			if err := clientConn.writeMessage(websocket.TextMessage, jsonData); err != nil {
				log.Printf("Error sending to user %d: %v", userID, err)
			}
		}
	}
}

// GetOnlineUsers returns list of currently connected user IDs
func (h *Hub) GetOnlineUsers() []uint {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()

	users := make([]uint, 0, len(h.clients))
	for userID := range h.clients {
		users = append(users, userID)
	}
	return users
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	return len(h.clients)
}

// FlushPending sends all queued frames to a newly connected user
func (h *Hub) FlushPending(userID uint) error {
	if h.pendingRepo == nil {
		return nil
	}

	h.clientsMux.RLock()
	clientConn, exists := h.clients[userID]
	h.clientsMux.RUnlock()

	if !exists {
		return nil // User disconnected already
	}

	batchSize := 50
	pending, err := h.pendingRepo.GetPendingForUser(userID, batchSize)
	if err != nil {
		log.Printf("Error fetching pending frames for user %d: %v", userID, err)
		return err
	}

	if len(pending) == 0 {
		return nil
	}

	log.Printf("Flushing %d pending frames to user %d", len(pending), userID)

	batch := make([]interface{}, 0, len(pending))
	successIDs := make([]uint, 0, len(pending))

	for _, pn := range pending {
		var data interface{}
		if err := json.Unmarshal([]byte(pn.Payload), &data); err != nil {
			log.Printf("Error unmarshaling pending frame %d: %v", pn.ID, err)
			continue
		}
		batch = append(batch, data)
		successIDs = append(successIDs, pn.ID)
	}

	batchFrame := map[string]interface{}{
		"type":     "batch",
		"messages": batch,
		"count":    len(batch),
	}

	if err := clientConn.writeJSON(batchFrame); err != nil {
		log.Printf("Error sending batch to user %d: %v", userID, err)
		// Connection failed, frames stay in queue
		return err
	}

	if err := h.pendingRepo.DeleteBatch(successIDs); err != nil {
		log.Printf("Error deleting delivered frames: %v", err)
	}

	// If there are more frames, recursively flush (rate-limited by batch size)
	if len(pending) == batchSize {
		time.Sleep(100 * time.Millisecond)
		return h.FlushPending(userID)
	}

	return nil
}

// retryWorker processes failed deliveries with exponential backoff
func (h *Hub) retryWorker() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		if h.pendingRepo == nil {
			continue
		}

		retryable, err := h.pendingRepo.GetRetryable(100)
		if err != nil {
			log.Printf("Error fetching retryable frames: %v", err)
			continue
		}

		for _, pn := range retryable {
			h.clientsMux.RLock()
			clientConn, isOnline := h.clients[pn.UserID]
			h.clientsMux.RUnlock()

			if !isOnline {
				attempts := pn.Attempts + 1
				if attempts >= h.maxRetries {
					// Max retries reached, keep in queue but back off for a while
					nextRetry := time.Now().Add(1 * time.Hour)
					h.pendingRepo.MarkAttempted(pn.ID, attempts, &nextRetry)
					continue
				}

				// Exponential backoff: 2s, 4s, 8s, 16s, 32s
				delay := h.baseRetryDelay * time.Duration(1<<uint(attempts))
				nextRetry := time.Now().Add(delay)
				h.pendingRepo.MarkAttempted(pn.ID, attempts, &nextRetry)
				continue
			}

			if err := clientConn.writeMessage(websocket.TextMessage, []byte(pn.Payload)); err != nil {
				log.Printf("Retry delivery failed for user %d: %v", pn.UserID, err)
				attempts := pn.Attempts + 1
				delay := h.baseRetryDelay * time.Duration(1<<uint(attempts))
				nextRetry := time.Now().Add(delay)
				h.pendingRepo.MarkAttempted(pn.ID, attempts, &nextRetry)
			} else {
				log.Printf("Delivered pending frame %d to user %d", pn.ID, pn.UserID)
				h.pendingRepo.Delete(pn.ID)
			}
		}
	}
}

// pingRoutine sends periodic ping messages to keep connection alive
func (h *Hub) pingRoutine(client *ClientConnection) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Ping routine recovered from panic for user %d: %v", client.UserID, r)
		}
	}()

	for {
		select {
		case <-client.CloseChan:
			return
		case <-client.PingTicker.C:
			h.clientsMux.RLock()
			current, exists := h.clients[client.UserID]
			h.clientsMux.RUnlock()

			if !exists || current != client {
				return
			}

			if err := client.writeControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				log.Printf("Ping failed for user %d: %v", client.UserID, err)
				h.unregisterClient(client)
				return
			}
		}
	}
}

// connectionHealthChecker monitors connection health and removes dead connections
func (h *Hub) connectionHealthChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		h.clientsMux.RLock()
		deadConnections := make([]uint, 0)
		now := time.Now()

		for userID, client := range h.clients {
			if now.Sub(client.LastPong) > h.pongTimeout {
				deadConnections = append(deadConnections, userID)
			}
		}
		h.clientsMux.RUnlock()

		for _, userID := range deadConnections {
			log.Printf("Removing dead connection for user %d (no pong received)", userID)
			h.Unregister(userID)
		}
	}
}

// compressData compresses data using gzip
func compressData(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)

	if _, err := gzipWriter.Write(data); err != nil {
		return nil, err
	}

	if err := gzipWriter.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// DecompressFrame decompresses a gzip client frame
func DecompressFrame(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return io.ReadAll(reader)
}
