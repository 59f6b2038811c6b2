package realtime

import (
	"encoding/json"
	"log"
	"sync"
)

// Message defines the shape of a real-time notification: a type tag such as
// "new_match" or "new_message" plus an arbitrary payload.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Broker is the central hub for managing SSE client connections.
type Broker struct {
	// A map of client channels, keyed by user ID.
	clients map[string]chan []byte
	mu      sync.RWMutex
}

// NewBroker creates a new Broker instance.
func NewBroker() *Broker {
	return &Broker{
		clients: make(map[string]chan []byte),
	}
}

// AddClient registers a new client (a user's connection) with the broker.
// If the user already has an active connection (e.g. another tab), the old
// channel is simply overwritten; that connection will time out on its own.
func (b *Broker) AddClient(userID string) chan []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan []byte, 10)
	b.clients[userID] = ch
	log.Printf("SSE client connected for user %s", userID)
	return ch
}

// RemoveClient unregisters a client from the broker.
func (b *Broker) RemoveClient(userID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.clients[userID]; ok {
		delete(b.clients, userID)
		close(ch)
		log.Printf("SSE client disconnected for user %s", userID)
	}
}

// NotifyUser sends a message to a specific user if they are connected.
// The send is non-blocking so a slow consumer can never stall an API handler.
func (b *Broker) NotifyUser(userID string, message Message) {
	b.mu.RLock()
	clientChan, ok := b.clients[userID]
	b.mu.RUnlock()

	if !ok {
		return
	}

	jsonMsg, err := json.Marshal(message)
	if err != nil {
		log.Printf("ERROR: could not marshal SSE message for user %s: %v", userID, err)
		return
	}

	select {
	case clientChan <- jsonMsg:
	default:
		log.Printf("WARN: SSE channel for user %s is full. Dropping message.", userID)
	}
}
