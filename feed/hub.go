// Package feed streams team activity events to connected websocket clients,
// one room per team.
package feed

import (
	"encoding/json"
	"log"
	"sync"
)

type Hub struct {
	Register   chan *Client
	Unregister chan *Client
	rooms      map[int]map[*Client]bool
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		rooms:      make(map[int]map[*Client]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.rooms[client.TeamID]; !ok {
				h.rooms[client.TeamID] = make(map[*Client]bool)
			}
			h.rooms[client.TeamID][client] = true
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.TeamID]; ok {
				if _, okClient := clients[client]; okClient {
					client.mu.Lock()
					if !client.closed {
						close(client.send)
						client.closed = true
					}
					client.mu.Unlock()
					delete(clients, client)
					if len(clients) == 0 {
						delete(h.rooms, client.TeamID)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToTeam fans an event out to every client watching the team.
// Slow clients are skipped rather than blocking the broadcast.
func (h *Hub) BroadcastToTeam(teamID int, event interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.rooms[teamID]
	if !ok {
		return
	}

	message, err := json.Marshal(event)
	if err != nil {
		log.Printf("feed: error marshalling event for team %d: %v", teamID, err)
		return
	}

	for client := range clients {
		client.mu.Lock()
		if client.closed {
			client.mu.Unlock()
			continue
		}
		select {
		case client.send <- message:
		default:
		}
		client.mu.Unlock()
	}
}
