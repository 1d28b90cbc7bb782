package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/questline/huntapi/internal/hunt"
)

// Event is the payload pushed to live subscribers. Type names the thing
// that happened; the remaining fields are filled as relevant.
type Event struct {
	Type      string                    `json:"type"`
	TeamID    string                    `json:"teamId,omitempty"`
	TeamName  string                    `json:"teamName,omitempty"`
	ClueID    string                    `json:"clueId,omitempty"`
	ClueTitle string                    `json:"clueTitle,omitempty"`
	Status    hunt.SubmissionStatus     `json:"status,omitempty"`
	Message   string                    `json:"message,omitempty"`
	Priority  hunt.AnnouncementPriority `json:"priority,omitempty"`
	At        time.Time                 `json:"at"`
}

// Well-known subscription keys beside per-team IDs.
const (
	// topicBroadcast reaches every connected player regardless of team.
	topicBroadcast = "broadcast"
	// topicFirehose reaches coordinator dashboards; every event lands here.
	topicFirehose = "firehose"
)

// Broker is an in-process pub/sub for live events, keyed by team ID plus
// the broadcast and firehose topics.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events for key.
func (b *Broker) Subscribe(key string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[key] == nil {
		b.subs[key] = make(map[chan []byte]struct{})
	}
	b.subs[key][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from a key's subscribers.
func (b *Broker) Unsubscribe(key string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[key], ch)
	if len(b.subs[key]) == 0 {
		delete(b.subs, key)
	}
	b.mu.Unlock()
}

// Publish sends an event to the team's subscribers and to the firehose.
func (b *Broker) Publish(teamID string, event Event) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	event.TeamID = teamID
	b.send(teamID, event)
	b.send(topicFirehose, event)
}

// Broadcast sends an event to every player and to the firehose.
func (b *Broker) Broadcast(event Event) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	b.send(topicBroadcast, event)
	b.send(topicFirehose, event)
}

func (b *Broker) send(key string, event Event) {
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for ch := range b.subs[key] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}
