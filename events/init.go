package events

import (
	"encoding/json"
	"log/slog"

	"github.com/r3labs/sse/v2"
)

const StateStream = "state"

// New returns an SSE server with the state stream already created.
func New() *sse.Server {
	server := sse.New()
	server.AutoReplay = false
	server.CreateStream(StateStream)
	return server
}

type publisher interface {
	Publish(id string, event *sse.Event)
}

// Broadcaster pushes JSON payloads to everyone subscribed to a stream.
type Broadcaster struct {
	server publisher
	stream string
}

func NewBroadcaster(server *sse.Server) *Broadcaster {
	return &Broadcaster{server: server, stream: StateStream}
}

// Broadcast never fails from the caller's point of view. Clients that miss
// an event can rehydrate from the status API.
func (b *Broadcaster) Broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to encode event", slog.String("error", err.Error()))
		return
	}
	b.server.Publish(b.stream, &sse.Event{Data: data})
}
