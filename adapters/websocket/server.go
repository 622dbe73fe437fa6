package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/endo-ava/link-persona-bot/domain"
	"github.com/endo-ava/link-persona-bot/utils/log"
)

// Server streams summary events from the broker to websocket clients.
type Server struct {
	upgrader      websocket.Upgrader
	messageBroker domain.MessageBroker
	hub           *Hub
}

func NewServer(messageBroker domain.MessageBroker, hub *Hub) *Server {
	return &Server{
		upgrader:      websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		messageBroker: messageBroker,
		hub:           hub,
	}
}

func (s *Server) Hub() *Hub {
	return s.hub
}

// Run starts the hub and forwards summary events until ctx is done or the
// broker is closed.
func (s *Server) Run(ctx context.Context) error {
	messageChan, err := s.messageBroker.Subscribe(ctx, domain.SummaryTopic, "")
	if err != nil {
		return err
	}

	go s.hub.Run(ctx)
	log.WithCtx(ctx).Info("🎧 WebSocket server listening to summary events")

	for {
		select {
		case msg, ok := <-messageChan:
			if !ok {
				return nil
			}
			payload, err := envelope(MessageTypeSummary, msg)
			if err != nil {
				log.WithCtx(ctx).Error("❌ Failed to encode summary event", zap.Error(err))
				continue
			}
			s.hub.Broadcast(payload)
			log.WithCtx(ctx).Debug("📤 Broadcasted summary to WebSocket clients",
				zap.Int("clients", s.hub.ClientCount()))

		case <-ctx.Done():
			log.WithCtx(ctx).Info("🔒 Summary listener stopped")
			return nil
		}
	}
}

func envelope(kind string, msg domain.Message) ([]byte, error) {
	var event domain.SummaryEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return nil, err
	}
	ts := event.CreatedAt
	if ts.IsZero() {
		ts = msg.Timestamp
	}
	return json.Marshal(Message{
		Type:      kind,
		Timestamp: ts.UTC().Truncate(time.Millisecond),
		Data:      msg.Payload,
	})
}
