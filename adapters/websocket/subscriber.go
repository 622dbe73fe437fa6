package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/endo-ava/link-persona-bot/domain"
	"github.com/endo-ava/link-persona-bot/utils/log"
)

// Subscribe dials the summary feed at url and calls handle for every summary
// event until ctx is done or the server closes the connection. token, when
// set, is sent as a bearer token.
func Subscribe(ctx context.Context, url, token string, handle func(domain.SummaryEvent)) error {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("connecting to feed: %s: %w", resp.Status, err)
		}
		return fmt.Errorf("connecting to feed: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			conn.Close()
		case <-done:
		}
	}()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("reading feed: %w", err)
		}
		if msg.Type != MessageTypeSummary {
			continue
		}

		var event domain.SummaryEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.WithCtx(ctx).Warn("Skipping malformed feed message", zap.Error(err))
			continue
		}
		handle(event)
	}
}
