package events

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// NATSForwarder drains the event bus and republishes each event onto NATS
// as <prefix>.<event type>.
type NATSForwarder struct {
	conn   *nats.Conn
	prefix string
}

func StartNATSForwarder(url, prefix string, bus *EventBus) (*NATSForwarder, error) {
	conn, err := nats.Connect(url, nats.Name("pinpoint-server"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	forwarder := &NATSForwarder{conn: conn, prefix: prefix}
	go forwarder.run(bus)
	return forwarder, nil
}

func (f *NATSForwarder) run(bus *EventBus) {
	for event := range bus.GetChannel() {
		payload, err := json.Marshal(event)
		if err != nil {
			slog.Error("failed to encode event", "type", event.GetType(), "error", err.Error())
			continue
		}
		subject := f.prefix + "." + string(event.GetType())
		if err := f.conn.Publish(subject, payload); err != nil {
			slog.Error("failed to publish event", "subject", subject, "error", err.Error())
		}
	}
}

func (f *NATSForwarder) Close() {
	f.conn.Close()
}
