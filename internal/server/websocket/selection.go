package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/USA-RedDragon/pinpoint-server/internal/events"
	"github.com/USA-RedDragon/pinpoint-server/internal/geo"
	"github.com/USA-RedDragon/pinpoint-server/internal/metrics"
	"github.com/USA-RedDragon/pinpoint-server/internal/saved"
	"github.com/USA-RedDragon/pinpoint-server/internal/selection"
	"github.com/USA-RedDragon/pinpoint-server/internal/websocket"
	gorillaWebsocket "github.com/gorilla/websocket"
	"github.com/puzpuzpuz/xsync/v3"
)

// SelectionWebsocket runs one selection session per connection. The client
// sends select/interests/weather commands; the server streams full view
// snapshots back as sections settle.
type SelectionWebsocket struct {
	websocket.Websocket
	store     *saved.Store
	providers selection.Providers
	metrics   *metrics.Metrics
	bus       *events.EventBus
	disabled  bool
	sessions  *xsync.MapOf[*http.Request, *selection.Session]
}

func CreateSelectionWebsocket(store *saved.Store, providers selection.Providers, m *metrics.Metrics, bus *events.EventBus, disabled bool) *SelectionWebsocket {
	return &SelectionWebsocket{
		store:     store,
		providers: providers,
		metrics:   m,
		bus:       bus,
		disabled:  disabled,
		sessions:  xsync.NewMapOf[*http.Request, *selection.Session](),
	}
}

type clientMessage struct {
	Type string   `json:"type"`
	Lat  float64  `json:"lat"`
	Lng  float64  `json:"lng"`
	Zoom int      `json:"zoom"`
	IDs  []string `json:"ids"`
}

type errorMessage struct {
	Error string `json:"error"`
}

func (s *SelectionWebsocket) OnConnect(_ context.Context, r *http.Request, w websocket.Writer) {
	session := selection.NewSession(s.store, s.providers, func(update selection.Update) {
		data, err := json.Marshal(update)
		if err != nil {
			slog.Error("failed to encode selection update", "error", err.Error())
			return
		}
		w.WriteMessage(websocket.Message{
			Type: gorillaWebsocket.TextMessage,
			Data: data,
		})
	}, s.metrics, s.bus, s.disabled)
	s.sessions.Store(r, session)
	slog.Info("selection session started", "session", session.ID())
}

func (s *SelectionWebsocket) OnMessage(ctx context.Context, r *http.Request, w websocket.Writer, msg []byte, _ int) {
	session, ok := s.sessions.Load(r)
	if !ok {
		return
	}

	var message clientMessage
	if err := json.Unmarshal(msg, &message); err != nil {
		s.writeError(w, "invalid message")
		return
	}

	switch message.Type {
	case "select":
		coord := geo.Coordinate{Lat: message.Lat, Lng: message.Lng}
		if !coord.WithinBounds() {
			s.writeError(w, "invalid coordinate")
			return
		}
		session.Select(ctx, coord, message.Zoom)
	case "interests":
		if len(message.IDs) == 0 {
			s.writeError(w, "interests require ids")
			return
		}
		session.AddInterests(ctx, message.IDs)
	case "weather":
		session.RefreshWeather(ctx)
	default:
		s.writeError(w, "unknown message type")
	}
}

func (s *SelectionWebsocket) OnDisconnect(_ context.Context, r *http.Request) {
	session, ok := s.sessions.LoadAndDelete(r)
	if !ok {
		return
	}
	session.Close()
	slog.Info("selection session closed", "session", session.ID())
}

func (s *SelectionWebsocket) writeError(w websocket.Writer, message string) {
	data, err := json.Marshal(errorMessage{Error: message})
	if err != nil {
		return
	}
	w.WriteMessage(websocket.Message{
		Type: gorillaWebsocket.TextMessage,
		Data: data,
	})
}
