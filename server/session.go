package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"adventune/folio/events"
	"adventune/folio/router"
	"adventune/folio/view"
)

// clientMessage is the incoming websocket message format.
type clientMessage struct {
	Type     string `json:"type"` // "navigate" or "back"
	Fragment string `json:"fragment"`
}

// viewMessage is sent after every transition, and as the /api/view body.
type viewMessage struct {
	Type       string           `json:"type"` // "view" or "error"
	Session    string           `json:"session"`
	HTML       string           `json:"html,omitempty"`
	Components []view.Component `json:"components,omitempty"`
	Options    *events.Options  `json:"options,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// session is one page: its own viewport, bus and router.
type session struct {
	id   string
	rt   *router.Router
	last viewMessage
}

func (s *Server) newSession() *session {
	sess := &session{id: uuid.NewString()}

	bus := events.NewBus()
	if s.cfg.Highlight != nil {
		bus.Subscribe(s.cfg.Highlight)
	}
	bus.Subscribe(s.cfg.Popups)
	bus.Subscribe(s.cfg.Animator)
	// Last, so it sees the markup after every other pass.
	bus.Subscribe(events.SubscriberFunc(func(ctx context.Context, ev events.ContentReady) {
		opts := ev.Options
		sess.last = viewMessage{
			Type:       "view",
			Session:    sess.id,
			HTML:       ev.Root.HTML(),
			Components: ev.Components,
			Options:    &opts,
		}
	}))

	sess.rt = router.New(s.Repository(), view.NewMemory(s.cfg.Shell), bus, s.cfg.Pages)
	return sess
}

func (sess *session) navigate(ctx context.Context, fragment string) viewMessage {
	sess.rt.Navigate(ctx, fragment)
	return sess.last
}

func (sess *session) back(ctx context.Context) viewMessage {
	sess.rt.Back(ctx)
	return sess.last
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return s.originAllowed(r.Header.Get("Origin")) },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	s.sessions.Add(1)
	defer s.sessions.Add(-1)

	ctx := r.Context()
	sess := s.newSession()
	log.Debug().Str("session", sess.id).Msg("Session opened")
	defer log.Debug().Str("session", sess.id).Msg("Session closed")

	if !sendMessage(conn, sess.navigate(ctx, r.URL.Query().Get("fragment"))) {
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("session", sess.id).Msg("Websocket read failed")
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sendMessage(conn, viewMessage{Type: "error", Session: sess.id, Error: "invalid message format"})
			continue
		}

		var reply viewMessage
		switch msg.Type {
		case "navigate":
			reply = sess.navigate(ctx, msg.Fragment)
		case "back":
			reply = sess.back(ctx)
		default:
			reply = viewMessage{Type: "error", Session: sess.id, Error: "unknown message type: " + msg.Type}
		}
		if !sendMessage(conn, reply) {
			return
		}
	}
}

func sendMessage(conn *websocket.Conn, msg viewMessage) bool {
	if err := conn.WriteJSON(msg); err != nil {
		log.Warn().Err(err).Str("session", msg.Session).Msg("Websocket write failed")
		return false
	}
	return true
}
