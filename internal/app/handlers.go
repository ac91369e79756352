package app

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/avelov/huddle/internal/core"
)

// Handler owns a single message kind. Validate is a pure structural
// check and must survive arbitrary input; Apply performs the effect
// through the registry and nothing else.
type Handler interface {
	Kind() string
	Validate(raw json.RawMessage) bool
	Apply(conn core.TaggedConn, raw json.RawMessage, reg *Registry) error
}

// HandlerSet maps message kinds to their handlers. Registering a kind
// twice replaces the earlier handler.
type HandlerSet struct {
	handlers map[string]Handler
}

func NewHandlerSet() *HandlerSet {
	return &HandlerSet{handlers: make(map[string]Handler)}
}

func (s *HandlerSet) Register(h Handler) {
	s.handlers[h.Kind()] = h
}

func (s *HandlerSet) Lookup(kind string) (Handler, bool) {
	h, ok := s.handlers[kind]
	return h, ok
}

// DefaultHandlers wires up the built-in chat, typing and ping handlers.
func DefaultHandlers(echoToSender bool) *HandlerSet {
	s := NewHandlerSet()
	s.Register(ChatHandler{EchoToSender: echoToSender})
	s.Register(TypingHandler{})
	s.Register(PingHandler{})
	return s
}

// ChatHandler rebroadcasts chat text to everyone. EchoToSender decides
// whether the sending connection hears its own message back.
type ChatHandler struct {
	EchoToSender bool
}

func (ChatHandler) Kind() string { return core.KindChat }

func (ChatHandler) Validate(raw json.RawMessage) bool {
	var p core.ChatInbound
	if err := json.Unmarshal(raw, &p); err != nil {
		return false
	}
	return strings.TrimSpace(p.Message) != ""
}

func (h ChatHandler) Apply(conn core.TaggedConn, raw json.RawMessage, reg *Registry) error {
	var p core.ChatInbound
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	prof, ok := reg.Profile(conn.Identity())
	if !ok {
		log.Warn().Str("module", "app.chat").Str("user", string(conn.Identity())).Msg("chat from connection without profile")
		return ErrNoProfile
	}
	out := core.ChatBroadcast{
		Type:      core.KindChat,
		User:      core.UserRef{UserID: prof.ID, Email: prof.Email},
		Message:   strings.TrimSpace(p.Message),
		Timestamp: time.Now(),
	}
	if h.EchoToSender {
		reg.Broadcast(out, nil)
	} else {
		reg.Broadcast(out, conn)
	}
	return nil
}

// TypingHandler relays typing state to every user except the sender,
// covering all of the sender's own tabs.
type TypingHandler struct{}

func (TypingHandler) Kind() string { return core.KindTyping }

func (TypingHandler) Validate(raw json.RawMessage) bool {
	var p core.TypingInbound
	if err := json.Unmarshal(raw, &p); err != nil {
		return false
	}
	return p.IsTyping != nil
}

func (TypingHandler) Apply(conn core.TaggedConn, raw json.RawMessage, reg *Registry) error {
	var p core.TypingInbound
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	prof, ok := reg.Profile(conn.Identity())
	if !ok {
		log.Warn().Str("module", "app.typing").Str("user", string(conn.Identity())).Msg("typing from connection without profile")
		return ErrNoProfile
	}
	reg.BroadcastExcept(core.TypingBroadcast{
		Type:      core.KindTyping,
		User:      core.UserRef{UserID: prof.ID, Email: prof.Email},
		IsTyping:  *p.IsTyping,
		Timestamp: time.Now(),
	}, prof.ID)
	return nil
}

// PingHandler answers a ping with a pong on the same connection only.
type PingHandler struct{}

func (PingHandler) Kind() string { return core.KindPing }

func (PingHandler) Validate(json.RawMessage) bool { return true }

func (PingHandler) Apply(conn core.TaggedConn, _ json.RawMessage, reg *Registry) error {
	reg.SendTo(conn, core.Pong{Type: core.KindPong, Timestamp: time.Now()})
	return nil
}
