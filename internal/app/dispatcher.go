package app

import (
	"github.com/rs/zerolog/log"

	"github.com/avelov/huddle/internal/core"
)

// Dispatcher is the single entry point the transport calls per inbound
// frame: decode, route to the owning handler, apply. A frame is dropped,
// never escalated, on unknown kind, failed validation, handler error or
// handler panic; one misbehaving handler must not take the read loop down.
type Dispatcher struct {
	handlers *HandlerSet
	registry *Registry
}

func NewDispatcher(handlers *HandlerSet, registry *Registry) *Dispatcher {
	return &Dispatcher{handlers: handlers, registry: registry}
}

// Process reports true only when the frame was fully applied.
func (d *Dispatcher) Process(conn core.TaggedConn, raw []byte) (ok bool) {
	env, structured := Decode(raw)

	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "app.dispatch").Str("kind", env.Kind).Any("panic", r).Msg("handler panicked")
			ok = false
		}
	}()

	h, found := d.handlers.Lookup(env.Kind)
	if !found {
		log.Warn().Str("module", "app.dispatch").Str("kind", env.Kind).Msg("no handler for kind")
		return false
	}
	if !h.Validate(env.Raw) {
		log.Warn().Str("module", "app.dispatch").Str("kind", env.Kind).Bool("structured", structured).Msg("frame failed validation")
		return false
	}
	if err := h.Apply(conn, env.Raw, d.registry); err != nil {
		log.Warn().Str("module", "app.dispatch").Str("kind", env.Kind).Err(err).Msg("handler error")
		return false
	}
	return true
}
