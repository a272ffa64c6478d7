package api

import (
	"github.com/rs/zerolog/log"
)

// publish emits an event on the bus when one is configured. Event payloads
// never carry token material.
func (a *API) publish(subject string, payload map[string]any) {
	if a.store.Bus == nil {
		return
	}
	if err := a.store.Bus.Publish(subject, payload); err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("publish event")
	}
}
