// Package bus publishes sync lifecycle events to NATS. The bus is optional:
// a nil *Bus is safe to publish on, so callers need no configuration checks.
package bus

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
)

// Subjects emitted by the sync backend.
const (
	SubjectVaultCreated  = "concur.vaults.created"
	SubjectFilesSynced   = "concur.files.synced"
	SubjectAuthCompleted = "concur.auth.completed"
)

// Bus wraps a NATS connection for publishing events.
type Bus struct {
	conn *nats.Conn
}

// New creates a Bus connected to the provided NATS endpoint.
func New(url string, opts ...nats.Option) (*Bus, error) {
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &Bus{conn: nc}, nil
}

// Close shuts down the underlying NATS connection.
func (b *Bus) Close() {
	if b == nil {
		return
	}
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
	}
}

// Publish encodes v as JSON and publishes it to the given subject.
// Publishing on a nil bus is a no-op.
func (b *Bus) Publish(subj string, v any) error {
	if b == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return b.conn.Publish(subj, data)
}
