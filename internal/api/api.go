package api

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/gorm"

	"concurd/internal/authflow"
	"concurd/pkg/bus"
)

const defaultRequestsPerMinute = 300

// Store holds external dependencies required by the API layer. ORM and Bus
// are optional; handlers degrade to skipping audit rows and events.
type Store struct {
	DB  *pgxpool.Pool
	ORM *gorm.DB
	Bus *bus.Bus
}

// Config controls runtime behaviour for the API handlers.
type Config struct {
	AllowedOrigins    []string
	RequestsPerMinute int
	RequestTimeout    time.Duration
}

// API wires dependencies and configuration for HTTP handlers.
type API struct {
	store  *Store
	config Config
	flows  *authflow.Coordinator
	vaults VaultStore
	files  FileStore
	audit  *auditTrail
}

// New initialises the API layer with sane defaults applied to the provided
// configuration.
func New(store *Store, flows *authflow.Coordinator, cfg Config) (*API, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if store.DB == nil {
		return nil, errors.New("store DB is required")
	}
	if flows == nil {
		return nil, errors.New("handshake coordinator is required")
	}

	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = defaultRequestsPerMinute
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	return &API{
		store:  store,
		config: cfg,
		flows:  flows,
		vaults: &pgVaultStore{pool: store.DB},
		files:  &pgFileStore{pool: store.DB},
		audit:  newAuditTrail(store.ORM),
	}, nil
}
