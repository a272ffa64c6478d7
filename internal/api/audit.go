package api

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type auditRecord struct {
	ID      int64             `gorm:"primaryKey"`
	Actor   string            `gorm:"type:text;not null"`
	Action  string            `gorm:"type:text;not null"`
	Obj     string            `gorm:"type:text"`
	Details datatypes.JSONMap `gorm:"type:jsonb"`
	At      time.Time         `gorm:"autoCreateTime"`
}

func (auditRecord) TableName() string { return "audit_logs" }

// auditTrail writes best-effort audit rows. Failures are logged, never
// surfaced to clients.
type auditTrail struct {
	orm *gorm.DB
}

func newAuditTrail(orm *gorm.DB) *auditTrail {
	return &auditTrail{orm: orm}
}

func (t *auditTrail) Record(ctx context.Context, action, obj string, details map[string]any) {
	if t == nil || t.orm == nil {
		return
	}

	rec := auditRecord{
		Actor:   "api",
		Action:  action,
		Obj:     obj,
		Details: datatypes.JSONMap(details),
		At:      time.Now().UTC(),
	}
	if err := t.orm.WithContext(ctx).Create(&rec).Error; err != nil {
		log.Warn().Err(err).Str("action", action).Msg("audit write failed")
	}
}
