package domain

import "time"

// Idempotency represents a recorded result of a previously processed create
// request, keyed by (user_id, scope, idem_key). Scope is the method and route, so the
// same key may be reused against different endpoints. A retry with the same
// key returns the originally created resource without repeating side effects.
type Idempotency struct {
	ID         string    `gorm:"type:char(36);primaryKey"`
	UserID     string    `gorm:"size:64;not null;uniqueIndex:ux_idem_user_scope_key,priority:1"`
	Scope      string    `gorm:"size:255;not null;uniqueIndex:ux_idem_user_scope_key,priority:2"`
	Key        string    `gorm:"column:idem_key;size:200;not null;uniqueIndex:ux_idem_user_scope_key,priority:3"`
	ResourceID string    `gorm:"type:char(36);not null"`
	Status     int       `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt  time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
