package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AdminActionPasswordReset = "password_reset"
	AdminActionPasswordSet   = "password_set"
	AdminActionRoleChange    = "role_change"
	AdminActionUserDelete    = "user_delete"
)

// AdminLog is the append-only audit trail of account-affecting admin actions.
type AdminLog struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AdminID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"admin_id"`
	TargetUserID *uuid.UUID `gorm:"type:uuid;index" json:"target_user_id"`
	Action       string     `gorm:"size:50;not null;index" json:"action"`
	Details      string     `gorm:"type:text" json:"details"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
}

func (l *AdminLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
