package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActionCreateClaim   = "CREATE_CLAIM"
	ActionEditClaim     = "EDIT_CLAIM"
	ActionDeleteClaim   = "DELETE_CLAIM"
	ActionSubmitClaim   = "SUBMIT_CLAIM"
	ActionApproveClaim  = "APPROVE_CLAIM"
	ActionReturnClaim   = "RETURN_CLAIM"
	ActionCreateReceipt = "CREATE_RECEIPT"
	ActionEditReceipt   = "EDIT_RECEIPT"
	ActionDeleteReceipt = "DELETE_RECEIPT"
	ActionUpdateAccount = "UPDATE_ACCOUNT"
	ActionCreateUser    = "CREATE_USER"
	ActionUpdateUser    = "UPDATE_USER"
	ActionDeleteUser    = "DELETE_USER"
)

// AuditLog tracks Who, What, and When for claim and account changes
type AuditLog struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    *uuid.UUID     `gorm:"type:uuid;index" json:"user_id"`
	User      *User          `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL;" json:"user"`
	Action    string         `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID  string         `gorm:"type:varchar(50);index" json:"entity_id"` // claim/receipt reference or user email
	Details   datatypes.JSON `json:"details"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	return nil
}
