package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an employee account. ManagerID and SubstituteID are self-references
// that are nulled out, never cascaded, when the referenced user is deleted.
type User struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email             string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	FirstName         string     `gorm:"type:varchar(150);not null" json:"first_name"`
	LastName          string     `gorm:"type:varchar(150);not null" json:"last_name"`
	PasswordHash      string     `gorm:"type:varchar(255);not null" json:"-"`
	IsAdmin           bool       `gorm:"default:false" json:"is_admin"`
	DefaultCurrencyID *uuid.UUID `gorm:"type:uuid;index" json:"default_currency_id"`
	DefaultCurrency   *Currency  `gorm:"foreignKey:DefaultCurrencyID;constraint:OnDelete:SET NULL;" json:"default_currency,omitempty"`
	ManagerID         *uuid.UUID `gorm:"type:uuid;index" json:"manager_id"`
	Manager           *User      `gorm:"foreignKey:ManagerID;constraint:OnDelete:SET NULL;" json:"-"`
	SubstituteID      *uuid.UUID `gorm:"type:uuid;index" json:"substitute_id"` // stands in for this user's team
	Substitute        *User      `gorm:"foreignKey:SubstituteID;constraint:OnDelete:SET NULL;" json:"-"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	assignID(&u.ID)
	return nil
}

// FullName joins first and last name.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// assignID gives a new row a random UUID. Keys are generated in Go so the same
// schema runs on PostgreSQL and SQLite.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
