package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

func IsValidLevel(level string) bool {
	switch level {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	default:
		return false
	}
}

type Course struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	InstructorID uuid.UUID `gorm:"type:uuid;not null;index" json:"instructor_id"`
	Title        string    `gorm:"column:title;not null;uniqueIndex" json:"title"`
	Description  string    `gorm:"column:description;type:text" json:"description"`
	Level        string    `gorm:"column:level;not null;default:'beginner'" json:"level"`

	// Price in minor units (tiyin for UZS).
	PriceMinor int64  `gorm:"column:price_minor;not null;default:0" json:"price_minor"`
	Currency   string `gorm:"column:currency;not null;default:'UZS'" json:"currency"`
	IsPaid     bool   `gorm:"column:is_paid;not null;default:false" json:"is_paid"`

	IsPublished bool `gorm:"column:is_published;not null;index" json:"is_published"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Course) TableName() string { return "course" }

// RequiresPayment reports whether enrolling must go through checkout.
func (c *Course) RequiresPayment() bool {
	return c != nil && c.IsPaid && c.PriceMinor > 0
}
