package credentials

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	GradeA = "A"
	GradeB = "B"
	GradeC = "C"
	GradeD = "D"
)

// Certificate is issued once per passing final attempt and never changes
// afterwards except for revocation through IsValid.
type Certificate struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID     uuid.UUID `gorm:"type:uuid;not null;index" json:"student_id"`
	CourseID      uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	TestAttemptID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"test_attempt_id"`

	CertificateID string    `gorm:"column:certificate_id;not null;uniqueIndex" json:"certificate_id"`
	Grade         string    `gorm:"column:grade;size:2;not null" json:"grade"`
	Score         int       `gorm:"column:score;not null" json:"score"`
	IssuedAt      time.Time `gorm:"column:issued_at;not null" json:"issued_at"`
	IsValid       bool      `gorm:"column:is_valid;not null" json:"is_valid"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Certificate) TableName() string { return "certificate" }

const (
	AchievementCertificate = "certificate"
	AchievementDiscount    = "discount"
	AchievementBadge       = "badge"
)

// Achievement rows are append-only. SourceAttemptID ties an achievement to
// the attempt that earned it so re-issuing for the same attempt conflicts.
type Achievement struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID       uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_achievement_source,priority:1" json:"student_id"`
	CourseID        *uuid.UUID `gorm:"type:uuid;index" json:"course_id,omitempty"`
	Type            string     `gorm:"column:achievement_type;not null;uniqueIndex:idx_achievement_source,priority:2" json:"achievement_type"`
	SourceAttemptID *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_achievement_source,priority:3" json:"source_attempt_id,omitempty"`

	Title       string   `gorm:"column:title;not null" json:"title"`
	Description string   `gorm:"column:description;type:text" json:"description"`
	Value       *float64 `gorm:"column:value;type:numeric(10,2)" json:"value,omitempty"`

	EarnedAt  time.Time  `gorm:"column:earned_at;not null;index" json:"earned_at"`
	ExpiresAt *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`
	IsActive  bool       `gorm:"column:is_active;not null;index" json:"is_active"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Achievement) TableName() string { return "achievement" }

func (c *Certificate) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (a *Achievement) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
