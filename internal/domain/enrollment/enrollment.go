package enrollment

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment status of an enrollment. Only the payment lifecycle (and enroll,
// for free courses) writes it.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

type Enrollment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_student_course,priority:1" json:"student_id"`
	CourseID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_student_course,priority:2;index" json:"course_id"`

	EnrolledAt  time.Time `gorm:"column:enrolled_at;not null" json:"enrolled_at"`
	IsCompleted bool      `gorm:"column:is_completed;not null;default:false" json:"is_completed"`

	PaymentStatus string `gorm:"column:payment_status;not null;index" json:"payment_status"`
	// External provider payment id of the payment that settled this enrollment.
	PaymentID string `gorm:"column:payment_id" json:"payment_id,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Enrollment) TableName() string { return "enrollment" }

func (e *Enrollment) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// HasAccess reports whether the student may take the course's tests.
func (e *Enrollment) HasAccess() bool {
	return e != nil && e.PaymentStatus == PaymentCompleted
}
