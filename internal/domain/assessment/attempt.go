package assessment

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
	AttemptTimeout    AttemptStatus = "timeout"
)

func (s AttemptStatus) Terminal() bool {
	return s == AttemptCompleted || s == AttemptTimeout
}

// TestAttempt is one student's pass through a test. At most one attempt per
// (test, student) may be in progress; completed and timeout are final.
type TestAttempt struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TestID    uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_attempt_active,priority:1,where:status = 'in_progress'" json:"test_id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_attempt_active,priority:2,where:status = 'in_progress'" json:"student_id"`

	Status AttemptStatus `gorm:"column:status;not null;index" json:"status"`
	// 0..100, nil until completed.
	Score *int `gorm:"column:score" json:"score"`

	StartedAt        time.Time  `gorm:"column:started_at;not null;index" json:"started_at"`
	CompletedAt      *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	TimeTakenSeconds *int64     `gorm:"column:time_taken_seconds" json:"time_taken_seconds,omitempty"`

	Questions []QuestionAttempt `gorm:"foreignKey:TestAttemptID" json:"questions,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (TestAttempt) TableName() string { return "test_attempt" }

type QuestionAttempt struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TestAttemptID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_question_attempt_unique,priority:1" json:"test_attempt_id"`
	QuestionID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_question_attempt_unique,priority:2" json:"question_id"`
	AnswerText     string    `gorm:"column:answer_text;type:text" json:"answer_text,omitempty"`
	CodeSubmission string    `gorm:"column:code_submission;type:text" json:"code_submission,omitempty"`
	PointsEarned   int       `gorm:"column:points_earned;not null;default:0" json:"points_earned"`
	IsCorrect      bool      `gorm:"column:is_correct;not null;default:false" json:"is_correct"`

	Choices []ChoiceAttempt `gorm:"foreignKey:QuestionAttemptID" json:"choices,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (QuestionAttempt) TableName() string { return "question_attempt" }

type ChoiceAttempt struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionAttemptID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_choice_attempt_unique,priority:1" json:"question_attempt_id"`
	ChoiceID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_choice_attempt_unique,priority:2" json:"choice_id"`
	IsSelected        bool      `gorm:"column:is_selected;not null;default:false" json:"is_selected"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (ChoiceAttempt) TableName() string { return "choice_attempt" }

func (a *TestAttempt) BeforeCreate(*gorm.DB) error     { ensureID(&a.ID); return nil }
func (q *QuestionAttempt) BeforeCreate(*gorm.DB) error { ensureID(&q.ID); return nil }
func (c *ChoiceAttempt) BeforeCreate(*gorm.DB) error   { ensureID(&c.ID); return nil }

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
