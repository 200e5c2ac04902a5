package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultPassingScore = 70

const (
	QuestionMultipleChoice = "multiple_choice"
	QuestionSingleChoice   = "single_choice"
	QuestionText           = "text"
	QuestionCode           = "code"
)

func IsValidQuestionType(t string) bool {
	switch t {
	case QuestionMultipleChoice, QuestionSingleChoice, QuestionText, QuestionCode:
		return true
	default:
		return false
	}
}

// IsChoiceQuestion reports whether answers are graded by selected choices.
func IsChoiceQuestion(t string) bool {
	return t == QuestionMultipleChoice || t == QuestionSingleChoice
}

type Test struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID    uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Description string    `gorm:"column:description;type:text" json:"description"`

	// 0..100
	PassingScore     int  `gorm:"column:passing_score;not null" json:"passing_score"`
	TimeLimitMinutes *int `gorm:"column:time_limit_minutes" json:"time_limit_minutes,omitempty"`
	IsFinal          bool `gorm:"column:is_final;not null;default:false" json:"is_final"`

	Questions []Question `gorm:"foreignKey:TestID" json:"questions,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Test) TableName() string { return "test" }

// Deadline returns when an attempt started at startedAt runs out of time.
// ok is false for tests without a time limit.
func (t *Test) Deadline(startedAt time.Time) (deadline time.Time, ok bool) {
	if t == nil || t.TimeLimitMinutes == nil || *t.TimeLimitMinutes <= 0 {
		return time.Time{}, false
	}
	return startedAt.Add(time.Duration(*t.TimeLimitMinutes) * time.Minute), true
}

type Question struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TestID uuid.UUID `gorm:"type:uuid;not null;index:idx_question_test_order,priority:1" json:"test_id"`
	Type   string    `gorm:"column:question_type;not null" json:"question_type"`
	Text   string    `gorm:"column:text;type:text;not null" json:"text"`
	Points int       `gorm:"column:points;not null" json:"points"`
	Order  int       `gorm:"column:sort_order;not null;default:0;index:idx_question_test_order,priority:2" json:"order"`

	Choices []Choice `gorm:"foreignKey:QuestionID" json:"choices,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Question) TableName() string { return "question" }

type Choice struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;index" json:"question_id"`
	Text       string    `gorm:"column:text;not null" json:"text"`
	IsCorrect  bool      `gorm:"column:is_correct;not null;default:false" json:"-"`
	Order      int       `gorm:"column:sort_order;not null;default:0" json:"order"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Choice) TableName() string { return "choice" }
