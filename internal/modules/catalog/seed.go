// Package catalog parses the YAML catalog file used to seed courses, tests,
// questions and choices. Parsing is pure; persistence lives in the course
// service.
package catalog

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	domaincatalog "github.com/shamsacademy/academy-backend/internal/domain/catalog"
)

type File struct {
	// InstructorID is used for courses that do not name their own.
	InstructorID string   `yaml:"instructor_id"`
	Courses      []Course `yaml:"courses"`
}

type Course struct {
	Title        string `yaml:"title"`
	Description  string `yaml:"description"`
	Level        string `yaml:"level"`
	InstructorID string `yaml:"instructor_id"`
	PriceMinor   int64  `yaml:"price_minor"`
	Currency     string `yaml:"currency"`
	Published    *bool  `yaml:"published"`
	Tests        []Test `yaml:"tests"`
}

type Test struct {
	Title            string     `yaml:"title"`
	Description      string     `yaml:"description"`
	PassingScore     *int       `yaml:"passing_score"`
	TimeLimitMinutes *int       `yaml:"time_limit_minutes"`
	IsFinal          bool       `yaml:"is_final"`
	Questions        []Question `yaml:"questions"`
}

type Question struct {
	Type    string   `yaml:"type"`
	Text    string   `yaml:"text"`
	Points  *int     `yaml:"points"`
	Choices []Choice `yaml:"choices"`
}

type Choice struct {
	Text    string `yaml:"text"`
	Correct bool   `yaml:"correct"`
}

// Parse decodes and validates a catalog file. Unknown keys are rejected so
// typos do not silently drop data.
func Parse(r io.Reader) (*File, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return &f, nil
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) Validate() error {
	titles := map[string]bool{}
	for i, c := range f.Courses {
		where := fmt.Sprintf("courses[%d]", i)
		if strings.TrimSpace(c.Title) == "" {
			return fmt.Errorf("%s: title is required", where)
		}
		if titles[c.Title] {
			return fmt.Errorf("%s: duplicate course title %q", where, c.Title)
		}
		titles[c.Title] = true
		if c.Level != "" && !domaincatalog.IsValidLevel(c.Level) {
			return fmt.Errorf("%s: invalid level %q", where, c.Level)
		}
		if c.PriceMinor < 0 {
			return fmt.Errorf("%s: price_minor must not be negative", where)
		}
		if _, err := f.instructorFor(c); err != nil {
			return fmt.Errorf("%s: %w", where, err)
		}
		testTitles := map[string]bool{}
		for j, t := range c.Tests {
			where := fmt.Sprintf("%s.tests[%d]", where, j)
			if err := validateTest(t); err != nil {
				return fmt.Errorf("%s: %w", where, err)
			}
			if testTitles[t.Title] {
				return fmt.Errorf("%s: duplicate test title %q", where, t.Title)
			}
			testTitles[t.Title] = true
		}
	}
	return nil
}

func validateTest(t Test) error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if t.PassingScore != nil && (*t.PassingScore < 0 || *t.PassingScore > 100) {
		return fmt.Errorf("passing_score must be within 0..100")
	}
	if t.TimeLimitMinutes != nil && *t.TimeLimitMinutes <= 0 {
		return fmt.Errorf("time_limit_minutes must be positive")
	}
	for k, q := range t.Questions {
		if !domaincatalog.IsValidQuestionType(q.Type) {
			return fmt.Errorf("questions[%d]: invalid type %q", k, q.Type)
		}
		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("questions[%d]: text is required", k)
		}
		if q.Points != nil && *q.Points < 0 {
			return fmt.Errorf("questions[%d]: points must not be negative", k)
		}
		if !domaincatalog.IsChoiceQuestion(q.Type) {
			if len(q.Choices) > 0 {
				return fmt.Errorf("questions[%d]: %s questions take no choices", k, q.Type)
			}
			continue
		}
		correct := 0
		for _, c := range q.Choices {
			if c.Correct {
				correct++
			}
		}
		if len(q.Choices) < 2 {
			return fmt.Errorf("questions[%d]: at least two choices are required", k)
		}
		if correct == 0 {
			return fmt.Errorf("questions[%d]: no correct choice", k)
		}
		if q.Type == domaincatalog.QuestionSingleChoice && correct != 1 {
			return fmt.Errorf("questions[%d]: single_choice needs exactly one correct choice", k)
		}
	}
	return nil
}

func (f *File) instructorFor(c Course) (uuid.UUID, error) {
	raw := strings.TrimSpace(c.InstructorID)
	if raw == "" {
		raw = strings.TrimSpace(f.InstructorID)
	}
	if raw == "" {
		return uuid.Nil, fmt.Errorf("instructor_id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("instructor_id: %w", err)
	}
	return id, nil
}

// CourseModel builds the course row; IDs are assigned on insert.
func (f *File) CourseModel(c Course) (*domaincatalog.Course, error) {
	instructor, err := f.instructorFor(c)
	if err != nil {
		return nil, err
	}
	level := c.Level
	if level == "" {
		level = domaincatalog.LevelBeginner
	}
	currency := strings.ToUpper(strings.TrimSpace(c.Currency))
	if currency == "" {
		currency = "UZS"
	}
	published := true
	if c.Published != nil {
		published = *c.Published
	}
	return &domaincatalog.Course{
		InstructorID: instructor,
		Title:        strings.TrimSpace(c.Title),
		Description:  c.Description,
		Level:        level,
		PriceMinor:   c.PriceMinor,
		Currency:     currency,
		IsPaid:       c.PriceMinor > 0,
		IsPublished:  published,
	}, nil
}

// TestModel builds the test with questions and choices ordered as listed.
func TestModel(courseID uuid.UUID, t Test) *domaincatalog.Test {
	passing := domaincatalog.DefaultPassingScore
	if t.PassingScore != nil {
		passing = *t.PassingScore
	}
	out := &domaincatalog.Test{
		CourseID:         courseID,
		Title:            strings.TrimSpace(t.Title),
		Description:      t.Description,
		PassingScore:     passing,
		TimeLimitMinutes: t.TimeLimitMinutes,
		IsFinal:          t.IsFinal,
	}
	for i, q := range t.Questions {
		points := 1
		if q.Points != nil {
			points = *q.Points
		}
		question := domaincatalog.Question{
			Type:   q.Type,
			Text:   q.Text,
			Points: points,
			Order:  i + 1,
		}
		for j, c := range q.Choices {
			question.Choices = append(question.Choices, domaincatalog.Choice{
				Text:      c.Text,
				IsCorrect: c.Correct,
				Order:     j + 1,
			})
		}
		out.Questions = append(out.Questions, question)
	}
	return out
}
