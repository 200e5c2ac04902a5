package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/shamsacademy/academy-backend/internal/domain"
	"github.com/shamsacademy/academy-backend/internal/domain/catalog"
	"github.com/shamsacademy/academy-backend/internal/domain/enrollment"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, role string) *types.User {
	tb.Helper()
	id := uuid.New()
	u := &types.User{
		ID:       id,
		Email:    fmt.Sprintf("%s@example.com", id.String()[:8]),
		FullName: "Test User",
		Role:     role,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedCourse creates a published course. priceMinor > 0 makes it paid.
func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, instructorID uuid.UUID, priceMinor int64) *types.Course {
	tb.Helper()
	c := &types.Course{
		InstructorID: instructorID,
		Title:        "course-" + uuid.NewString()[:8],
		Level:        catalog.LevelBeginner,
		PriceMinor:   priceMinor,
		Currency:     "UZS",
		IsPaid:       priceMinor > 0,
		IsPublished:  true,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

// QuestionSpec describes a seeded question. Correct lists the indexes of the
// correct choices.
type QuestionSpec struct {
	Type    string
	Points  int
	Choices []string
	Correct []int
}

type TestSpec struct {
	PassingScore     int
	TimeLimitMinutes *int
	IsFinal          bool
	Questions        []QuestionSpec
}

func SeedTest(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, spec TestSpec) *types.Test {
	tb.Helper()
	t := &types.Test{
		CourseID:         courseID,
		Title:            "test-" + uuid.NewString()[:8],
		PassingScore:     spec.PassingScore,
		TimeLimitMinutes: spec.TimeLimitMinutes,
		IsFinal:          spec.IsFinal,
	}
	if err := tx.WithContext(ctx).Omit("Questions").Create(t).Error; err != nil {
		tb.Fatalf("seed test: %v", err)
	}
	for i, qs := range spec.Questions {
		q := types.Question{
			TestID: t.ID,
			Type:   qs.Type,
			Text:   fmt.Sprintf("question %d", i+1),
			Points: qs.Points,
			Order:  i,
		}
		if q.Type == "" {
			q.Type = catalog.QuestionMultipleChoice
		}
		if err := tx.WithContext(ctx).Omit("Choices").Create(&q).Error; err != nil {
			tb.Fatalf("seed question: %v", err)
		}
		for j, text := range qs.Choices {
			c := types.Choice{QuestionID: q.ID, Text: text, Order: j}
			for _, k := range qs.Correct {
				if k == j {
					c.IsCorrect = true
				}
			}
			if err := tx.WithContext(ctx).Create(&c).Error; err != nil {
				tb.Fatalf("seed choice: %v", err)
			}
			q.Choices = append(q.Choices, c)
		}
		t.Questions = append(t.Questions, q)
	}
	return t
}

func SeedEnrollment(tb testing.TB, ctx context.Context, tx *gorm.DB, studentID, courseID uuid.UUID, paymentStatus string) *types.Enrollment {
	tb.Helper()
	if paymentStatus == "" {
		paymentStatus = enrollment.PaymentCompleted
	}
	e := &types.Enrollment{
		StudentID:     studentID,
		CourseID:      courseID,
		EnrolledAt:    time.Now().UTC(),
		PaymentStatus: paymentStatus,
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed enrollment: %v", err)
	}
	return e
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }

func PtrInt(v int) *int { return &v }
