// Package assessment holds the pure grading rules for test attempts and the
// credentials a passing final attempt earns. Nothing here touches storage.
package assessment

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/shamsacademy/academy-backend/internal/domain/catalog"
	"github.com/shamsacademy/academy-backend/internal/domain/credentials"
)

// Answer is a student's response to one question.
type Answer struct {
	QuestionID     uuid.UUID
	ChoiceIDs      []uuid.UUID
	AnswerText     string
	CodeSubmission string
}

type QuestionGrade struct {
	QuestionID   uuid.UUID
	IsCorrect    bool
	PointsEarned int
	// Selected holds every choice of a choice question with its selection flag.
	Selected map[uuid.UUID]bool
}

// GradeQuestion grades one question. Choice questions are correct only when
// the selected set equals the correct set exactly; text and code questions
// get full points.
func GradeQuestion(q catalog.Question, a Answer) QuestionGrade {
	g := QuestionGrade{QuestionID: q.ID}
	if !catalog.IsChoiceQuestion(q.Type) {
		g.IsCorrect = true
		g.PointsEarned = q.Points
		return g
	}

	picked := make(map[uuid.UUID]bool, len(a.ChoiceIDs))
	for _, id := range a.ChoiceIDs {
		picked[id] = true
	}
	g.Selected = make(map[uuid.UUID]bool, len(q.Choices))
	correct := true
	for _, c := range q.Choices {
		sel := picked[c.ID]
		g.Selected[c.ID] = sel
		if sel != c.IsCorrect {
			correct = false
		}
	}
	if correct {
		g.IsCorrect = true
		g.PointsEarned = q.Points
	}
	return g
}

// TotalPoints sums the points of every question.
func TotalPoints(questions []catalog.Question) int {
	total := 0
	for _, q := range questions {
		total += q.Points
	}
	return total
}

// Score is floor(100*earned/total), or 0 when total is 0.
func Score(earned, total int) int {
	if total <= 0 || earned <= 0 {
		return 0
	}
	if earned >= total {
		return 100
	}
	return (100 * earned) / total
}

func Passed(score, passingScore int) bool {
	return score >= passingScore
}

func GradeFor(score int) string {
	switch {
	case score >= 90:
		return credentials.GradeA
	case score >= 80:
		return credentials.GradeB
	case score >= 70:
		return credentials.GradeC
	default:
		return credentials.GradeD
	}
}

// CertificateID derives the public certificate identifier. It is stable for
// a given (student, course, attempt).
func CertificateID(studentID, courseID, attemptID uuid.UUID) string {
	return fmt.Sprintf("CERT-%s-%s-%s", studentID, courseID, attemptID)
}
