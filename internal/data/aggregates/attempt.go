package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shamsacademy/academy-backend/internal/data/repos"
	types "github.com/shamsacademy/academy-backend/internal/domain"
	domainagg "github.com/shamsacademy/academy-backend/internal/domain/aggregates"
	"github.com/shamsacademy/academy-backend/internal/domain/assessment"
	"github.com/shamsacademy/academy-backend/internal/domain/catalog"
	grading "github.com/shamsacademy/academy-backend/internal/modules/assessment"
	"github.com/shamsacademy/academy-backend/internal/platform/dbctx"
)

// submitGrace tolerates answers that were sent right at the time limit.
const submitGrace = 30 * time.Second

type AttemptAggregateDeps struct {
	Base BaseDeps

	Tests            repos.TestRepo
	Enrollments      repos.EnrollmentRepo
	Attempts         repos.TestAttemptRepo
	QuestionAttempts repos.QuestionAttemptRepo
	ChoiceAttempts   repos.ChoiceAttemptRepo
}

type attemptAggregate struct {
	deps AttemptAggregateDeps
}

func NewAttemptAggregate(deps AttemptAggregateDeps) domainagg.AttemptAggregate {
	deps.Base = deps.Base.withDefaults()
	return &attemptAggregate{deps: deps}
}

func (a *attemptAggregate) Contract() domainagg.Contract {
	return domainagg.AttemptAggregateContract
}

func (a *attemptAggregate) Start(ctx context.Context, in domainagg.StartAttemptInput) (domainagg.StartAttemptResult, error) {
	const op = "Assessment.Attempt.Start"
	var out domainagg.StartAttemptResult
	if in.TestID == uuid.Nil || in.StudentID == uuid.Nil {
		return out, MapError(op, ValidationError("test_id and student_id are required"))
	}
	at := now(in.Now)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		test, err := a.deps.Tests.GetWithQuestions(dbc, in.TestID)
		if err != nil {
			return err
		}
		if test == nil {
			return NotFoundError("test not found")
		}

		// The enrollment row lock serializes concurrent starts for the student.
		enr, err := a.deps.Enrollments.LockByStudentAndCourse(dbc, in.StudentID, test.CourseID)
		if err != nil {
			return err
		}
		if !enr.HasAccess() {
			return ConflictError("a paid enrollment in this course is required")
		}

		active, err := a.deps.Attempts.GetInProgress(dbc, test.ID, in.StudentID)
		if err != nil {
			return err
		}
		if active != nil {
			expired, err := a.expireIfElapsed(dbc, active, test, at)
			if err != nil {
				return err
			}
			if !expired {
				return ConflictError("an attempt is already in progress for this test")
			}
		}

		attempt, err := a.deps.Attempts.Create(dbc, &types.TestAttempt{
			TestID:    test.ID,
			StudentID: in.StudentID,
			Status:    assessment.AttemptInProgress,
			StartedAt: at,
		})
		if err != nil {
			return err
		}

		rows := make([]*types.QuestionAttempt, 0, len(test.Questions))
		for _, q := range test.Questions {
			rows = append(rows, &types.QuestionAttempt{TestAttemptID: attempt.ID, QuestionID: q.ID})
		}
		created, err := a.deps.QuestionAttempts.Create(dbc, rows)
		if err != nil {
			return err
		}

		out = domainagg.StartAttemptResult{Attempt: attempt, Test: test, Questions: created}
		return nil
	})
	return out, err
}

func (a *attemptAggregate) Submit(ctx context.Context, in domainagg.SubmitAttemptInput) (domainagg.SubmitAttemptResult, error) {
	const op = "Assessment.Attempt.Submit"
	var out domainagg.SubmitAttemptResult
	if in.AttemptID == uuid.Nil {
		return out, MapError(op, ValidationError("attempt_id is required"))
	}
	at := now(in.Now)
	timedOut := false

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		attempt, err := a.deps.Attempts.LockByID(dbc, in.AttemptID)
		if err != nil {
			return err
		}
		if attempt == nil || (in.StudentID != uuid.Nil && attempt.StudentID != in.StudentID) {
			return NotFoundError("attempt not found")
		}
		if attempt.Status != assessment.AttemptInProgress {
			return ConflictError("attempt is already " + string(attempt.Status))
		}

		test, err := a.deps.Tests.GetWithQuestions(dbc, attempt.TestID)
		if err != nil {
			return err
		}
		if test == nil {
			return NotFoundError("test not found")
		}
		out.Attempt, out.Test = attempt, test

		if deadline, ok := test.Deadline(attempt.StartedAt); ok && at.After(deadline.Add(submitGrace)) {
			// Commit the timeout, then reject the submission.
			if _, err := a.markTimeout(dbc, attempt, deadline); err != nil {
				return err
			}
			timedOut = true
			return nil
		}

		answers := make([]grading.Answer, 0, len(in.Answers))
		for _, ans := range in.Answers {
			answers = append(answers, grading.Answer{
				QuestionID:     ans.QuestionID,
				ChoiceIDs:      ans.ChoiceIDs,
				AnswerText:     ans.AnswerText,
				CodeSubmission: ans.CodeSubmission,
			})
		}
		byQuestion, err := grading.IndexAnswers(test.Questions, answers)
		if err != nil {
			return ValidationError(err.Error())
		}

		qas, err := a.deps.QuestionAttempts.ListByAttempt(dbc, attempt.ID)
		if err != nil {
			return err
		}
		qaByQuestion := make(map[uuid.UUID]*types.QuestionAttempt, len(qas))
		for _, qa := range qas {
			qaByQuestion[qa.QuestionID] = qa
		}

		earned := 0
		var choiceRows []*types.ChoiceAttempt
		graded := make([]*types.QuestionAttempt, 0, len(test.Questions))
		for _, q := range test.Questions {
			ans := byQuestion[q.ID]
			g := grading.GradeQuestion(q, ans)
			earned += g.PointsEarned

			qa := qaByQuestion[q.ID]
			if qa == nil {
				// Questions added after the attempt started still get a row.
				created, err := a.deps.QuestionAttempts.Create(dbc, []*types.QuestionAttempt{{TestAttemptID: attempt.ID, QuestionID: q.ID}})
				if err != nil {
					return err
				}
				qa = created[0]
			}
			qa.AnswerText = ans.AnswerText
			qa.CodeSubmission = ans.CodeSubmission
			qa.PointsEarned = g.PointsEarned
			qa.IsCorrect = g.IsCorrect
			if err := a.deps.QuestionAttempts.UpdateFields(dbc, qa.ID, map[string]interface{}{
				"answer_text":     qa.AnswerText,
				"code_submission": qa.CodeSubmission,
				"points_earned":   qa.PointsEarned,
				"is_correct":      qa.IsCorrect,
			}); err != nil {
				return err
			}

			if catalog.IsChoiceQuestion(q.Type) {
				qa.Choices = qa.Choices[:0]
				for _, c := range q.Choices {
					row := &types.ChoiceAttempt{QuestionAttemptID: qa.ID, ChoiceID: c.ID, IsSelected: g.Selected[c.ID]}
					choiceRows = append(choiceRows, row)
				}
			}
			graded = append(graded, qa)
		}
		if _, err := a.deps.ChoiceAttempts.Create(dbc, choiceRows); err != nil {
			return err
		}
		gradedByID := make(map[uuid.UUID]*types.QuestionAttempt, len(graded))
		for _, qa := range graded {
			gradedByID[qa.ID] = qa
		}
		for _, row := range choiceRows {
			qa := gradedByID[row.QuestionAttemptID]
			qa.Choices = append(qa.Choices, *row)
		}

		total := grading.TotalPoints(test.Questions)
		score := grading.Score(earned, total)
		taken := int64(at.Sub(attempt.StartedAt) / time.Second)
		if taken < 0 {
			taken = 0
		}
		ok, err := a.deps.Base.CASGuard.UpdateByStatus(dbc, &types.TestAttempt{}, attempt.ID,
			[]string{string(assessment.AttemptInProgress)},
			map[string]any{
				"status":             assessment.AttemptCompleted,
				"score":              score,
				"completed_at":       at,
				"time_taken_seconds": taken,
			})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "attempt is no longer in progress"); err != nil {
			return err
		}

		attempt.Status = assessment.AttemptCompleted
		attempt.Score = &score
		attempt.CompletedAt = &at
		attempt.TimeTakenSeconds = &taken

		out.Questions = graded
		out.EarnedPoints = earned
		out.TotalPoints = total
		out.Passed = grading.Passed(score, test.PassingScore)
		return nil
	})
	if err != nil {
		return out, err
	}
	if timedOut {
		return out, MapError(op, ConflictError("attempt is already "+string(assessment.AttemptTimeout)))
	}
	return out, nil
}

func (a *attemptAggregate) Expire(ctx context.Context, in domainagg.ExpireAttemptInput) (domainagg.ExpireAttemptResult, error) {
	const op = "Assessment.Attempt.Expire"
	var out domainagg.ExpireAttemptResult
	if in.AttemptID == uuid.Nil {
		return out, MapError(op, ValidationError("attempt_id is required"))
	}
	at := now(in.Now)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		attempt, err := a.deps.Attempts.LockByID(dbc, in.AttemptID)
		if err != nil {
			return err
		}
		if attempt == nil {
			return NotFoundError("attempt not found")
		}
		out.Attempt = attempt
		if attempt.Status != assessment.AttemptInProgress {
			return nil
		}
		if !in.RequireElapsed {
			out.Expired, err = a.markTimeout(dbc, attempt, at)
			return err
		}

		test, err := a.deps.Tests.GetByID(dbc, attempt.TestID)
		if err != nil {
			return err
		}
		out.Expired, err = a.expireIfElapsed(dbc, attempt, test, at)
		return err
	})
	return out, err
}

func (a *attemptAggregate) expireIfElapsed(dbc dbctx.Context, attempt *types.TestAttempt, test *types.Test, at time.Time) (bool, error) {
	deadline, ok := test.Deadline(attempt.StartedAt)
	if !ok || at.Before(deadline) {
		return false, nil
	}
	return a.markTimeout(dbc, attempt, deadline)
}

// markTimeout closes the attempt at endedAt. The attempt keeps a nil score.
func (a *attemptAggregate) markTimeout(dbc dbctx.Context, attempt *types.TestAttempt, endedAt time.Time) (bool, error) {
	endedAt = endedAt.UTC()
	taken := int64(endedAt.Sub(attempt.StartedAt) / time.Second)
	if taken < 0 {
		taken = 0
	}
	ok, err := a.deps.Base.CASGuard.UpdateByStatus(dbc, &types.TestAttempt{}, attempt.ID,
		[]string{string(assessment.AttemptInProgress)},
		map[string]any{
			"status":             assessment.AttemptTimeout,
			"completed_at":       endedAt,
			"time_taken_seconds": taken,
		})
	if err != nil || !ok {
		return false, err
	}
	attempt.Status = assessment.AttemptTimeout
	attempt.CompletedAt = &endedAt
	attempt.TimeTakenSeconds = &taken
	return true, nil
}
