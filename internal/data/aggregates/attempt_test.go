package aggregates

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shamsacademy/academy-backend/internal/data/repos/testutil"
	types "github.com/shamsacademy/academy-backend/internal/domain"
	domainagg "github.com/shamsacademy/academy-backend/internal/domain/aggregates"
	"github.com/shamsacademy/academy-backend/internal/domain/assessment"
	"github.com/shamsacademy/academy-backend/internal/domain/catalog"
	"github.com/shamsacademy/academy-backend/internal/domain/enrollment"
	"github.com/shamsacademy/academy-backend/internal/platform/dbctx"
)

// enrolledStudent seeds a student with a paid-up enrollment in a course.
func (f *fixture) enrolledStudent(t *testing.T) (*types.User, *types.Course) {
	t.Helper()
	s := f.student(t)
	c := f.course(t, 5000)
	testutil.SeedEnrollment(t, f.ctx, f.db, s.ID, c.ID, enrollment.PaymentCompleted)
	return s, c
}

func answersFor(test *types.Test, correct bool) []domainagg.AnswerInput {
	out := make([]domainagg.AnswerInput, 0, len(test.Questions))
	for _, q := range test.Questions {
		var picked []uuid.UUID
		for _, c := range q.Choices {
			if c.IsCorrect == correct {
				picked = append(picked, c.ID)
			}
		}
		out = append(out, domainagg.AnswerInput{QuestionID: q.ID, ChoiceIDs: picked})
	}
	return out
}

func TestStartCreatesBlankQuestionAttemptsInOrder(t *testing.T) {
	f := newFixture(t)
	s, c := f.enrolledStudent(t)
	test := f.twoQuestionFinal(t, c.ID, 70)

	res, err := f.attempt().Start(f.ctx, domainagg.StartAttemptInput{TestID: test.ID, StudentID: s.ID})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if res.Attempt.Status != assessment.AttemptInProgress || res.Attempt.Score != nil {
		t.Fatalf("attempt: got=%+v", res.Attempt)
	}
	if len(res.Questions) != 2 {
		t.Fatalf("question attempts: want=2 got=%d", len(res.Questions))
	}
	for i, qa := range res.Questions {
		if qa.QuestionID != test.Questions[i].ID {
			t.Fatalf("question order at %d: want=%s got=%s", i, test.Questions[i].ID, qa.QuestionID)
		}
		if qa.PointsEarned != 0 || qa.IsCorrect {
			t.Fatalf("question attempt should start blank: %+v", qa)
		}
	}

	if _, err := f.attempt().Start(f.ctx, domainagg.StartAttemptInput{TestID: test.ID, StudentID: s.ID}); !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("second Start: want conflict got=%v", err)
	}
}

func TestStartRequiresPaidEnrollment(t *testing.T) {
	f := newFixture(t)
	s := f.student(t)
	c := f.course(t, 5000)
	test := f.twoQuestionFinal(t, c.ID, 70)

	if _, err := f.attempt().Start(f.ctx, domainagg.StartAttemptInput{TestID: test.ID, StudentID: s.ID}); !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("no enrollment: want conflict got=%v", err)
	}
	testutil.SeedEnrollment(t, f.ctx, f.db, s.ID, c.ID, enrollment.PaymentPending)
	if _, err := f.attempt().Start(f.ctx, domainagg.StartAttemptInput{TestID: test.ID, StudentID: s.ID}); !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("unpaid enrollment: want conflict got=%v", err)
	}
	if _, err := f.attempt().Start(f.ctx, domainagg.StartAttemptInput{TestID: uuid.New(), StudentID: s.ID}); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("missing test: want not_found got=%v", err)
	}
}

func TestConcurrentStartCreatesOneAttempt(t *testing.T) {
	f := newFixture(t)
	s, c := f.enrolledStudent(t)
	test := f.twoQuestionFinal(t, c.ID, 70)
	agg := f.attempt()

	const n = 4
	errs := make([]error, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			_, errs[i] = agg.Start(f.ctx, domainagg.StartAttemptInput{TestID: test.ID, StudentID: s.ID})
			return nil
		})
	}
	_ = g.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else if !domainagg.IsCode(err, domainagg.CodeConflict) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("successful starts: want=1 got=%d", ok)
	}
	rows, err := f.attempts.ListByStudent(dbctx.Context{Ctx: f.ctx}, s.ID, test.ID)
	if err != nil {
		t.Fatalf("ListByStudent: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("attempt rows: want=1 got=%d", len(rows))
	}
}

func TestSubmitScoresAndRejectsResubmission(t *testing.T) {
	f := newFixture(t)
	s, c := f.enrolledStudent(t)
	test := f.twoQuestionFinal(t, c.ID, 70)
	agg := f.attempt()

	started, err := agg.Start(f.ctx, domainagg.StartAttemptInput{TestID: test.ID, StudentID: s.ID})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	answers := answersFor(test, true)
	// Superset on the second question: graded wrong, not rejected.
	answers[1].ChoiceIDs = []uuid.UUID{test.Questions[1].Choices[0].ID, test.Questions[1].Choices[1].ID}

	res, err := agg.Submit(f.ctx, domainagg.SubmitAttemptInput{AttemptID: started.Attempt.ID, StudentID: s.ID, Answers: answers})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Attempt.Status != assessment.AttemptCompleted || res.Attempt.Score == nil || *res.Attempt.Score != 50 {
		t.Fatalf("attempt after submit: %+v", res.Attempt)
	}
	if res.Passed {
		t.Fatalf("score 50 should not pass 70")
	}
	if res.EarnedPoints != 50 || res.TotalPoints != 100 {
		t.Fatalf("points: want=50/100 got=%d/%d", res.EarnedPoints, res.TotalPoints)
	}
	if !res.Questions[0].IsCorrect || res.Questions[1].IsCorrect {
		t.Fatalf("per-question correctness: %v %v", res.Questions[0].IsCorrect, res.Questions[1].IsCorrect)
	}
	if len(res.Questions[0].Choices) != 2 {
		t.Fatalf("choice attempts: want one per choice got=%d", len(res.Questions[0].Choices))
	}

	_, err = agg.Submit(f.ctx, domainagg.SubmitAttemptInput{AttemptID: started.Attempt.ID, StudentID: s.ID, Answers: answers})
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("resubmit: want conflict got=%v", err)
	}
}

func TestSubmitWithZeroTotalPointsScoresZero(t *testing.T) {
	f := newFixture(t)
	s, c := f.enrolledStudent(t)
	test := testutil.SeedTest(t, f.ctx, f.db, c.ID, testutil.TestSpec{
		PassingScore: 0,
		Questions:    []testutil.QuestionSpec{{Type: catalog.QuestionText, Points: 0}},
	})
	agg := f.attempt()

	started, err := agg.Start(f.ctx, domainagg.StartAttemptInput{TestID: test.ID, StudentID: s.ID})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	res, err := agg.Submit(f.ctx, domainagg.SubmitAttemptInput{AttemptID: started.Attempt.ID})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Attempt.Score == nil || *res.Attempt.Score != 0 {
		t.Fatalf("score: want=0 got=%v", res.Attempt.Score)
	}
}

func TestSubmitRejectsForeignAnswers(t *testing.T) {
	f := newFixture(t)
	s, c := f.enrolledStudent(t)
	test := f.twoQuestionFinal(t, c.ID, 70)
	agg := f.attempt()

	started, err := agg.Start(f.ctx, domainagg.StartAttemptInput{TestID: test.ID, StudentID: s.ID})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	_, err = agg.Submit(f.ctx, domainagg.SubmitAttemptInput{
		AttemptID: started.Attempt.ID,
		Answers:   []domainagg.AnswerInput{{QuestionID: test.Questions[0].ID, ChoiceIDs: []uuid.UUID{test.Questions[1].Choices[0].ID}}},
	})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("foreign choice: want validation got=%v", err)
	}

	a, _ := f.attempts.GetByID(dbctx.Context{Ctx: f.ctx}, started.Attempt.ID)
	if a.Status != assessment.AttemptInProgress {
		t.Fatalf("rejected submit must not change status: got=%s", a.Status)
	}
}

func TestTimedOutAttemptRejectsSubmission(t *testing.T) {
	f := newFixture(t)
	s, c := f.enrolledStudent(t)
	test := testutil.SeedTest(t, f.ctx, f.db, c.ID, testutil.TestSpec{
		PassingScore:     70,
		TimeLimitMinutes: testutil.PtrInt(10),
		Questions:        []testutil.QuestionSpec{{Type: catalog.QuestionText, Points: 1}},
	})
	agg := f.attempt()
	startedAt := time.Now().UTC().Add(-time.Hour)

	started, err := agg.Start(f.ctx, domainagg.StartAttemptInput{TestID: test.ID, StudentID: s.ID, Now: startedAt})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	early, err := agg.Expire(f.ctx, domainagg.ExpireAttemptInput{AttemptID: started.Attempt.ID, RequireElapsed: true, Now: startedAt.Add(5 * time.Minute)})
	if err != nil || early.Expired {
		t.Fatalf("Expire before deadline: expired=%v err=%v", early.Expired, err)
	}

	res, err := agg.Expire(f.ctx, domainagg.ExpireAttemptInput{AttemptID: started.Attempt.ID, RequireElapsed: true})
	if err != nil || !res.Expired {
		t.Fatalf("Expire after deadline: expired=%v err=%v", res.Expired, err)
	}
	if res.Attempt.Status != assessment.AttemptTimeout {
		t.Fatalf("status: want=timeout got=%s", res.Attempt.Status)
	}

	_, err = agg.Submit(f.ctx, domainagg.SubmitAttemptInput{AttemptID: started.Attempt.ID})
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("submit after timeout: want conflict got=%v", err)
	}

	again, err := agg.Expire(f.ctx, domainagg.ExpireAttemptInput{AttemptID: started.Attempt.ID})
	if err != nil || again.Expired {
		t.Fatalf("second Expire: expired=%v err=%v", again.Expired, err)
	}
}

func TestLateSubmitTimesOutAttempt(t *testing.T) {
	f := newFixture(t)
	s, c := f.enrolledStudent(t)
	test := testutil.SeedTest(t, f.ctx, f.db, c.ID, testutil.TestSpec{
		PassingScore:     70,
		TimeLimitMinutes: testutil.PtrInt(1),
		Questions:        []testutil.QuestionSpec{{Type: catalog.QuestionText, Points: 1}},
	})
	agg := f.attempt()
	startedAt := time.Now().UTC().Add(-10 * time.Minute)

	started, err := agg.Start(f.ctx, domainagg.StartAttemptInput{TestID: test.ID, StudentID: s.ID, Now: startedAt})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := agg.Submit(f.ctx, domainagg.SubmitAttemptInput{AttemptID: started.Attempt.ID}); !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("late submit: want conflict got=%v", err)
	}
	a, _ := f.attempts.GetByID(dbctx.Context{Ctx: f.ctx}, started.Attempt.ID)
	if a.Status != assessment.AttemptTimeout {
		t.Fatalf("late submit should commit timeout: got=%s", a.Status)
	}

	// An elapsed attempt no longer blocks a new one.
	if _, err := agg.Start(f.ctx, domainagg.StartAttemptInput{TestID: test.ID, StudentID: s.ID}); err != nil {
		t.Fatalf("Start after timeout: %v", err)
	}
}
