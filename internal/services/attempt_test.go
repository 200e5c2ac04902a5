package services

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shamsacademy/academy-backend/internal/data/repos/testutil"
	types "github.com/shamsacademy/academy-backend/internal/domain"
	domainagg "github.com/shamsacademy/academy-backend/internal/domain/aggregates"
	"github.com/shamsacademy/academy-backend/internal/domain/assessment"
	"github.com/shamsacademy/academy-backend/internal/domain/catalog"
	"github.com/shamsacademy/academy-backend/internal/domain/credentials"
	"github.com/shamsacademy/academy-backend/internal/domain/user"
	"github.com/shamsacademy/academy-backend/internal/platform/dbctx"
)

func (f *fixture) attemptService(certs domainagg.CertificationAggregate) *attemptService {
	if certs == nil {
		certs = f.certificationAgg
	}
	return NewAttemptService(f.db, f.log, f.attemptAgg, certs, f.attempts).(*attemptService)
}

// enrolledTest seeds a student enrolled in a course with one two-question
// test. The first question's correct choice is index 0, the second's is 1.
func (f *fixture) enrolledTest(t *testing.T, final bool, timeLimit *int) (*types.User, *types.Test) {
	t.Helper()
	student := f.user(t, user.RoleStudent)
	course := f.course(t, 0)
	testutil.SeedEnrollment(t, f.ctx, f.db, student.ID, course.ID, "")
	test := testutil.SeedTest(t, f.ctx, f.db, course.ID, testutil.TestSpec{
		PassingScore:     70,
		IsFinal:          final,
		TimeLimitMinutes: timeLimit,
		Questions: []testutil.QuestionSpec{
			{Type: catalog.QuestionSingleChoice, Points: 50, Choices: []string{"a", "b"}, Correct: []int{0}},
			{Type: catalog.QuestionSingleChoice, Points: 50, Choices: []string{"a", "b"}, Correct: []int{1}},
		},
	})
	return student, test
}

func correctAnswers(test *types.Test) []domainagg.AnswerInput {
	return []domainagg.AnswerInput{
		{QuestionID: test.Questions[0].ID, ChoiceIDs: []uuid.UUID{test.Questions[0].Choices[0].ID}},
		{QuestionID: test.Questions[1].ID, ChoiceIDs: []uuid.UUID{test.Questions[1].Choices[1].ID}},
	}
}

func TestSubmitFinalIssuesCredentials(t *testing.T) {
	f := newFixture(t)
	student, test := f.enrolledTest(t, true, nil)
	svc := f.attemptService(nil)
	ctx := as(f.ctx, student)

	started, err := svc.Start(ctx, test.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	res, err := svc.Submit(ctx, started.Attempt.ID, correctAnswers(test))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !res.Passed || res.EarnedPoints != 100 || res.TotalPoints != 100 {
		t.Fatalf("score: passed=%v earned=%d total=%d", res.Passed, res.EarnedPoints, res.TotalPoints)
	}
	if res.Certification.Status != CertificationIssued {
		t.Fatalf("certification: want=issued got=%+v", res.Certification)
	}
	if res.Certification.Certificate == nil || res.Certification.Certificate.Grade != credentials.GradeA {
		t.Fatalf("certificate: got=%+v", res.Certification.Certificate)
	}
	if len(res.Certification.Achievements) != 2 {
		t.Fatalf("achievements: want=2 got=%d", len(res.Certification.Achievements))
	}
}

func TestSubmitReportsCertificationFailureWithoutLosingScore(t *testing.T) {
	f := newFixture(t)
	student, test := f.enrolledTest(t, true, nil)
	certs := &failingCertifier{err: domainagg.NewError(domainagg.CodeRetryable, "Credentials.Certification.Certify", "database busy", errors.New("locked"))}
	svc := f.attemptService(certs)
	ctx := as(f.ctx, student)

	started, err := svc.Start(ctx, test.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	res, err := svc.Submit(ctx, started.Attempt.ID, correctAnswers(test))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if certs.calls != 1 {
		t.Fatalf("certify calls: want=1 got=%d", certs.calls)
	}
	if res.Certification.Status != CertificationFailed || res.Certification.ErrorCode != string(domainagg.CodeRetryable) {
		t.Fatalf("certification: got=%+v", res.Certification)
	}

	stored, err := f.attempts.GetByID(dbctx.Context{Ctx: f.ctx}, started.Attempt.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != assessment.AttemptCompleted || stored.Score == nil || *stored.Score != 100 {
		t.Fatalf("stored attempt: got=%+v", stored)
	}
}

func TestSubmitNonFinalOrFailedIsNotEligible(t *testing.T) {
	f := newFixture(t)
	certs := &failingCertifier{err: errors.New("must not be called")}
	svc := f.attemptService(certs)

	student, practice := f.enrolledTest(t, false, nil)
	started, err := svc.Start(as(f.ctx, student), practice.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	res, err := svc.Submit(as(f.ctx, student), started.Attempt.ID, correctAnswers(practice))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Certification.Status != CertificationNotEligible {
		t.Fatalf("practice test: want not_eligible got=%s", res.Certification.Status)
	}

	student2, final := f.enrolledTest(t, true, nil)
	started, err = svc.Start(as(f.ctx, student2), final.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	res, err = svc.Submit(as(f.ctx, student2), started.Attempt.ID, nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Passed || res.Certification.Status != CertificationNotEligible {
		t.Fatalf("failed final: passed=%v certification=%s", res.Passed, res.Certification.Status)
	}
	if certs.calls != 0 {
		t.Fatalf("certify calls: want=0 got=%d", certs.calls)
	}
}

func TestSubmitByAnotherStudentIsNotFound(t *testing.T) {
	f := newFixture(t)
	student, test := f.enrolledTest(t, false, nil)
	other := f.user(t, user.RoleStudent)
	svc := f.attemptService(nil)

	started, err := svc.Start(as(f.ctx, student), test.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	_, err = svc.Submit(as(f.ctx, other), started.Attempt.ID, correctAnswers(test))
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("foreign submit: want not_found got=%v", err)
	}
}

func TestExpireOverdueSweepsOnlyElapsedAttempts(t *testing.T) {
	f := newFixture(t)
	svc := f.attemptService(nil)
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = fixedClock(start)

	var overdue []uuid.UUID
	for i := 0; i < 3; i++ {
		student, test := f.enrolledTest(t, false, testutil.PtrInt(10))
		started, err := svc.Start(as(f.ctx, student), test.ID)
		if err != nil {
			t.Fatalf("Start timed: %v", err)
		}
		overdue = append(overdue, started.Attempt.ID)
	}
	longStudent, longTest := f.enrolledTest(t, false, testutil.PtrInt(120))
	long, err := svc.Start(as(f.ctx, longStudent), longTest.ID)
	if err != nil {
		t.Fatalf("Start long: %v", err)
	}
	openStudent, openTest := f.enrolledTest(t, false, nil)
	open, err := svc.Start(as(f.ctx, openStudent), openTest.ID)
	if err != nil {
		t.Fatalf("Start untimed: %v", err)
	}

	sweepAt := start.Add(30 * time.Minute)
	n, err := svc.ExpireOverdue(f.ctx, sweepAt)
	if err != nil {
		t.Fatalf("ExpireOverdue: %v", err)
	}
	if n != len(overdue) {
		t.Fatalf("expired: want=%d got=%d", len(overdue), n)
	}

	dbc := dbctx.Context{Ctx: f.ctx}
	for _, id := range overdue {
		a, _ := f.attempts.GetByID(dbc, id)
		if a.Status != assessment.AttemptTimeout {
			t.Fatalf("attempt %s: want timeout got=%s", id, a.Status)
		}
		// The attempt ends at its deadline, not at the sweep.
		if a.TimeTakenSeconds == nil || *a.TimeTakenSeconds != 600 {
			t.Fatalf("time taken: want=600 got=%v", a.TimeTakenSeconds)
		}
	}
	for _, id := range []uuid.UUID{long.Attempt.ID, open.Attempt.ID} {
		a, _ := f.attempts.GetByID(dbc, id)
		if a.Status != assessment.AttemptInProgress {
			t.Fatalf("attempt %s: want in_progress got=%s", id, a.Status)
		}
	}

	n, err = svc.ExpireOverdue(f.ctx, sweepAt)
	if err != nil || n != 0 {
		t.Fatalf("second sweep: want=0 got=%d err=%v", n, err)
	}
}

func TestExpireOverduePagesPastSameStartTime(t *testing.T) {
	f := newFixture(t)
	svc := f.attemptService(nil)
	svc.expireBatch = 2
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = fixedClock(start)

	// Every attempt shares one started_at, so pages are split by id only.
	for i := 0; i < 5; i++ {
		student, test := f.enrolledTest(t, false, testutil.PtrInt(120))
		if _, err := svc.Start(as(f.ctx, student), test.ID); err != nil {
			t.Fatalf("Start long: %v", err)
		}
	}
	var overdue []uuid.UUID
	for i := 0; i < 2; i++ {
		student, test := f.enrolledTest(t, false, testutil.PtrInt(10))
		started, err := svc.Start(as(f.ctx, student), test.ID)
		if err != nil {
			t.Fatalf("Start short: %v", err)
		}
		overdue = append(overdue, started.Attempt.ID)
	}

	n, err := svc.ExpireOverdue(f.ctx, start.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("ExpireOverdue: %v", err)
	}
	if n != len(overdue) {
		t.Fatalf("expired: want=%d got=%d", len(overdue), n)
	}
	for _, id := range overdue {
		a, _ := f.attempts.GetByID(dbctx.Context{Ctx: f.ctx}, id)
		if a.Status != assessment.AttemptTimeout {
			t.Fatalf("attempt %s: want timeout got=%s", id, a.Status)
		}
	}
}

func TestTimeoutBeforeDeadlineKeepsAttemptOpen(t *testing.T) {
	f := newFixture(t)
	svc := f.attemptService(nil)
	student, test := f.enrolledTest(t, false, testutil.PtrInt(10))

	started, err := svc.Start(as(f.ctx, student), test.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	a, err := svc.Timeout(f.ctx, started.Attempt.ID)
	if err != nil {
		t.Fatalf("Timeout: %v", err)
	}
	if a.Status != assessment.AttemptInProgress {
		t.Fatalf("status: want=in_progress got=%s", a.Status)
	}
}
