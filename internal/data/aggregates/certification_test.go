package aggregates

import (
	"testing"

	types "github.com/shamsacademy/academy-backend/internal/domain"
	domainagg "github.com/shamsacademy/academy-backend/internal/domain/aggregates"
	"github.com/shamsacademy/academy-backend/internal/domain/credentials"
	"github.com/shamsacademy/academy-backend/internal/platform/dbctx"
)

// submitted runs a final test attempt to completion, answering every
// question correctly when correct is set.
func (f *fixture) submitted(t *testing.T, passing int, correct bool) (*types.User, *types.Course, domainagg.SubmitAttemptResult) {
	t.Helper()
	s, c := f.enrolledStudent(t)
	test := f.twoQuestionFinal(t, c.ID, passing)
	agg := f.attempt()
	started, err := agg.Start(f.ctx, domainagg.StartAttemptInput{TestID: test.ID, StudentID: s.ID})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	res, err := agg.Submit(f.ctx, domainagg.SubmitAttemptInput{AttemptID: started.Attempt.ID, Answers: answersFor(test, correct)})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return s, c, res
}

func TestCertifyPerfectFinalScenario(t *testing.T) {
	f := newFixture(t)
	s, c, sub := f.submitted(t, 70, true)
	if *sub.Attempt.Score != 100 || !sub.Passed {
		t.Fatalf("submit: score=%d passed=%v", *sub.Attempt.Score, sub.Passed)
	}

	res, err := f.certification().Certify(f.ctx, domainagg.IssueCredentialsInput{AttemptID: sub.Attempt.ID, StudentID: s.ID})
	if err != nil {
		t.Fatalf("Certify: %v", err)
	}
	if res.Certificate == nil || res.Certificate.Grade != credentials.GradeA {
		t.Fatalf("certificate: %+v", res.Certificate)
	}
	wantID := "CERT-" + s.ID.String() + "-" + c.ID.String() + "-" + sub.Attempt.ID.String()
	if res.Certificate.CertificateID != wantID {
		t.Fatalf("certificate_id: want=%s got=%s", wantID, res.Certificate.CertificateID)
	}
	if len(res.Achievements) != 2 {
		t.Fatalf("achievements: want=2 got=%d", len(res.Achievements))
	}
	if res.Achievements[0].Type != credentials.AchievementCertificate || res.Achievements[1].Type != credentials.AchievementDiscount {
		t.Fatalf("achievement types: %s, %s", res.Achievements[0].Type, res.Achievements[1].Type)
	}

	enr, err := f.enrollments.GetByStudentAndCourse(dbctx.Context{Ctx: f.ctx}, s.ID, c.ID)
	if err != nil {
		t.Fatalf("load enrollment: %v", err)
	}
	if !enr.IsCompleted {
		t.Fatalf("enrollment should be marked completed")
	}

	_, err = f.certification().Certify(f.ctx, domainagg.IssueCredentialsInput{AttemptID: sub.Attempt.ID})
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("re-certify: want conflict got=%v", err)
	}
	certs, _ := f.certificates.ListByStudent(dbctx.Context{Ctx: f.ctx}, s.ID)
	if len(certs) != 1 {
		t.Fatalf("certificates after retry: want=1 got=%d", len(certs))
	}
}

func TestCertifyRejectsFailedAttempt(t *testing.T) {
	f := newFixture(t)
	s, _, sub := f.submitted(t, 70, false)
	if *sub.Attempt.Score != 0 || sub.Passed {
		t.Fatalf("submit: score=%d passed=%v", *sub.Attempt.Score, sub.Passed)
	}
	_, err := f.certification().Certify(f.ctx, domainagg.IssueCredentialsInput{AttemptID: sub.Attempt.ID})
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("certify failing attempt: want conflict got=%v", err)
	}
	certs, _ := f.certificates.ListByStudent(dbctx.Context{Ctx: f.ctx}, s.ID)
	if len(certs) != 0 {
		t.Fatalf("certificates: want=0 got=%d", len(certs))
	}
}

func TestIssueStepsAreIndividuallyOnceOnly(t *testing.T) {
	f := newFixture(t)
	s, _, sub := f.submitted(t, 70, true)
	agg := f.certification()
	in := domainagg.IssueCredentialsInput{AttemptID: sub.Attempt.ID, StudentID: s.ID}

	if _, err := agg.IssueCertificate(f.ctx, in); err != nil {
		t.Fatalf("IssueCertificate: %v", err)
	}
	if _, err := agg.IssueCertificate(f.ctx, in); !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("second IssueCertificate: want conflict got=%v", err)
	}
	got, err := agg.IssueAchievements(f.ctx, in)
	if err != nil {
		t.Fatalf("IssueAchievements: %v", err)
	}
	if len(got.Achievements) != 2 {
		t.Fatalf("achievements: want=2 got=%d", len(got.Achievements))
	}
	if _, err := agg.IssueAchievements(f.ctx, in); !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("second IssueAchievements: want conflict got=%v", err)
	}

	other := f.student(t)
	if _, err := agg.IssueCertificate(f.ctx, domainagg.IssueCredentialsInput{AttemptID: sub.Attempt.ID, StudentID: other.ID}); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("foreign attempt: want not_found got=%v", err)
	}
}
