package aggregates

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shamsacademy/academy-backend/internal/data/repos"
	"github.com/shamsacademy/academy-backend/internal/data/repos/testutil"
	types "github.com/shamsacademy/academy-backend/internal/domain"
	"github.com/shamsacademy/academy-backend/internal/domain/catalog"
	"github.com/shamsacademy/academy-backend/internal/domain/user"
)

type fixture struct {
	ctx   context.Context
	db    *gorm.DB
	hooks *spyHooks
	base  BaseDeps

	courses      repos.CourseRepo
	tests        repos.TestRepo
	enrollments  repos.EnrollmentRepo
	payments     repos.PaymentRepo
	attempts     repos.TestAttemptRepo
	qas          repos.QuestionAttemptRepo
	cas          repos.ChoiceAttemptRepo
	certificates repos.CertificateRepo
	achievements repos.AchievementRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	hooks := &spyHooks{}
	return &fixture{
		ctx:          context.Background(),
		db:           db,
		hooks:        hooks,
		base:         BaseDeps{DB: db, Log: log, Hooks: hooks},
		courses:      repos.NewCourseRepo(db, log),
		tests:        repos.NewTestRepo(db, log),
		enrollments:  repos.NewEnrollmentRepo(db, log),
		payments:     repos.NewPaymentRepo(db, log),
		attempts:     repos.NewTestAttemptRepo(db, log),
		qas:          repos.NewQuestionAttemptRepo(db, log),
		cas:          repos.NewChoiceAttemptRepo(db, log),
		certificates: repos.NewCertificateRepo(db, log),
		achievements: repos.NewAchievementRepo(db, log),
	}
}

func (f *fixture) payment() *paymentAggregate {
	return NewPaymentAggregate(PaymentAggregateDeps{
		Base:        f.base,
		Courses:     f.courses,
		Enrollments: f.enrollments,
		Payments:    f.payments,
	}).(*paymentAggregate)
}

func (f *fixture) enrollment() *enrollmentAggregate {
	return NewEnrollmentAggregate(EnrollmentAggregateDeps{
		Base:        f.base,
		Courses:     f.courses,
		Enrollments: f.enrollments,
	}).(*enrollmentAggregate)
}

func (f *fixture) attempt() *attemptAggregate {
	return NewAttemptAggregate(AttemptAggregateDeps{
		Base:             f.base,
		Tests:            f.tests,
		Enrollments:      f.enrollments,
		Attempts:         f.attempts,
		QuestionAttempts: f.qas,
		ChoiceAttempts:   f.cas,
	}).(*attemptAggregate)
}

func (f *fixture) certification() *certificationAggregate {
	return NewCertificationAggregate(CertificationAggregateDeps{
		Base:         f.base,
		Courses:      f.courses,
		Tests:        f.tests,
		Enrollments:  f.enrollments,
		Attempts:     f.attempts,
		Certificates: f.certificates,
		Achievements: f.achievements,
	}).(*certificationAggregate)
}

func (f *fixture) student(t *testing.T) *types.User {
	t.Helper()
	return testutil.SeedUser(t, f.ctx, f.db, user.RoleStudent)
}

func (f *fixture) course(t *testing.T, priceMinor int64) *types.Course {
	t.Helper()
	instructor := testutil.SeedUser(t, f.ctx, f.db, user.RoleInstructor)
	return testutil.SeedCourse(t, f.ctx, f.db, instructor.ID, priceMinor)
}

// twoQuestionFinal is a final test with two 50-point single-choice questions.
func (f *fixture) twoQuestionFinal(t *testing.T, courseID uuid.UUID, passing int) *types.Test {
	t.Helper()
	return testutil.SeedTest(t, f.ctx, f.db, courseID, testutil.TestSpec{
		PassingScore: passing,
		IsFinal:      true,
		Questions: []testutil.QuestionSpec{
			{Type: catalog.QuestionSingleChoice, Points: 50, Choices: []string{"a", "b"}, Correct: []int{0}},
			{Type: catalog.QuestionSingleChoice, Points: 50, Choices: []string{"a", "b"}, Correct: []int{1}},
		},
	})
}
