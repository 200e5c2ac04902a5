package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/shamsacademy/academy-backend/internal/data/aggregates"
	"github.com/shamsacademy/academy-backend/internal/data/repos"
	"github.com/shamsacademy/academy-backend/internal/data/repos/testutil"
	types "github.com/shamsacademy/academy-backend/internal/domain"
	domainagg "github.com/shamsacademy/academy-backend/internal/domain/aggregates"
	"github.com/shamsacademy/academy-backend/internal/domain/billing"
	"github.com/shamsacademy/academy-backend/internal/domain/user"
	"github.com/shamsacademy/academy-backend/internal/platform/ctxutil"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
	"github.com/shamsacademy/academy-backend/internal/platform/payments"
)

type fixture struct {
	ctx  context.Context
	db   *gorm.DB
	log  *logger.Logger
	base aggregates.BaseDeps

	users        repos.UserRepo
	courses      repos.CourseRepo
	tests        repos.TestRepo
	enrollments  repos.EnrollmentRepo
	payments     repos.PaymentRepo
	attempts     repos.TestAttemptRepo
	certificates repos.CertificateRepo
	achievements repos.AchievementRepo

	enrollmentAgg    domainagg.EnrollmentAggregate
	paymentAgg       domainagg.PaymentAggregate
	attemptAgg       domainagg.AttemptAggregate
	certificationAgg domainagg.CertificationAggregate
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	f := &fixture{
		ctx:          context.Background(),
		db:           db,
		log:          log,
		base:         aggregates.BaseDeps{DB: db, Log: log},
		users:        repos.NewUserRepo(db, log),
		courses:      repos.NewCourseRepo(db, log),
		tests:        repos.NewTestRepo(db, log),
		enrollments:  repos.NewEnrollmentRepo(db, log),
		payments:     repos.NewPaymentRepo(db, log),
		attempts:     repos.NewTestAttemptRepo(db, log),
		certificates: repos.NewCertificateRepo(db, log),
		achievements: repos.NewAchievementRepo(db, log),
	}
	f.enrollmentAgg = aggregates.NewEnrollmentAggregate(aggregates.EnrollmentAggregateDeps{
		Base:        f.base,
		Courses:     f.courses,
		Enrollments: f.enrollments,
	})
	f.paymentAgg = aggregates.NewPaymentAggregate(aggregates.PaymentAggregateDeps{
		Base:        f.base,
		Courses:     f.courses,
		Enrollments: f.enrollments,
		Payments:    f.payments,
	})
	f.attemptAgg = aggregates.NewAttemptAggregate(aggregates.AttemptAggregateDeps{
		Base:             f.base,
		Tests:            f.tests,
		Enrollments:      f.enrollments,
		Attempts:         f.attempts,
		QuestionAttempts: repos.NewQuestionAttemptRepo(db, log),
		ChoiceAttempts:   repos.NewChoiceAttemptRepo(db, log),
	})
	f.certificationAgg = aggregates.NewCertificationAggregate(aggregates.CertificationAggregateDeps{
		Base:         f.base,
		Courses:      f.courses,
		Tests:        f.tests,
		Enrollments:  f.enrollments,
		Attempts:     f.attempts,
		Certificates: f.certificates,
		Achievements: f.achievements,
	})
	return f
}

func (f *fixture) user(t *testing.T, role string) *types.User {
	t.Helper()
	return testutil.SeedUser(t, f.ctx, f.db, role)
}

func (f *fixture) course(t *testing.T, priceMinor int64) *types.Course {
	t.Helper()
	instructor := f.user(t, user.RoleInstructor)
	return testutil.SeedCourse(t, f.ctx, f.db, instructor.ID, priceMinor)
}

func as(ctx context.Context, u *types.User) context.Context {
	return ctxutil.WithIdentity(ctx, &ctxutil.Identity{UserID: u.ID, Role: u.Role, Email: u.Email})
}

func (f *fixture) paymentService(reg payments.Registry) PaymentService {
	return NewPaymentService(f.db, f.log, f.paymentAgg, f.payments, f.enrollments, f.courses, reg, PaymentServiceConfig{
		ReturnURL: "https://academy.example/return",
	})
}

type fakeProvider struct {
	mu        sync.Mutex
	method    billing.Method
	createErr error
	verifyOK  bool
	verifyErr error
	created   []payments.CreateRequest
}

func (p *fakeProvider) Method() billing.Method { return p.method }

func (p *fakeProvider) CreatePayment(_ context.Context, req payments.CreateRequest) (payments.Reference, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, req)
	if p.createErr != nil {
		return payments.Reference{}, p.createErr
	}
	return payments.Reference{
		PaymentID:   "ext-" + req.TransactionID,
		RedirectURL: "https://pay.example/" + req.TransactionID,
		Raw:         []byte(`{"ok":true}`),
	}, nil
}

func (p *fakeProvider) VerifyPayment(context.Context, string) (bool, error) {
	return p.verifyOK, p.verifyErr
}

// failingCertifier only implements Certify; the embedded interface is nil.
type failingCertifier struct {
	domainagg.CertificationAggregate
	err   error
	calls int
}

func (c *failingCertifier) Certify(context.Context, domainagg.IssueCredentialsInput) (domainagg.CertifyResult, error) {
	c.calls++
	return domainagg.CertifyResult{}, c.err
}

func fixedClock(at time.Time) clock {
	return func() time.Time { return at }
}
