package app

import (
	"gorm.io/gorm"

	dataagg "github.com/shamsacademy/academy-backend/internal/data/aggregates"
	domainagg "github.com/shamsacademy/academy-backend/internal/domain/aggregates"
	"github.com/shamsacademy/academy-backend/internal/observability"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
	"github.com/shamsacademy/academy-backend/internal/services"
)

type Aggregates struct {
	Enrollment    domainagg.EnrollmentAggregate
	Payment       domainagg.PaymentAggregate
	Attempt       domainagg.AttemptAggregate
	Certification domainagg.CertificationAggregate
}

type Services struct {
	Auth services.AuthService
	User services.UserService

	Course     services.CourseService
	Enrollment services.EnrollmentService
	Payment    services.PaymentService

	Attempt       services.AttemptService
	Certification services.CertificationService

	Assistant services.AssistantService
}

func wireAggregates(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, metrics *observability.Metrics) Aggregates {
	log.Info("Wiring aggregates...")
	base := dataagg.BaseDeps{
		DB:       db,
		Log:      log,
		Runner:   dataagg.NewGormTxRunner(db, dataagg.WithWriteTimeout(cfg.WriteTimeout)),
		Hooks:    dataagg.NewObservabilityHooks(metrics, log),
		CASGuard: dataagg.NewCASGuard(db),
	}
	return Aggregates{
		Enrollment: dataagg.NewEnrollmentAggregate(dataagg.EnrollmentAggregateDeps{
			Base:        base,
			Courses:     repos.Course,
			Enrollments: repos.Enrollment,
		}),
		Payment: dataagg.NewPaymentAggregate(dataagg.PaymentAggregateDeps{
			Base:        base,
			Courses:     repos.Course,
			Enrollments: repos.Enrollment,
			Payments:    repos.Payment,
		}),
		Attempt: dataagg.NewAttemptAggregate(dataagg.AttemptAggregateDeps{
			Base:             base,
			Tests:            repos.Test,
			Enrollments:      repos.Enrollment,
			Attempts:         repos.TestAttempt,
			QuestionAttempts: repos.QuestionAttempt,
			ChoiceAttempts:   repos.ChoiceAttempt,
		}),
		Certification: dataagg.NewCertificationAggregate(dataagg.CertificationAggregateDeps{
			Base:         base,
			Courses:      repos.Course,
			Tests:        repos.Test,
			Enrollments:  repos.Enrollment,
			Attempts:     repos.TestAttempt,
			Certificates: repos.Certificate,
			Achievements: repos.Achievement,
		}),
	}
}

// Validate fails boot when an aggregate is missing or declares a contract
// the write path cannot honour.
func (a Aggregates) Validate() error {
	return domainagg.ValidateContracts(a.Enrollment, a.Payment, a.Attempt, a.Certification)
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, aggs Aggregates, clients Clients) Services {
	log.Info("Wiring services...")

	userService := services.NewUserService(db, log, repos.User)
	authService := services.NewAuthService(log, userService, cfg.Auth)

	return Services{
		Auth:       authService,
		User:       userService,
		Course:     services.NewCourseService(db, log, repos.Course, repos.Test),
		Enrollment: services.NewEnrollmentService(db, log, aggs.Enrollment, repos.Enrollment),
		Payment: services.NewPaymentService(
			db,
			log,
			aggs.Payment,
			repos.Payment,
			repos.Enrollment,
			repos.Course,
			clients.Payments,
			services.PaymentServiceConfig{
				ProviderTimeout: cfg.ProviderTimeout,
				ReturnURL:       cfg.Payments.ReturnURL,
			},
		),
		Attempt:       services.NewAttemptService(db, log, aggs.Attempt, aggs.Certification, repos.TestAttempt),
		Certification: services.NewCertificationService(db, log, aggs.Certification, repos.Certificate, repos.Achievement),
		Assistant:     services.NewAssistantService(log, clients.LLM, clients.Cache, clients.Limiter),
	}
}
