package app

import (
	"gorm.io/gorm"

	"github.com/shamsacademy/academy-backend/internal/http"
	httpH "github.com/shamsacademy/academy-backend/internal/http/handlers"
	httpMW "github.com/shamsacademy/academy-backend/internal/http/middleware"
	"github.com/shamsacademy/academy-backend/internal/observability"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health     *httpH.HealthHandler
	User       *httpH.UserHandler
	Course     *httpH.CourseHandler
	Enrollment *httpH.EnrollmentHandler
	Payment    *httpH.PaymentHandler
	Attempt    *httpH.AttemptHandler
	Assistant  *httpH.AssistantHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, cfg Config, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(db),
		User:       httpH.NewUserHandler(log, services.User),
		Course:     httpH.NewCourseHandler(log, services.Course),
		Enrollment: httpH.NewEnrollmentHandler(log, services.Enrollment),
		Payment:    httpH.NewPaymentHandler(log, services.Payment, cfg.WebhookSecret),
		Attempt:    httpH.NewAttemptHandler(log, services.Attempt, services.Certification),
		Assistant:  httpH.NewAssistantHandler(log, services.Assistant),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *http.Server {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return http.NewServer(http.RouterConfig{
		Log:               log,
		ServiceName:       serviceName,
		AllowedOrigins:    cfg.AllowedOrigins,
		Metrics:           metrics,
		AuthMiddleware:    middleware.Auth,
		HealthHandler:     handlers.Health,
		UserHandler:       handlers.User,
		CourseHandler:     handlers.Course,
		EnrollmentHandler: handlers.Enrollment,
		PaymentHandler:    handlers.Payment,
		AttemptHandler:    handlers.Attempt,
		AssistantHandler:  handlers.Assistant,
	})
}
