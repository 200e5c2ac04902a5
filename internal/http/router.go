package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/shamsacademy/academy-backend/internal/domain/user"
	httpH "github.com/shamsacademy/academy-backend/internal/http/handlers"
	httpMW "github.com/shamsacademy/academy-backend/internal/http/middleware"
	"github.com/shamsacademy/academy-backend/internal/observability"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string
	Metrics        *observability.Metrics

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler     *httpH.HealthHandler
	UserHandler       *httpH.UserHandler
	CourseHandler     *httpH.CourseHandler
	EnrollmentHandler *httpH.EnrollmentHandler
	PaymentHandler    *httpH.PaymentHandler
	AttemptHandler    *httpH.AttemptHandler
	AssistantHandler  *httpH.AssistantHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	{
		// Catalog (public)
		if cfg.CourseHandler != nil {
			api.GET("/courses", cfg.CourseHandler.ListCourses)
			api.GET("/courses/:id", cfg.CourseHandler.GetCourse)
		}
		// Provider callbacks
		if cfg.PaymentHandler != nil {
			api.POST("/payments/webhook/:method", cfg.PaymentHandler.Webhook)
		}
	}

	protected := api.Group("/")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}
	student := protected.Group("/")
	if cfg.AuthMiddleware != nil {
		student.Use(cfg.AuthMiddleware.RequireRole(user.RoleStudent))
	}

	if cfg.UserHandler != nil {
		protected.GET("/me", cfg.UserHandler.GetMe)
	}

	if cfg.CourseHandler != nil {
		protected.GET("/tests/:id", cfg.CourseHandler.GetTest)
	}

	if cfg.EnrollmentHandler != nil {
		student.POST("/enrollments", cfg.EnrollmentHandler.Enroll)
		protected.GET("/enrollments", cfg.EnrollmentHandler.ListEnrollments)
		protected.GET("/enrollments/:id", cfg.EnrollmentHandler.GetEnrollment)
	}

	if cfg.PaymentHandler != nil {
		student.POST("/payments", cfg.PaymentHandler.CreatePayment)
		protected.GET("/payments/:id", cfg.PaymentHandler.GetPayment)
		protected.POST("/payments/:id/verify", cfg.PaymentHandler.VerifyPayment)
		protected.POST("/payments/:id/cancel", cfg.PaymentHandler.CancelPayment)
	}

	if cfg.AttemptHandler != nil {
		student.POST("/tests/:id/attempts", cfg.AttemptHandler.StartAttempt)
		student.POST("/attempts/:id/submit", cfg.AttemptHandler.SubmitAttempt)
		student.POST("/attempts/:id/certificate", cfg.AttemptHandler.IssueCertificate)
		protected.GET("/achievements", cfg.AttemptHandler.ListAchievements)
		protected.GET("/certificates", cfg.AttemptHandler.ListCertificates)
	}

	if cfg.AssistantHandler != nil {
		protected.POST("/ai/chat", cfg.AssistantHandler.Chat)
		protected.POST("/ai/generate-course", cfg.AssistantHandler.GenerateCourse)
	}

	return r
}
