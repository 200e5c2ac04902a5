package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shamsacademy/academy-backend/internal/data/repos"
	types "github.com/shamsacademy/academy-backend/internal/domain"
	domainagg "github.com/shamsacademy/academy-backend/internal/domain/aggregates"
	"github.com/shamsacademy/academy-backend/internal/platform/dbctx"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
)

type EnrollmentService interface {
	Enroll(ctx context.Context, courseID uuid.UUID) (*types.Enrollment, error)
	ListForStudent(ctx context.Context) ([]*types.Enrollment, error)
	Get(ctx context.Context, enrollmentID uuid.UUID) (*types.Enrollment, error)
}

type enrollmentService struct {
	db          *gorm.DB
	log         *logger.Logger
	agg         domainagg.EnrollmentAggregate
	enrollments repos.EnrollmentRepo
	now         clock
}

func NewEnrollmentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	agg domainagg.EnrollmentAggregate,
	enrollments repos.EnrollmentRepo,
) EnrollmentService {
	return &enrollmentService{
		db:          db,
		log:         baseLog.With("service", "EnrollmentService"),
		agg:         agg,
		enrollments: enrollments,
	}
}

func (s *enrollmentService) Enroll(ctx context.Context, courseID uuid.UUID) (*types.Enrollment, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.agg.Enroll(ctx, domainagg.EnrollInput{
		StudentID: id.UserID,
		CourseID:  courseID,
		Now:       s.now.now(),
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("student enrolled",
		"student_id", id.UserID,
		"course_id", courseID,
		"payment_status", res.Enrollment.PaymentStatus,
	)
	return res.Enrollment, nil
}

func (s *enrollmentService) ListForStudent(ctx context.Context) ([]*types.Enrollment, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.enrollments.ListByStudent(dbctx.Context{Ctx: ctx}, id.UserID)
	if err != nil {
		s.log.Error("ListForStudent failed", "error", err, "student_id", id.UserID)
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return rows, nil
}

func (s *enrollmentService) Get(ctx context.Context, enrollmentID uuid.UUID) (*types.Enrollment, error) {
	const op = "Learning.Enrollment.Get"
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	row, err := s.enrollments.GetByID(dbctx.Context{Ctx: ctx}, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("get enrollment: %w", err)
	}
	if row == nil || (row.StudentID != id.UserID && !isAdmin(id)) {
		return nil, domainagg.NotFound(op, "enrollment not found")
	}
	return row, nil
}
