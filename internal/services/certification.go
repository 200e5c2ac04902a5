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

type CertificationService interface {
	// Certify re-runs issuance for an attempt whose submit-time issuance failed.
	Certify(ctx context.Context, attemptID uuid.UUID) (domainagg.CertifyResult, error)
	ListAchievements(ctx context.Context) ([]*types.Achievement, error)
	ListCertificates(ctx context.Context) ([]*types.Certificate, error)
}

type certificationService struct {
	db           *gorm.DB
	log          *logger.Logger
	agg          domainagg.CertificationAggregate
	certificates repos.CertificateRepo
	achievements repos.AchievementRepo
	now          clock
}

func NewCertificationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	agg domainagg.CertificationAggregate,
	certificates repos.CertificateRepo,
	achievements repos.AchievementRepo,
) CertificationService {
	return &certificationService{
		db:           db,
		log:          baseLog.With("service", "CertificationService"),
		agg:          agg,
		certificates: certificates,
		achievements: achievements,
	}
}

func (s *certificationService) Certify(ctx context.Context, attemptID uuid.UUID) (domainagg.CertifyResult, error) {
	id, err := caller(ctx)
	if err != nil {
		return domainagg.CertifyResult{}, err
	}
	res, err := s.agg.Certify(ctx, domainagg.IssueCredentialsInput{
		AttemptID: attemptID,
		StudentID: id.UserID,
		Now:       s.now.now(),
	})
	if err != nil {
		return res, err
	}
	recordIssued(res)
	s.log.Info("credentials issued", "attempt_id", attemptID, "certificate_id", res.Certificate.CertificateID)
	return res, nil
}

func (s *certificationService) ListAchievements(ctx context.Context) ([]*types.Achievement, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.achievements.ListActiveByStudent(dbctx.Context{Ctx: ctx}, id.UserID, s.now.now())
	if err != nil {
		s.log.Error("ListAchievements failed", "error", err, "student_id", id.UserID)
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	return rows, nil
}

func (s *certificationService) ListCertificates(ctx context.Context) ([]*types.Certificate, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.certificates.ListByStudent(dbctx.Context{Ctx: ctx}, id.UserID)
	if err != nil {
		s.log.Error("ListCertificates failed", "error", err, "student_id", id.UserID)
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	return rows, nil
}
