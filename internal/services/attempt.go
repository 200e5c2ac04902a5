package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shamsacademy/academy-backend/internal/data/repos"
	types "github.com/shamsacademy/academy-backend/internal/domain"
	domainagg "github.com/shamsacademy/academy-backend/internal/domain/aggregates"
	"github.com/shamsacademy/academy-backend/internal/observability"
	"github.com/shamsacademy/academy-backend/internal/platform/dbctx"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
)

// Certification outcome of a submitted attempt.
const (
	CertificationNotEligible = "not_eligible"
	CertificationIssued      = "issued"
	CertificationFailed      = "failed"
)

const (
	expireBatchSize = 200
	// Time limits are whole minutes, so nothing younger can be overdue.
	minTimeLimit = time.Minute
)

type CertificationOutcome struct {
	Status       string               `json:"status"`
	Certificate  *types.Certificate   `json:"certificate,omitempty"`
	Achievements []*types.Achievement `json:"achievements,omitempty"`
	ErrorCode    string               `json:"error_code,omitempty"`
	ErrorMessage string               `json:"error_message,omitempty"`
}

type SubmitResult struct {
	Attempt       *types.TestAttempt       `json:"attempt"`
	Questions     []*types.QuestionAttempt `json:"questions"`
	EarnedPoints  int                      `json:"earned_points"`
	TotalPoints   int                      `json:"total_points"`
	Passed        bool                     `json:"passed"`
	Certification CertificationOutcome     `json:"certification"`
}

type AttemptService interface {
	Start(ctx context.Context, testID uuid.UUID) (domainagg.StartAttemptResult, error)
	// Submit scores the attempt and, for a passing final test, issues
	// credentials in a second step. A credential failure is reported in
	// the result and never undoes the score.
	Submit(ctx context.Context, attemptID uuid.UUID, answers []domainagg.AnswerInput) (SubmitResult, error)
	// Timeout expires one attempt whose time limit has passed.
	Timeout(ctx context.Context, attemptID uuid.UUID) (*types.TestAttempt, error)
	// ExpireOverdue sweeps every in-progress attempt past its limit.
	ExpireOverdue(ctx context.Context, now time.Time) (int, error)
}

type attemptService struct {
	db       *gorm.DB
	log      *logger.Logger
	attempts domainagg.AttemptAggregate
	certs    domainagg.CertificationAggregate
	repo     repos.TestAttemptRepo
	now      clock

	expireBatch int
}

func NewAttemptService(
	db *gorm.DB,
	baseLog *logger.Logger,
	attempts domainagg.AttemptAggregate,
	certs domainagg.CertificationAggregate,
	attemptRepo repos.TestAttemptRepo,
) AttemptService {
	return &attemptService{
		db:       db,
		log:      baseLog.With("service", "AttemptService"),
		attempts: attempts,
		certs:    certs,
		repo:     attemptRepo,
	}
}

func (s *attemptService) Start(ctx context.Context, testID uuid.UUID) (domainagg.StartAttemptResult, error) {
	id, err := caller(ctx)
	if err != nil {
		return domainagg.StartAttemptResult{}, err
	}
	res, err := s.attempts.Start(ctx, domainagg.StartAttemptInput{
		TestID:    testID,
		StudentID: id.UserID,
		Now:       s.now.now(),
	})
	if err != nil {
		return res, err
	}
	s.log.Info("attempt started", "attempt_id", res.Attempt.ID, "test_id", testID, "student_id", id.UserID)
	return res, nil
}

func (s *attemptService) Submit(ctx context.Context, attemptID uuid.UUID, answers []domainagg.AnswerInput) (SubmitResult, error) {
	id, err := caller(ctx)
	if err != nil {
		return SubmitResult{}, err
	}
	now := s.now.now()
	scored, err := s.attempts.Submit(ctx, domainagg.SubmitAttemptInput{
		AttemptID: attemptID,
		StudentID: id.UserID,
		Answers:   answers,
		Now:       now,
	})
	if err != nil {
		return SubmitResult{}, err
	}

	out := SubmitResult{
		Attempt:       scored.Attempt,
		Questions:     scored.Questions,
		EarnedPoints:  scored.EarnedPoints,
		TotalPoints:   scored.TotalPoints,
		Passed:        scored.Passed,
		Certification: CertificationOutcome{Status: CertificationNotEligible},
	}
	outcome := "failed"
	if scored.Passed {
		outcome = "passed"
	}
	observability.Current().IncAttemptScored(outcome)

	if scored.Test == nil || !scored.Test.IsFinal || !scored.Passed {
		return out, nil
	}

	// Score is committed; credentials are a separate unit of work.
	certified, cerr := s.certs.Certify(context.WithoutCancel(ctx), domainagg.IssueCredentialsInput{
		AttemptID: attemptID,
		StudentID: id.UserID,
		Now:       now,
	})
	if cerr != nil {
		s.log.Error("certification after submit failed",
			"attempt_id", attemptID,
			"student_id", id.UserID,
			"error", cerr,
		)
		out.Certification = CertificationOutcome{
			Status:       CertificationFailed,
			ErrorCode:    string(domainagg.CodeOf(cerr)),
			ErrorMessage: domainagg.MessageOf(cerr),
		}
		return out, nil
	}
	recordIssued(certified)
	out.Certification = CertificationOutcome{
		Status:       CertificationIssued,
		Certificate:  certified.Certificate,
		Achievements: certified.Achievements,
	}
	return out, nil
}

func (s *attemptService) Timeout(ctx context.Context, attemptID uuid.UUID) (*types.TestAttempt, error) {
	res, err := s.attempts.Expire(ctx, domainagg.ExpireAttemptInput{
		AttemptID:      attemptID,
		RequireElapsed: true,
		Now:            s.now.now(),
	})
	if err != nil {
		return nil, err
	}
	if res.Expired {
		observability.Current().AddAttemptsExpired("manual", 1)
	}
	return res.Attempt, nil
}

func (s *attemptService) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	if now.IsZero() {
		now = s.now.now()
	}
	batchSize := s.expireBatch
	if batchSize <= 0 {
		batchSize = expireBatchSize
	}
	expired := 0
	var cursor repos.AttemptCursor
	for {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		batch, err := s.repo.ListInProgressTimed(dbctx.Context{Ctx: ctx}, cursor, now.Add(-minTimeLimit), batchSize)
		if err != nil {
			return expired, fmt.Errorf("list overdue attempts: %w", err)
		}
		for _, a := range batch {
			if a == nil {
				continue
			}
			cursor = repos.CursorAfter(a)
			res, err := s.attempts.Expire(ctx, domainagg.ExpireAttemptInput{
				AttemptID:      a.ID,
				RequireElapsed: true,
				Now:            now,
			})
			if err != nil {
				s.log.Warn("expire attempt failed", "attempt_id", a.ID, "error", err)
				continue
			}
			if res.Expired {
				expired++
			}
		}
		if len(batch) < batchSize {
			break
		}
	}
	if expired > 0 {
		observability.Current().AddAttemptsExpired("sweeper", expired)
		s.log.Info("expired overdue attempts", "count", expired)
	}
	return expired, nil
}

func recordIssued(res domainagg.CertifyResult) {
	m := observability.Current()
	if res.Certificate != nil {
		m.IncCredentialIssued("certificate")
	}
	for _, a := range res.Achievements {
		if a != nil {
			m.IncCredentialIssued("achievement_" + a.Type)
		}
	}
}
