package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shamsacademy/academy-backend/internal/data/repos"
	types "github.com/shamsacademy/academy-backend/internal/domain"
	domainagg "github.com/shamsacademy/academy-backend/internal/domain/aggregates"
	"github.com/shamsacademy/academy-backend/internal/domain/assessment"
	grading "github.com/shamsacademy/academy-backend/internal/modules/assessment"
	"github.com/shamsacademy/academy-backend/internal/platform/dbctx"
)

type CertificationAggregateDeps struct {
	Base BaseDeps

	Courses      repos.CourseRepo
	Tests        repos.TestRepo
	Enrollments  repos.EnrollmentRepo
	Attempts     repos.TestAttemptRepo
	Certificates repos.CertificateRepo
	Achievements repos.AchievementRepo
}

type certificationAggregate struct {
	deps CertificationAggregateDeps
}

func NewCertificationAggregate(deps CertificationAggregateDeps) domainagg.CertificationAggregate {
	deps.Base = deps.Base.withDefaults()
	return &certificationAggregate{deps: deps}
}

func (a *certificationAggregate) Contract() domainagg.Contract {
	return domainagg.CertificationAggregateContract
}

func (a *certificationAggregate) IssueCertificate(ctx context.Context, in domainagg.IssueCredentialsInput) (domainagg.IssueCertificateResult, error) {
	const op = "Credentials.Certification.IssueCertificate"
	var out domainagg.IssueCertificateResult
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		src, err := a.eligible(dbc, in)
		if err != nil {
			return err
		}
		out.Certificate, err = a.issueCertificate(dbc, src, now(in.Now))
		return err
	})
	return out, err
}

func (a *certificationAggregate) IssueAchievements(ctx context.Context, in domainagg.IssueCredentialsInput) (domainagg.IssueAchievementsResult, error) {
	const op = "Credentials.Certification.IssueAchievements"
	var out domainagg.IssueAchievementsResult
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		src, err := a.eligible(dbc, in)
		if err != nil {
			return err
		}
		out.Achievements, err = a.issueAchievements(dbc, src, now(in.Now))
		return err
	})
	return out, err
}

func (a *certificationAggregate) Certify(ctx context.Context, in domainagg.IssueCredentialsInput) (domainagg.CertifyResult, error) {
	const op = "Credentials.Certification.Certify"
	var out domainagg.CertifyResult
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		src, err := a.eligible(dbc, in)
		if err != nil {
			return err
		}
		at := now(in.Now)
		cert, err := a.issueCertificate(dbc, src, at)
		if err != nil {
			return err
		}
		achievements, err := a.issueAchievements(dbc, src, at)
		if err != nil {
			return err
		}
		out = domainagg.CertifyResult{Certificate: cert, Achievements: achievements}
		return nil
	})
	return out, err
}

type certificationSource struct {
	attempt *types.TestAttempt
	test    *types.Test
	course  *types.Course
	score   int
}

// eligible loads the attempt and checks it is a completed, passing attempt
// at a final test.
func (a *certificationAggregate) eligible(dbc dbctx.Context, in domainagg.IssueCredentialsInput) (certificationSource, error) {
	var src certificationSource
	if in.AttemptID == uuid.Nil {
		return src, ValidationError("attempt_id is required")
	}
	attempt, err := a.deps.Attempts.LockByID(dbc, in.AttemptID)
	if err != nil {
		return src, err
	}
	if attempt == nil || (in.StudentID != uuid.Nil && attempt.StudentID != in.StudentID) {
		return src, NotFoundError("attempt not found")
	}
	if attempt.Status != assessment.AttemptCompleted || attempt.Score == nil {
		return src, ConflictError("attempt is not completed")
	}
	test, err := a.deps.Tests.GetByID(dbc, attempt.TestID)
	if err != nil {
		return src, err
	}
	if test == nil {
		return src, NotFoundError("test not found")
	}
	if !test.IsFinal {
		return src, ConflictError("only final tests earn a certificate")
	}
	if !grading.Passed(*attempt.Score, test.PassingScore) {
		return src, ConflictError("attempt did not reach the passing score")
	}
	course, err := a.deps.Courses.GetByID(dbc, test.CourseID)
	if err != nil {
		return src, err
	}
	if course == nil {
		return src, NotFoundError("course not found")
	}
	return certificationSource{attempt: attempt, test: test, course: course, score: *attempt.Score}, nil
}

func (a *certificationAggregate) issueCertificate(dbc dbctx.Context, src certificationSource, at time.Time) (*types.Certificate, error) {
	existing, err := a.deps.Certificates.GetByAttempt(dbc, src.attempt.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ConflictError("certificate already issued for this attempt")
	}

	cert, err := a.deps.Certificates.Create(dbc, &types.Certificate{
		StudentID:     src.attempt.StudentID,
		CourseID:      src.course.ID,
		TestAttemptID: src.attempt.ID,
		CertificateID: grading.CertificateID(src.attempt.StudentID, src.course.ID, src.attempt.ID),
		Grade:         grading.GradeFor(src.score),
		Score:         src.score,
		IssuedAt:      at,
		IsValid:       true,
	})
	if err != nil {
		return nil, err
	}

	enr, err := a.deps.Enrollments.GetByStudentAndCourse(dbc, src.attempt.StudentID, src.course.ID)
	if err != nil {
		return nil, err
	}
	if enr != nil && !enr.IsCompleted {
		if err := a.deps.Enrollments.UpdateFields(dbc, enr.ID, map[string]interface{}{"is_completed": true}); err != nil {
			return nil, err
		}
	}
	return cert, nil
}

func (a *certificationAggregate) issueAchievements(dbc dbctx.Context, src certificationSource, at time.Time) ([]*types.Achievement, error) {
	existing, err := a.deps.Achievements.ListBySourceAttempt(dbc, src.attempt.StudentID, src.attempt.ID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, ConflictError("achievements already issued for this attempt")
	}

	courseID := src.course.ID
	attemptID := src.attempt.ID
	specs := grading.AchievementsFor(src.course.Title, src.score)
	rows := make([]*types.Achievement, 0, len(specs))
	for _, s := range specs {
		rows = append(rows, &types.Achievement{
			StudentID:       src.attempt.StudentID,
			CourseID:        &courseID,
			Type:            s.Type,
			SourceAttemptID: &attemptID,
			Title:           s.Title,
			Description:     s.Description,
			Value:           s.Value,
			EarnedAt:        at,
			IsActive:        true,
		})
	}
	// idx_achievement_source turns a concurrent re-issue into a conflict.
	return a.deps.Achievements.Create(dbc, rows)
}
