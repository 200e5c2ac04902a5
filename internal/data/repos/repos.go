package repos

import (
	"gorm.io/gorm"

	"github.com/shamsacademy/academy-backend/internal/data/repos/assessment"
	"github.com/shamsacademy/academy-backend/internal/data/repos/billing"
	"github.com/shamsacademy/academy-backend/internal/data/repos/catalog"
	"github.com/shamsacademy/academy-backend/internal/data/repos/credentials"
	"github.com/shamsacademy/academy-backend/internal/data/repos/enrollment"
	"github.com/shamsacademy/academy-backend/internal/data/repos/user"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo

type CourseRepo = catalog.CourseRepo
type TestRepo = catalog.TestRepo

type EnrollmentRepo = enrollment.EnrollmentRepo

type PaymentRepo = billing.PaymentRepo

type TestAttemptRepo = assessment.TestAttemptRepo
type AttemptCursor = assessment.AttemptCursor
type QuestionAttemptRepo = assessment.QuestionAttemptRepo
type ChoiceAttemptRepo = assessment.ChoiceAttemptRepo

type CertificateRepo = credentials.CertificateRepo
type AchievementRepo = credentials.AchievementRepo

// CursorAfter is the sweep position just past an attempt.
var CursorAfter = assessment.CursorAfter

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return catalog.NewCourseRepo(db, baseLog)
}
func NewTestRepo(db *gorm.DB, baseLog *logger.Logger) TestRepo {
	return catalog.NewTestRepo(db, baseLog)
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return enrollment.NewEnrollmentRepo(db, baseLog)
}

func NewPaymentRepo(db *gorm.DB, baseLog *logger.Logger) PaymentRepo {
	return billing.NewPaymentRepo(db, baseLog)
}

func NewTestAttemptRepo(db *gorm.DB, baseLog *logger.Logger) TestAttemptRepo {
	return assessment.NewTestAttemptRepo(db, baseLog)
}
func NewQuestionAttemptRepo(db *gorm.DB, baseLog *logger.Logger) QuestionAttemptRepo {
	return assessment.NewQuestionAttemptRepo(db, baseLog)
}
func NewChoiceAttemptRepo(db *gorm.DB, baseLog *logger.Logger) ChoiceAttemptRepo {
	return assessment.NewChoiceAttemptRepo(db, baseLog)
}

func NewCertificateRepo(db *gorm.DB, baseLog *logger.Logger) CertificateRepo {
	return credentials.NewCertificateRepo(db, baseLog)
}
func NewAchievementRepo(db *gorm.DB, baseLog *logger.Logger) AchievementRepo {
	return credentials.NewAchievementRepo(db, baseLog)
}
