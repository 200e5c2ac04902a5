package app

import (
	"gorm.io/gorm"

	"github.com/shamsacademy/academy-backend/internal/data/repos"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
)

type Repos struct {
	User repos.UserRepo

	Course repos.CourseRepo
	Test   repos.TestRepo

	Enrollment repos.EnrollmentRepo
	Payment    repos.PaymentRepo

	TestAttempt     repos.TestAttemptRepo
	QuestionAttempt repos.QuestionAttemptRepo
	ChoiceAttempt   repos.ChoiceAttemptRepo

	Certificate repos.CertificateRepo
	Achievement repos.AchievementRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:            repos.NewUserRepo(db, log),
		Course:          repos.NewCourseRepo(db, log),
		Test:            repos.NewTestRepo(db, log),
		Enrollment:      repos.NewEnrollmentRepo(db, log),
		Payment:         repos.NewPaymentRepo(db, log),
		TestAttempt:     repos.NewTestAttemptRepo(db, log),
		QuestionAttempt: repos.NewQuestionAttemptRepo(db, log),
		ChoiceAttempt:   repos.NewChoiceAttemptRepo(db, log),
		Certificate:     repos.NewCertificateRepo(db, log),
		Achievement:     repos.NewAchievementRepo(db, log),
	}
}
