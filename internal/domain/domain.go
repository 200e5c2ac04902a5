package domain

import (
	"github.com/shamsacademy/academy-backend/internal/domain/assessment"
	"github.com/shamsacademy/academy-backend/internal/domain/billing"
	"github.com/shamsacademy/academy-backend/internal/domain/catalog"
	"github.com/shamsacademy/academy-backend/internal/domain/credentials"
	"github.com/shamsacademy/academy-backend/internal/domain/enrollment"
	"github.com/shamsacademy/academy-backend/internal/domain/user"
)

type (
	User = user.User

	Course   = catalog.Course
	Test     = catalog.Test
	Question = catalog.Question
	Choice   = catalog.Choice

	Enrollment = enrollment.Enrollment

	Payment       = billing.Payment
	PaymentMethod = billing.Method
	PaymentStatus = billing.Status

	TestAttempt     = assessment.TestAttempt
	QuestionAttempt = assessment.QuestionAttempt
	ChoiceAttempt   = assessment.ChoiceAttempt
	AttemptStatus   = assessment.AttemptStatus

	Certificate = credentials.Certificate
	Achievement = credentials.Achievement
)

// Models lists every persisted type in migration order.
func Models() []interface{} {
	return []interface{}{
		&User{},
		&Course{},
		&Test{},
		&Question{},
		&Choice{},
		&Enrollment{},
		&Payment{},
		&TestAttempt{},
		&QuestionAttempt{},
		&ChoiceAttempt{},
		&Certificate{},
		&Achievement{},
	}
}
