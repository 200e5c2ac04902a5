package aggregates

import (
	"context"

	"github.com/google/uuid"

	"github.com/shamsacademy/academy-backend/internal/data/repos"
	types "github.com/shamsacademy/academy-backend/internal/domain"
	domainagg "github.com/shamsacademy/academy-backend/internal/domain/aggregates"
	"github.com/shamsacademy/academy-backend/internal/domain/enrollment"
	"github.com/shamsacademy/academy-backend/internal/platform/dbctx"
)

type EnrollmentAggregateDeps struct {
	Base BaseDeps

	Courses     repos.CourseRepo
	Enrollments repos.EnrollmentRepo
}

type enrollmentAggregate struct {
	deps EnrollmentAggregateDeps
}

func NewEnrollmentAggregate(deps EnrollmentAggregateDeps) domainagg.EnrollmentAggregate {
	deps.Base = deps.Base.withDefaults()
	return &enrollmentAggregate{deps: deps}
}

func (a *enrollmentAggregate) Contract() domainagg.Contract {
	return domainagg.EnrollmentAggregateContract
}

func (a *enrollmentAggregate) Enroll(ctx context.Context, in domainagg.EnrollInput) (domainagg.EnrollResult, error) {
	const op = "Learning.Enrollment.Enroll"
	var out domainagg.EnrollResult
	if in.StudentID == uuid.Nil || in.CourseID == uuid.Nil {
		return out, MapError(op, ValidationError("student_id and course_id are required"))
	}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		course, err := a.deps.Courses.GetByID(dbc, in.CourseID)
		if err != nil {
			return err
		}
		if course == nil || !course.IsPublished {
			return NotFoundError("course not found")
		}

		existing, err := a.deps.Enrollments.GetByStudentAndCourse(dbc, in.StudentID, in.CourseID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ConflictError("already enrolled in this course")
		}

		row := &types.Enrollment{
			StudentID:     in.StudentID,
			CourseID:      in.CourseID,
			EnrolledAt:    now(in.Now),
			PaymentStatus: enrollment.PaymentPending,
		}
		if !course.RequiresPayment() {
			row.PaymentStatus = enrollment.PaymentCompleted
		}
		// The (student, course) unique index backs the check above.
		created, err := a.deps.Enrollments.Create(dbc, row)
		if err != nil {
			return err
		}
		out.Enrollment = created
		return nil
	})
	return out, err
}
