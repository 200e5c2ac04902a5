package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shamsacademy/academy-backend/internal/data/repos"
	types "github.com/shamsacademy/academy-backend/internal/domain"
	domainagg "github.com/shamsacademy/academy-backend/internal/domain/aggregates"
	catalogseed "github.com/shamsacademy/academy-backend/internal/modules/catalog"
	"github.com/shamsacademy/academy-backend/internal/platform/dbctx"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
)

const (
	defaultCoursePage = 50
	maxCoursePage     = 200
)

type SeedReport struct {
	CoursesCreated int
	CoursesSkipped int
	TestsCreated   int
	TestsSkipped   int
}

type CourseService interface {
	ListPublished(ctx context.Context, level string, limit, offset int) ([]*types.Course, error)
	GetCourse(ctx context.Context, courseID uuid.UUID) (*types.Course, error)
	// GetTest returns a test of a published course with its questions and
	// choices; correct answers are never serialized.
	GetTest(ctx context.Context, testID uuid.UUID) (*types.Test, error)
	// Seed inserts courses and tests that do not exist yet, matched by
	// title. Existing rows are left untouched.
	Seed(ctx context.Context, file *catalogseed.File) (SeedReport, error)
}

type courseService struct {
	db         *gorm.DB
	log        *logger.Logger
	courseRepo repos.CourseRepo
	testRepo   repos.TestRepo
}

func NewCourseService(
	db *gorm.DB,
	baseLog *logger.Logger,
	courseRepo repos.CourseRepo,
	testRepo repos.TestRepo,
) CourseService {
	return &courseService{
		db:         db,
		log:        baseLog.With("service", "CourseService"),
		courseRepo: courseRepo,
		testRepo:   testRepo,
	}
}

func (cs *courseService) ListPublished(ctx context.Context, level string, limit, offset int) ([]*types.Course, error) {
	if limit <= 0 {
		limit = defaultCoursePage
	}
	if limit > maxCoursePage {
		limit = maxCoursePage
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := cs.courseRepo.ListPublished(dbctx.Context{Ctx: ctx}, level, limit, offset)
	if err != nil {
		cs.log.Error("ListPublished failed", "error", err)
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return rows, nil
}

func (cs *courseService) GetCourse(ctx context.Context, courseID uuid.UUID) (*types.Course, error) {
	const op = "Catalog.Course.Get"
	course, err := cs.courseRepo.GetByID(dbctx.Context{Ctx: ctx}, courseID)
	if err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}
	if course == nil || !course.IsPublished {
		return nil, domainagg.NotFound(op, "course not found")
	}
	return course, nil
}

func (cs *courseService) GetTest(ctx context.Context, testID uuid.UUID) (*types.Test, error) {
	const op = "Catalog.Test.Get"
	dbc := dbctx.Context{Ctx: ctx}
	test, err := cs.testRepo.GetWithQuestions(dbc, testID)
	if err != nil {
		return nil, fmt.Errorf("get test: %w", err)
	}
	if test == nil {
		return nil, domainagg.NotFound(op, "test not found")
	}
	course, err := cs.courseRepo.GetByID(dbc, test.CourseID)
	if err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}
	if course == nil || !course.IsPublished {
		return nil, domainagg.NotFound(op, "test not found")
	}
	return test, nil
}

func (cs *courseService) Seed(ctx context.Context, file *catalogseed.File) (SeedReport, error) {
	var report SeedReport
	if file == nil {
		return report, nil
	}
	if err := file.Validate(); err != nil {
		return report, err
	}
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		for _, c := range file.Courses {
			course, err := cs.courseRepo.GetByTitle(dbc, c.Title)
			if err != nil {
				return fmt.Errorf("lookup course %q: %w", c.Title, err)
			}
			if course == nil {
				row, err := file.CourseModel(c)
				if err != nil {
					return fmt.Errorf("course %q: %w", c.Title, err)
				}
				created, err := cs.courseRepo.Create(dbc, []*types.Course{row})
				if err != nil {
					return fmt.Errorf("create course %q: %w", c.Title, err)
				}
				course = created[0]
				report.CoursesCreated++
			} else {
				report.CoursesSkipped++
			}

			for _, t := range c.Tests {
				existing, err := cs.testRepo.GetByCourseAndTitle(dbc, course.ID, t.Title)
				if err != nil {
					return fmt.Errorf("lookup test %q: %w", t.Title, err)
				}
				if existing != nil {
					report.TestsSkipped++
					continue
				}
				if _, err := cs.testRepo.Create(dbc, catalogseed.TestModel(course.ID, t)); err != nil {
					return fmt.Errorf("create test %q: %w", t.Title, err)
				}
				report.TestsCreated++
			}
		}
		return nil
	})
	if err != nil {
		cs.log.Error("catalog seed failed", "error", err)
		return SeedReport{}, err
	}
	cs.log.Info("catalog seeded",
		"courses_created", report.CoursesCreated,
		"courses_skipped", report.CoursesSkipped,
		"tests_created", report.TestsCreated,
		"tests_skipped", report.TestsSkipped,
	)
	return report, nil
}
