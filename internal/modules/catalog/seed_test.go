package catalog

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	domaincatalog "github.com/shamsacademy/academy-backend/internal/domain/catalog"
)

const sample = `
instructor_id: 6f1c1f8e-3d5e-4a43-9b1e-3c7f0f3a2b10
courses:
  - title: Robotics 101
    level: beginner
    price_minor: 15000000
    tests:
      - title: Final exam
        is_final: true
        time_limit_minutes: 30
        questions:
          - type: single_choice
            text: What does a servo do?
            choices:
              - text: Rotates to an angle
                correct: true
              - text: Stores charge
          - type: text
            text: Describe your project
            points: 3
  - title: Intro to Scratch
    published: false
`

func TestParseBuildsModels(t *testing.T) {
	f, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(f.Courses) != 2 {
		t.Fatalf("courses: want=2 got=%d", len(f.Courses))
	}

	paid, err := f.CourseModel(f.Courses[0])
	if err != nil {
		t.Fatalf("CourseModel: %v", err)
	}
	if !paid.IsPaid || paid.PriceMinor != 15000000 || paid.Currency != "UZS" || !paid.IsPublished {
		t.Fatalf("paid course: got=%+v", paid)
	}
	free, _ := f.CourseModel(f.Courses[1])
	if free.IsPaid || free.IsPublished {
		t.Fatalf("free course: want unpaid and unpublished got=%+v", free)
	}

	courseID := uuid.New()
	test := TestModel(courseID, f.Courses[0].Tests[0])
	if test.PassingScore != domaincatalog.DefaultPassingScore {
		t.Fatalf("passing score: want=%d got=%d", domaincatalog.DefaultPassingScore, test.PassingScore)
	}
	if len(test.Questions) != 2 || test.Questions[0].Order != 1 || test.Questions[1].Order != 2 {
		t.Fatalf("questions: got=%+v", test.Questions)
	}
	if test.Questions[0].Points != 1 || test.Questions[1].Points != 3 {
		t.Fatalf("points: want=1,3 got=%d,%d", test.Questions[0].Points, test.Questions[1].Points)
	}
	if !test.Questions[0].Choices[0].IsCorrect || test.Questions[0].Choices[1].IsCorrect {
		t.Fatalf("choices: got=%+v", test.Questions[0].Choices)
	}
}

func TestParseRejectsBadCatalogs(t *testing.T) {
	cases := map[string]string{
		"unknown key": `
courses:
  - title: A
    instructor_id: 6f1c1f8e-3d5e-4a43-9b1e-3c7f0f3a2b10
    prise: 10
`,
		"missing instructor": `
courses:
  - title: A
`,
		"single choice with two correct": `
instructor_id: 6f1c1f8e-3d5e-4a43-9b1e-3c7f0f3a2b10
courses:
  - title: A
    tests:
      - title: T
        questions:
          - type: single_choice
            text: Q
            choices:
              - {text: x, correct: true}
              - {text: y, correct: true}
`,
		"text question with choices": `
instructor_id: 6f1c1f8e-3d5e-4a43-9b1e-3c7f0f3a2b10
courses:
  - title: A
    tests:
      - title: T
        questions:
          - type: text
            text: Q
            choices:
              - {text: x}
`,
		"duplicate course": `
instructor_id: 6f1c1f8e-3d5e-4a43-9b1e-3c7f0f3a2b10
courses:
  - title: A
  - title: A
`,
	}
	for name, doc := range cases {
		if _, err := Parse(strings.NewReader(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestParseEmptyFile(t *testing.T) {
	f, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(f.Courses) != 0 {
		t.Fatalf("courses: want=0 got=%d", len(f.Courses))
	}
}
