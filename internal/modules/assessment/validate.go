package assessment

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/shamsacademy/academy-backend/internal/domain/catalog"
)

// IndexAnswers checks that every answer targets a question of the test and
// only names choices of that question, and indexes answers by question id.
func IndexAnswers(questions []catalog.Question, answers []Answer) (map[uuid.UUID]Answer, error) {
	byQuestion := make(map[uuid.UUID]catalog.Question, len(questions))
	for _, q := range questions {
		byQuestion[q.ID] = q
	}

	out := make(map[uuid.UUID]Answer, len(answers))
	for _, a := range answers {
		q, ok := byQuestion[a.QuestionID]
		if !ok {
			return nil, fmt.Errorf("question %s does not belong to this test", a.QuestionID)
		}
		if _, dup := out[a.QuestionID]; dup {
			return nil, fmt.Errorf("question %s answered more than once", a.QuestionID)
		}
		if len(a.ChoiceIDs) > 0 {
			if !catalog.IsChoiceQuestion(q.Type) {
				return nil, fmt.Errorf("question %s does not take choices", a.QuestionID)
			}
			own := make(map[uuid.UUID]struct{}, len(q.Choices))
			for _, c := range q.Choices {
				own[c.ID] = struct{}{}
			}
			for _, id := range a.ChoiceIDs {
				if _, ok := own[id]; !ok {
					return nil, fmt.Errorf("choice %s does not belong to question %s", id, a.QuestionID)
				}
			}
		}
		out[a.QuestionID] = a
	}
	return out, nil
}
