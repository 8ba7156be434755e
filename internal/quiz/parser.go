package quiz

import (
	"encoding/json"
	"fmt"

	"github.com/qcm-trainer/backend/internal/completion"
	"github.com/qcm-trainer/backend/internal/models"
)

// wireQuestion is the collaborator's wire shape: the prompt under "q" and
// the four options under "r", correct option first.
type wireQuestion struct {
	Q string   `json:"q"`
	R []string `json:"r"`
}

// ParseBatch turns one completion reply into RawQuestions. Any structural
// problem (unparseable JSON, wrong shape, wrong option count) comes back
// as a *MalformedResponseError so the caller can abort the whole generation.
func ParseBatch(responseBody string) ([]models.RawQuestion, error) {
	payload, err := completion.ExtractJSON(responseBody)
	if err != nil {
		return nil, &MalformedResponseError{Reason: "no JSON payload", Err: err}
	}

	var items []wireQuestion
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		return nil, &MalformedResponseError{Reason: "not a question array", Err: err}
	}

	if len(items) == 0 {
		return nil, &MalformedResponseError{Reason: "empty question array"}
	}

	questions := make([]models.RawQuestion, 0, len(items))
	for i, item := range items {
		if item.Q == "" {
			return nil, &MalformedResponseError{Reason: fmt.Sprintf("question %d: empty prompt", i+1)}
		}
		if len(item.R) != models.OptionCount {
			return nil, &MalformedResponseError{
				Reason: fmt.Sprintf("question %d: expected %d options, got %d", i+1, models.OptionCount, len(item.R)),
			}
		}
		questions = append(questions, models.RawQuestion{
			Prompt:        item.Q,
			Options:       item.R,
			CorrectOption: 0,
		})
	}

	return questions, nil
}
