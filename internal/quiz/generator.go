package quiz

import (
	"context"
	"fmt"
	"log"

	"github.com/qcm-trainer/backend/internal/completion"
	"github.com/qcm-trainer/backend/internal/models"
)

const (
	// MinQuestionCount and MaxQuestionCount bound how many questions one
	// quiz may request.
	MinQuestionCount = 5
	MaxQuestionCount = 50

	// DefaultBatchSize caps how many questions are requested per
	// completion round-trip.
	DefaultBatchSize = 20

	generationMaxTokens = 4000
)

// ProgressFunc reports how many questions have been collected so far.
type ProgressFunc func(collected, target int)

// Generator assembles a target-sized question set through repeated calls to
// the completion collaborator. Batches run strictly one at a time: each
// batch's do-not-repeat list depends on everything collected before it.
type Generator struct {
	client    completion.Client
	batchSize int
}

func NewGenerator(client completion.Client, batchSize int) *Generator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Generator{client: client, batchSize: batchSize}
}

// Generate returns exactly targetCount RawQuestions, or an error. There is
// no partial success: a failure in any batch discards everything collected
// so far, so callers never start a quiz with fewer questions than asked.
func (g *Generator) Generate(ctx context.Context, corpus string, targetCount int, difficulty models.Difficulty, progress ProgressFunc) ([]models.RawQuestion, error) {
	if targetCount < MinQuestionCount || targetCount > MaxQuestionCount {
		return nil, fmt.Errorf("target count %d outside range [%d, %d]", targetCount, MinQuestionCount, MaxQuestionCount)
	}
	if corpus == "" {
		return nil, fmt.Errorf("empty source corpus")
	}

	var collected []models.RawQuestion
	remaining := targetCount

	for remaining > 0 {
		batchSize := min(g.batchSize, remaining)
		remaining -= batchSize

		if progress != nil {
			progress(len(collected), targetCount)
		}

		prompt := BuildQuizPrompt(batchSize, difficulty, prompts(collected), corpus)
		reply, err := g.client.Complete(ctx, []completion.Message{{Role: "user", Content: prompt}}, generationMaxTokens)
		if err != nil {
			return nil, &NetworkError{Err: err}
		}

		batch, err := ParseBatch(reply)
		if err != nil {
			return nil, err
		}

		collected = append(collected, batch...)
		log.Printf("[generator] collected %d/%d questions", len(collected), targetCount)
	}

	if progress != nil {
		progress(len(collected), targetCount)
	}
	return collected, nil
}

func prompts(questions []models.RawQuestion) []string {
	if len(questions) == 0 {
		return nil
	}
	out := make([]string, len(questions))
	for i, q := range questions {
		out[i] = q.Prompt
	}
	return out
}
