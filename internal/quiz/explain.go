package quiz

import (
	"context"
	"log"

	"github.com/qcm-trainer/backend/internal/completion"
)

// FallbackExplanation is shown when the collaborator cannot produce one.
// Explanation failures never interrupt the quiz flow.
const FallbackExplanation = "Sorry, no explanation is available right now. The correct answer is highlighted above."

const explanationMaxTokens = 600

// Explainer asks the completion collaborator to justify a correct answer
// against what the student chose. It is independent of session state and
// may be called any number of times per question.
type Explainer struct {
	client completion.Client
}

func NewExplainer(client completion.Client) *Explainer {
	return &Explainer{client: client}
}

func (e *Explainer) Explain(ctx context.Context, prompt, correctText, chosenText string) string {
	message := completion.Message{
		Role:    "user",
		Content: BuildExplanationPrompt(prompt, correctText, chosenText),
	}

	reply, err := e.client.Complete(ctx, []completion.Message{message}, explanationMaxTokens)
	if err != nil {
		log.Printf("WARN: explanation request failed: %v", err)
		return FallbackExplanation
	}
	if reply == "" {
		return FallbackExplanation
	}
	return reply
}
