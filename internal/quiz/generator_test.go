package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/qcm-trainer/backend/internal/completion"
)

// scriptedClient replays one canned reply (or error) per call and keeps
// every prompt it was sent.
type scriptedClient struct {
	replies []string
	errs    []error
	prompts []string
}

func (c *scriptedClient) Complete(ctx context.Context, messages []completion.Message, maxTokens int) (string, error) {
	call := len(c.prompts)
	c.prompts = append(c.prompts, messages[len(messages)-1].Content)

	if call < len(c.errs) && c.errs[call] != nil {
		return "", c.errs[call]
	}
	if call < len(c.replies) {
		return c.replies[call], nil
	}
	return "", fmt.Errorf("unexpected call %d", call+1)
}

func TestGenerate_SingleBatch(t *testing.T) {
	client := &scriptedClient{replies: []string{validBatchJSON(10)}}
	gen := NewGenerator(client, DefaultBatchSize)

	questions, err := gen.Generate(context.Background(), "corpus", 10, "mixed", nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(questions) != 10 {
		t.Errorf("expected 10 questions, got %d", len(questions))
	}
	if len(client.prompts) != 1 {
		t.Errorf("expected 1 completion call, got %d", len(client.prompts))
	}
}

func TestGenerate_SplitsIntoBatches(t *testing.T) {
	client := &scriptedClient{replies: []string{
		validBatchJSON(20),
		validBatchJSON(20),
		validBatchJSON(10),
	}}
	gen := NewGenerator(client, DefaultBatchSize)

	questions, err := gen.Generate(context.Background(), "corpus", 50, "mixed", nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(questions) != 50 {
		t.Errorf("expected 50 questions, got %d", len(questions))
	}
	if len(client.prompts) != 3 {
		t.Fatalf("expected 3 completion calls, got %d", len(client.prompts))
	}

	if !strings.Contains(client.prompts[0], "Generate EXACTLY 20") {
		t.Error("first batch should request 20 questions")
	}
	if !strings.Contains(client.prompts[2], "Generate EXACTLY 10") {
		t.Error("last batch should request the 10-question remainder")
	}
}

func TestGenerate_LaterBatchesCarryPriorPrompts(t *testing.T) {
	client := &scriptedClient{replies: []string{
		validBatchJSON(20),
		validBatchJSON(5),
	}}
	gen := NewGenerator(client, DefaultBatchSize)

	if _, err := gen.Generate(context.Background(), "corpus", 25, "mixed", nil); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if strings.Contains(client.prompts[0], "Do not repeat") {
		t.Error("first batch should carry no prior prompts")
	}
	if !strings.Contains(client.prompts[1], "Do not repeat any of these questions:") {
		t.Error("second batch should carry the do-not-repeat list")
	}
	if !strings.Contains(client.prompts[1], "20. Question 20 about the passage?") {
		t.Error("second batch should list all 20 collected prompts")
	}
}

func TestGenerate_NetworkFailureDiscardsEverything(t *testing.T) {
	client := &scriptedClient{
		replies: []string{validBatchJSON(20), ""},
		errs:    []error{nil, errors.New("connection reset")},
	}
	gen := NewGenerator(client, DefaultBatchSize)

	questions, err := gen.Generate(context.Background(), "corpus", 40, "mixed", nil)
	if questions != nil {
		t.Error("a failed batch must not return partial questions")
	}
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got: %v", err)
	}
}

func TestGenerate_MalformedBatchDiscardsEverything(t *testing.T) {
	client := &scriptedClient{replies: []string{
		validBatchJSON(20),
		"I'm sorry, I cannot help with that.",
	}}
	gen := NewGenerator(client, DefaultBatchSize)

	questions, err := gen.Generate(context.Background(), "corpus", 30, "mixed", nil)
	if questions != nil {
		t.Error("a malformed batch must not return partial questions")
	}
	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedResponseError, got: %v", err)
	}
}

func TestGenerate_CountOutOfRange(t *testing.T) {
	gen := NewGenerator(&scriptedClient{}, DefaultBatchSize)

	for _, count := range []int{0, 4, 51, -3} {
		if _, err := gen.Generate(context.Background(), "corpus", count, "mixed", nil); err == nil {
			t.Errorf("count %d: expected range error", count)
		}
	}
}

func TestGenerate_EmptyCorpus(t *testing.T) {
	gen := NewGenerator(&scriptedClient{}, DefaultBatchSize)

	if _, err := gen.Generate(context.Background(), "", 10, "mixed", nil); err == nil {
		t.Error("expected error for empty corpus")
	}
}

func TestGenerate_ReportsProgress(t *testing.T) {
	client := &scriptedClient{replies: []string{
		validBatchJSON(20),
		validBatchJSON(5),
	}}
	gen := NewGenerator(client, DefaultBatchSize)

	var reports [][2]int
	_, err := gen.Generate(context.Background(), "corpus", 25, "mixed", func(collected, target int) {
		reports = append(reports, [2]int{collected, target})
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	want := [][2]int{{0, 25}, {20, 25}, {25, 25}}
	if len(reports) != len(want) {
		t.Fatalf("expected %d progress reports, got %d: %v", len(want), len(reports), reports)
	}
	for i, r := range want {
		if reports[i] != r {
			t.Errorf("report %d: expected %v, got %v", i, r, reports[i])
		}
	}
}
