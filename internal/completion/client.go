package completion

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	"github.com/qcm-trainer/backend/internal/config"
)

// Message is one turn of a completion conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client is the text-completion collaborator. Implementations return the
// plain text of the reply, already unwrapped from the provider's envelope.
type Client interface {
	Complete(ctx context.Context, messages []Message, maxTokens int) (string, error)
}

// NewClient picks the completion backend from config: the Anthropic API by
// default, a canned mock when MOCK_COMPLETION is set.
func NewClient(cfg config.Config) Client {
	if cfg.MockCompletion {
		log.Println("Completion using mock data")
		return NewMockClient()
	}
	log.Println("Completion using Anthropic API:", cfg.AnthropicModel)
	return NewAPIClient(cfg.AnthropicModel)
}

// ── APIClient — Anthropic SDK ──────────────────────────

type APIClient struct {
	client *anthropic.Client
	model  string
}

func NewAPIClient(model string) *APIClient {
	client := anthropic.NewClient(
		option.WithAPIKey(os.Getenv("ANTHROPIC_API_KEY")),
	)
	return &APIClient{client: &client, model: model}
}

func (c *APIClient) Complete(ctx context.Context, messages []Message, maxTokens int) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(maxTokens),
		Temperature: param.NewOpt(0.7),
		Messages:    toParams(messages),
	}

	message, err := c.callWithRetry(ctx, params)
	if err != nil {
		return "", err
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}

	if responseText == "" {
		return "", fmt.Errorf("no text content in API response")
	}

	return responseText, nil
}

func toParams(messages []Message) []anthropic.MessageParam {
	params := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == "assistant" {
			params = append(params, anthropic.NewAssistantMessage(block))
		} else {
			params = append(params, anthropic.NewUserMessage(block))
		}
	}
	return params
}

func (c *APIClient) callWithRetry(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			sleepDuration := time.Duration(1<<uint(attempt)) * time.Second
			log.Printf("Retrying Anthropic API call in %v (attempt %d)", sleepDuration, attempt+1)
			time.Sleep(sleepDuration)
		}

		message, err := c.client.Messages.New(ctx, params)
		if err == nil {
			return message, nil
		}
		lastErr = err
		log.Printf("Anthropic API attempt %d failed: %v", attempt+1, err)
	}
	return nil, fmt.Errorf("anthropic API failed after retries: %w", lastErr)
}

// ── MockClient — Local Development ─────────────────────

type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Complete(ctx context.Context, messages []Message, maxTokens int) (string, error) {
	return buildMockJSON(6), nil
}

func buildMockJSON(count int) string {
	topics := []string{
		"the narrator's motives", "the central metaphor", "the author's tone",
		"the historical setting", "the closing image", "the opening scene",
	}

	out := "["
	for i := 0; i < count; i++ {
		if i > 0 {
			out += ","
		}
		topic := topics[i%len(topics)]
		out += fmt.Sprintf(
			`{"q":"[Mock] What does the passage suggest about %s?","r":["[Mock] The reading best supported by the text about %s.","[Mock] A claim the text never makes about %s.","[Mock] A detail contradicted by the passage.","[Mock] An idea from outside the passage entirely."]}`,
			topic, topic, topic)
	}
	return out + "]"
}
