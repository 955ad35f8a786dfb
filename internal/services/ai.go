package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/yukikurage/todo-app/internal/constants"
)

type AIService struct {
	client *openai.Client
	model  string
}

// GeneratedTodo mirrors the JSON objects the model is asked to return.
type GeneratedTodo struct {
	Text     string `json:"text"`
	DueDate  string `json:"due_date"`
	Priority string `json:"priority"`
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4o,
	}
}

// GenerateTodosFromText extracts todos from free text using OpenAI chat completions
func (s *AIService) GenerateTodosFromText(ctx context.Context, text string) ([]GeneratedTodo, error) {
	if s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: buildTodoPrompt(time.Now(), text),
				},
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return parseGeneratedTodos(resp.Choices[0].Message.Content)
}

func buildTodoPrompt(now time.Time, text string) string {
	return fmt.Sprintf(`You extract to-do items from text.

Today is %s.

Text:
%s

Return a JSON array of at most %d objects:
[
  {
    "text": "short description of the to-do",
    "due_date": "YYYY-MM-DD, or an empty string when no deadline is stated",
    "priority": "low, medium or high"
  }
]

Rules:
- Return [] when the text contains no to-dos
- Convert relative deadlines ("tomorrow", "next Friday") to concrete dates
- Return JSON only, without commentary`, now.Format(constants.DueDateLayout), text, constants.MaxAIGeneratedTodos)
}

// parseGeneratedTodos accepts the model output with or without a Markdown code fence.
func parseGeneratedTodos(content string) ([]GeneratedTodo, error) {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	}

	var todos []GeneratedTodo
	if err := json.Unmarshal([]byte(trimmed), &todos); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	return todos, nil
}
