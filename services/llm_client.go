package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"aura-api/models"
	"aura-api/utils"
)

// GeneratedLesson is lesson content before it is tied to a user and day.
type GeneratedLesson struct {
	Title     string            `json:"title"`
	Content   string            `json:"content"`
	Questions []models.Question `json:"questions"`
}

// LessonGenerator produces lesson content for a topic.
type LessonGenerator interface {
	Generate(ctx context.Context, topic string) (*GeneratedLesson, error)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	MaxTokens      uint32            `json:"max_tokens"`
	Temperature    *float32          `json:"temperature,omitempty"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// LLMClient talks to an OpenAI-compatible chat completions API.
type LLMClient struct {
	BaseURL string
	APIKey  string
	Model   string
	client  *http.Client
}

func NewLLMClient(baseURL, apiKey, model string) *LLMClient {
	return &LLMClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Model:   model,
		client:  utils.NewHTTPClient(45 * time.Second),
	}
}

const lessonSystemPrompt = `You write short daily micro-lessons for a social self-improvement app.
Reply with JSON only: {"title": string, "content": string (markdown, under 300 words),
"questions": [{"prompt": string, "options": [4 strings], "answer": index of the correct option}]}.
Write exactly 3 questions.`

// Generate asks the model for a lesson on topic.
func (c *LLMClient) Generate(ctx context.Context, topic string) (*GeneratedLesson, error) {
	temp := float32(0.7)
	reqBody := chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: lessonSystemPrompt},
			{Role: "user", Content: "Topic: " + topic},
		},
		MaxTokens:      1200,
		Temperature:    &temp,
		ResponseFormat: map[string]string{"type": "json_object"},
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("llm request failed with status %d: %.200s", resp.StatusCode, string(body))
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("llm returned no choices")
	}
	return ParseGeneratedLesson(out.Choices[0].Message.Content)
}

// ParseGeneratedLesson decodes and validates model output. Code fences around
// the JSON are tolerated.
func ParseGeneratedLesson(raw string) (*GeneratedLesson, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var lesson GeneratedLesson
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &lesson); err != nil {
		return nil, fmt.Errorf("lesson is not valid JSON: %w", err)
	}
	if strings.TrimSpace(lesson.Title) == "" || strings.TrimSpace(lesson.Content) == "" {
		return nil, fmt.Errorf("lesson missing title or content")
	}
	if len(lesson.Questions) == 0 {
		return nil, fmt.Errorf("lesson has no questions")
	}
	for i, q := range lesson.Questions {
		if len(q.Options) < 2 || q.Answer < 0 || q.Answer >= len(q.Options) {
			return nil, fmt.Errorf("question %d is malformed", i)
		}
	}
	return &lesson, nil
}
