package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aura-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var threeQuestions = []models.Question{
	{Prompt: "a", Options: []string{"x", "y"}, Answer: 0},
	{Prompt: "b", Options: []string{"x", "y"}, Answer: 1},
	{Prompt: "c", Options: []string{"x", "y", "z"}, Answer: 2},
}

func TestGrade(t *testing.T) {
	score, err := Grade(threeQuestions, []int{0, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, 3, score)

	score, err = Grade(threeQuestions, []int{0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 1, score)

	_, err = Grade(threeQuestions, []int{0, 1})
	assert.True(t, IsValidation(err))
}

func TestPassed(t *testing.T) {
	assert.True(t, Passed(2, 3))
	assert.False(t, Passed(1, 3))
	assert.True(t, Passed(3, 5))
	assert.False(t, Passed(0, 0))
}

func TestLessonFailedErrorMatchesSentinel(t *testing.T) {
	var err error = &LessonFailedError{Score: 1, Total: 3}
	assert.ErrorIs(t, err, ErrLessonFailed)
	assert.Contains(t, err.Error(), "1/3")
}

func TestToViewHidesAnswers(t *testing.T) {
	l := &models.Lesson{
		ID:         "l-1",
		Title:      "Stablecoins",
		LessonDate: time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC),
		Questions:  threeQuestions,
	}
	view := ToView(l, true)
	assert.Equal(t, "2026-04-02", view.LessonDate)
	assert.True(t, view.Completed)
	require.Len(t, view.Questions, 3)

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"answer"`)
}

func TestTopicForIsStablePerDay(t *testing.T) {
	day := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	first := TopicFor("user-a", day)
	assert.Equal(t, first, TopicFor("user-a", day))
	assert.Contains(t, LessonTopics, first)
	assert.NotEqual(t, first, TopicFor("user-a", day.AddDate(0, 0, 1)))
}

func TestFallbackBankCoversEveryTopic(t *testing.T) {
	for _, topic := range LessonTopics {
		l, ok := fallbackLessons[topic]
		require.True(t, ok, "missing fallback for %q", topic)
		raw, err := json.Marshal(l)
		require.NoError(t, err)
		_, err = ParseGeneratedLesson(string(raw))
		assert.NoError(t, err, topic)
	}
	assert.Equal(t, fallbackLessons[LessonTopics[0]].Title, fallbackLesson("unknown").Title)
}

func TestParseGeneratedLesson(t *testing.T) {
	good := "```json\n" + `{"title":"Gas","content":"Fees pay validators.","questions":[{"prompt":"Gas pays","options":["a","b"],"answer":1}]}` + "\n```"
	l, err := ParseGeneratedLesson(good)
	require.NoError(t, err)
	assert.Equal(t, "Gas", l.Title)
	assert.Equal(t, 1, l.Questions[0].Answer)

	bad := []string{
		`not json`,
		`{"title":"","content":"x","questions":[{"prompt":"p","options":["a","b"],"answer":0}]}`,
		`{"title":"t","content":"x","questions":[]}`,
		`{"title":"t","content":"x","questions":[{"prompt":"p","options":["a","b"],"answer":2}]}`,
		`{"title":"t","content":"x","questions":[{"prompt":"p","options":["a"],"answer":0}]}`,
	}
	for _, raw := range bad {
		_, err := ParseGeneratedLesson(raw)
		assert.Error(t, err, raw)
	}
}

func TestLLMClientGenerate(t *testing.T) {
	lesson := `{"title":"Keys","content":"Keep them safe.","questions":[{"prompt":"Share your seed?","options":["yes","no"],"answer":1}]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, "json_object", req.ResponseFormat["type"])
		assert.Equal(t, "Topic: stablecoins", req.Messages[1].Content)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": lesson}},
			},
		})
	}))
	defer srv.Close()

	client := NewLLMClient(srv.URL+"/v1/", "sk-test", "test-model")
	got, err := client.Generate(context.Background(), "stablecoins")
	require.NoError(t, err)
	assert.Equal(t, "Keys", got.Title)
	require.Len(t, got.Questions, 1)
}

func TestLLMClientGenerateHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewLLMClient(srv.URL, "k", "m").Generate(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

type failingGenerator struct{ calls int }

func (f *failingGenerator) Generate(ctx context.Context, topic string) (*GeneratedLesson, error) {
	f.calls++
	return nil, errors.New("model offline")
}

func TestGenerateFallsBackToBank(t *testing.T) {
	gen := &failingGenerator{}
	svc := NewLessonService(nil, gen, nil)
	day := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	l, source := svc.generate(context.Background(), "user-a", day)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, models.LessonSourceFallback, source)
	assert.Equal(t, fallbackLesson(TopicFor("user-a", day)).Title, l.Title)

	svc.Generator = nil
	_, source = svc.generate(context.Background(), "user-a", day)
	assert.Equal(t, models.LessonSourceFallback, source)
}

func TestCompleteRejectsBadLessonID(t *testing.T) {
	svc := NewLessonService(nil, nil, nil)
	_, err := svc.Complete(context.Background(), "u", "not-a-uuid", []int{0})
	assert.True(t, IsValidation(err))
}
