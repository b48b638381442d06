package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidar/taskflow/internal/ai"
	"github.com/aidar/taskflow/internal/domain"
)

// fakeCompleter записывает последний запрос и отвечает заданным текстом
type fakeCompleter struct {
	reply string
	err   error

	apiKey    string
	system    string
	user      string
	maxTokens int
	temp      float64
	image     string
}

func (f *fakeCompleter) Complete(_ context.Context, apiKey, system, user string, maxTokens int, temperature float64) (string, error) {
	f.apiKey, f.system, f.user, f.maxTokens, f.temp = apiKey, system, user, maxTokens, temperature
	return f.reply, f.err
}

func (f *fakeCompleter) ExtractText(_ context.Context, apiKey, image string) (string, error) {
	f.apiKey, f.image = apiKey, image
	return f.reply, f.err
}

func newAssistant(t *testing.T, c *fakeCompleter) *AssistantService {
	t.Helper()
	env := newTestEnv(t)
	return NewAssistantService(c, NewCredentialService(env.credentials, env.logger))
}

func TestLanguages(t *testing.T) {
	langs := Languages()
	assert.Len(t, langs, 20)
	assert.Equal(t, "en", langs[0].Code)
	assert.Equal(t, "Japanese", languageName("ja"))
	assert.Equal(t, "xx", languageName("xx"))
}

func TestAssistantService_Translate(t *testing.T) {
	ctx := context.Background()
	c := &fakeCompleter{reply: "Hola"}
	svc := newAssistant(t, c)

	out, err := svc.Translate(ctx, "sk-1", "Hello", "es", "auto")
	require.NoError(t, err)
	assert.Equal(t, "Hola", out)
	assert.Equal(t, "sk-1", c.apiKey)
	assert.Contains(t, c.system, "from the source language to Spanish")
	assert.Equal(t, "Hello", c.user)
	assert.Equal(t, 2000, c.maxTokens)
	assert.Equal(t, 0.3, c.temp)

	_, err = svc.Translate(ctx, "sk-1", "Bonjour", "", "fr")
	require.NoError(t, err)
	assert.Contains(t, c.system, "from French to English")
}

func TestAssistantService_ExtractTasks(t *testing.T) {
	ctx := context.Background()

	t.Run("fenced json", func(t *testing.T) {
		c := &fakeCompleter{reply: "```json\n[{\"name\":\"Book flights\",\"description\":\"For the offsite\",\"priority\":\"urgent\"}]\n```"}
		tasks, err := newAssistant(t, c).ExtractTasks(ctx, "sk-1", "book flights for the offsite")
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, "Book flights", tasks[0].Name)
		assert.Equal(t, domain.PriorityMedium, tasks[0].Priority)
		assert.Equal(t, 500, c.maxTokens)
	})

	t.Run("plain text falls back", func(t *testing.T) {
		c := &fakeCompleter{reply: "Sure! Here are your tasks..."}
		tasks, err := newAssistant(t, c).ExtractTasks(ctx, "sk-1", "clean the garage")
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, "clean the garage", tasks[0].Name)
		assert.Equal(t, "AI-extracted task", tasks[0].Description)
	})

	t.Run("errors pass through", func(t *testing.T) {
		c := &fakeCompleter{err: ai.ErrRateLimited}
		_, err := newAssistant(t, c).ExtractTasks(ctx, "sk-1", "anything")
		assert.ErrorIs(t, err, ai.ErrRateLimited)
	})
}

func TestAssistantService_CalendarEventAndAnalyze(t *testing.T) {
	ctx := context.Background()

	c := &fakeCompleter{reply: `{"title":"Sync","duration":30}`}
	svc := newAssistant(t, c)

	raw, err := svc.CalendarEvent(ctx, "sk-1", "Sync", "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Sync","duration":30}`, string(raw))

	c.reply = "no json here"
	raw, err = svc.CalendarEvent(ctx, "sk-1", "Sync", "")
	require.NoError(t, err)
	var ev EventSuggestion
	require.NoError(t, json.Unmarshal(raw, &ev))
	assert.Equal(t, "Meeting: Sync", ev.Title)
	assert.Equal(t, "Generated from TaskFlow task", ev.Description)
	assert.Equal(t, 60, ev.Duration)

	raw, err = svc.Analyze(ctx, "sk-1", "Sync", "weekly")
	require.NoError(t, err)
	var analysis TaskAnalysis
	require.NoError(t, json.Unmarshal(raw, &analysis))
	assert.Equal(t, "30-60 minutes", analysis.EstimatedTime)
	assert.Len(t, analysis.Subtasks, 3)
	assert.Equal(t, 0.4, c.temp)
}

func TestAssistantService_PromptsAndKey(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	creds := NewCredentialService(env.credentials, env.logger)
	c := &fakeCompleter{reply: "done"}
	svc := NewAssistantService(c, creds)

	_, err := svc.KeyFor(ctx, alice)
	assert.ErrorIs(t, err, domain.ErrNotConfigured)

	key := "sk-stored"
	_, err = creds.Update(ctx, alice, CredentialUpdate{OpenAIKey: &key})
	require.NoError(t, err)
	got, err := svc.KeyFor(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "sk-stored", got)

	_, err = svc.Enhance(ctx, got, "fix bug")
	require.NoError(t, err)
	assert.Equal(t, 150, c.maxTokens)
	assert.Contains(t, c.user, `"fix bug"`)

	_, err = svc.Suggest(ctx, got, "moving house")
	require.NoError(t, err)
	assert.Equal(t, 300, c.maxTokens)
	assert.Equal(t, 0.7, c.temp)

	out, err := svc.OCR(ctx, got, "data:image/png;base64,AAAA")
	require.NoError(t, err)
	assert.Equal(t, "done", out)
	assert.Equal(t, "data:image/png;base64,AAAA", c.image)
}

func TestStripFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, "plain", stripFence("  plain  "))
}
