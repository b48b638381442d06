package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aidar/taskflow/internal/domain"
)

// Completer is the chat-completions client used by the assistant
type Completer interface {
	Complete(ctx context.Context, apiKey, system, user string, maxTokens int, temperature float64) (string, error)
	ExtractText(ctx context.Context, apiKey, image string) (string, error)
}

// Language is a supported translation language
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Flag string `json:"flag"`
}

var languages = []Language{
	{Code: "en", Name: "English", Flag: "🇬🇧"},
	{Code: "es", Name: "Spanish", Flag: "🇪🇸"},
	{Code: "fr", Name: "French", Flag: "🇫🇷"},
	{Code: "de", Name: "German", Flag: "🇩🇪"},
	{Code: "it", Name: "Italian", Flag: "🇮🇹"},
	{Code: "pt", Name: "Portuguese", Flag: "🇵🇹"},
	{Code: "ru", Name: "Russian", Flag: "🇷🇺"},
	{Code: "ja", Name: "Japanese", Flag: "🇯🇵"},
	{Code: "ko", Name: "Korean", Flag: "🇰🇷"},
	{Code: "zh", Name: "Chinese (Simplified)", Flag: "🇨🇳"},
	{Code: "ar", Name: "Arabic", Flag: "🇸🇦"},
	{Code: "hi", Name: "Hindi", Flag: "🇮🇳"},
	{Code: "bn", Name: "Bengali", Flag: "🇧🇩"},
	{Code: "ur", Name: "Urdu", Flag: "🇵🇰"},
	{Code: "nl", Name: "Dutch", Flag: "🇳🇱"},
	{Code: "pl", Name: "Polish", Flag: "🇵🇱"},
	{Code: "tr", Name: "Turkish", Flag: "🇹🇷"},
	{Code: "vi", Name: "Vietnamese", Flag: "🇻🇳"},
	{Code: "th", Name: "Thai", Flag: "🇹🇭"},
	{Code: "id", Name: "Indonesian", Flag: "🇮🇩"},
}

// Languages returns the supported translation languages
func Languages() []Language {
	return languages
}

// languageName resolves a code to its name, unknown codes are used as is
func languageName(code string) string {
	for _, l := range languages {
		if l.Code == code {
			return l.Name
		}
	}
	return code
}

// ExtractedTask is a task suggested from free text
type ExtractedTask struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Priority    domain.Priority `json:"priority"`
}

// EventSuggestion is a calendar event generated for a task
type EventSuggestion struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Duration      int    `json:"duration"`
	SuggestedTime string `json:"suggested_time"`
}

// TaskAnalysis is the fallback shape of a task analysis
type TaskAnalysis struct {
	EstimatedTime string          `json:"estimated_time"`
	Priority      domain.Priority `json:"priority"`
	Subtasks      []string        `json:"subtasks"`
	Tips          []string        `json:"tips"`
}

// AssistantService wraps the OpenAI prompts used across the app.
// Every method takes the API key explicitly; KeyFor loads the stored one.
type AssistantService struct {
	ai          Completer
	credentials *CredentialService
}

// NewAssistantService creates a new AssistantService
func NewAssistantService(ai Completer, credentials *CredentialService) *AssistantService {
	return &AssistantService{ai: ai, credentials: credentials}
}

// KeyFor returns the user's stored OpenAI key
func (s *AssistantService) KeyFor(ctx context.Context, email string) (string, error) {
	return s.credentials.OpenAIKey(ctx, email)
}

// Translate translates text to the target language; source "auto" lets the model detect it
func (s *AssistantService) Translate(ctx context.Context, apiKey, text, target, source string) (string, error) {
	if target == "" {
		target = "en"
	}
	sourceName := "the source language"
	if source != "" && source != "auto" {
		sourceName = languageName(source)
	}

	system := fmt.Sprintf(
		"You are a professional translator. Translate the following text from %s to %s. "+
			"Preserve the tone, style, and formatting. Return ONLY the translated text without any explanations or notes.",
		sourceName, languageName(target))
	return s.ai.Complete(ctx, apiKey, system, text, 2000, 0.3)
}

// Enhance rewrites a task description to be specific and actionable
func (s *AssistantService) Enhance(ctx context.Context, apiKey, text string) (string, error) {
	return s.ai.Complete(ctx, apiKey,
		"You are a task management assistant. Enhance task descriptions to be more specific and actionable.",
		fmt.Sprintf("Please enhance this task description: %q", text),
		150, 0.7)
}

// ExtractTasks pulls actionable tasks out of text.
// A reply that is not a JSON array becomes a single task holding the text.
func (s *AssistantService) ExtractTasks(ctx context.Context, apiKey, text string) ([]ExtractedTask, error) {
	reply, err := s.ai.Complete(ctx, apiKey,
		"You are a task extraction assistant. Extract actionable tasks from text and return them as a JSON array with name, description, and priority fields.",
		fmt.Sprintf("Extract tasks from this text: %q", text),
		500, 0.3)
	if err != nil {
		return nil, err
	}

	var tasks []ExtractedTask
	if err := json.Unmarshal([]byte(stripFence(reply)), &tasks); err != nil || len(tasks) == 0 {
		return []ExtractedTask{{Name: text, Description: "AI-extracted task", Priority: domain.PriorityMedium}}, nil
	}
	for i := range tasks {
		if !tasks[i].Priority.Valid() {
			tasks[i].Priority = domain.PriorityMedium
		}
	}
	return tasks, nil
}

// Suggest proposes tasks for the given context
func (s *AssistantService) Suggest(ctx context.Context, apiKey, topic string) (string, error) {
	return s.ai.Complete(ctx, apiKey,
		"You are a productivity assistant. Suggest relevant tasks based on the given context.",
		fmt.Sprintf("Based on this context: %q, suggest 3-5 relevant tasks I should consider.", topic),
		300, 0.7)
}

// CalendarEvent generates an event for a task, falling back to a one hour meeting
func (s *AssistantService) CalendarEvent(ctx context.Context, apiKey, name, description string) (json.RawMessage, error) {
	reply, err := s.ai.Complete(ctx, apiKey,
		`You are a smart calendar assistant. Generate a calendar event based on the task information. Return a JSON object with title, description, duration (in minutes), and suggested_time (relative to now, like "in 1 hour" or "tomorrow at 9am").`,
		fmt.Sprintf("Create a calendar event for this task:\nTitle: %s\nDescription: %s", name, description),
		300, 0.3)
	if err != nil {
		return nil, err
	}

	if raw, ok := jsonObject(reply); ok {
		return raw, nil
	}

	if description == "" {
		description = "Generated from TaskFlow task"
	}
	return json.Marshal(EventSuggestion{
		Title:         "Meeting: " + name,
		Description:   description,
		Duration:      60,
		SuggestedTime: "in 1 hour",
	})
}

// Analyze estimates time, priority, subtasks and tips for a task
func (s *AssistantService) Analyze(ctx context.Context, apiKey, name, description string) (json.RawMessage, error) {
	reply, err := s.ai.Complete(ctx, apiKey,
		"You are a productivity expert. Analyze the task and provide insights including estimated time, priority level, suggested subtasks, and tips for completion. Return a JSON object.",
		fmt.Sprintf("Analyze this task:\nTitle: %s\nDescription: %s", name, description),
		500, 0.4)
	if err != nil {
		return nil, err
	}

	if raw, ok := jsonObject(reply); ok {
		return raw, nil
	}

	return json.Marshal(TaskAnalysis{
		EstimatedTime: "30-60 minutes",
		Priority:      domain.PriorityMedium,
		Subtasks:      []string{"Break down the task", "Plan the approach", "Execute the work"},
		Tips:          []string{"Focus on one thing at a time", "Take breaks when needed"},
	})
}

// OCR extracts text from an image data URL
func (s *AssistantService) OCR(ctx context.Context, apiKey, image string) (string, error) {
	return s.ai.ExtractText(ctx, apiKey, image)
}

// stripFence removes a markdown code fence around a JSON reply
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func jsonObject(reply string) (json.RawMessage, bool) {
	body := stripFence(reply)
	var obj map[string]any
	if err := json.Unmarshal([]byte(body), &obj); err != nil {
		return nil, false
	}
	return json.RawMessage(body), true
}
