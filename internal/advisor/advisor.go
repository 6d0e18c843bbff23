// Package advisor talks to Gemini for categorization, free-text entry,
// financial chat and image features.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"carteira/internal/core"
	"carteira/internal/log"
)

var (
	// ErrAdvisorUnavailable wraps every model failure. Callers show a single
	// retry message for it.
	ErrAdvisorUnavailable = errors.New("advisor unavailable")
	ErrNoImage            = errors.New("model returned no image")
	ErrInvalidImage       = errors.New("invalid image data URL")
	ErrEmptyPrompt        = errors.New("empty prompt")
)

const (
	DefaultModel      = "gemini-2.5-flash"
	DefaultImageModel = "gemini-2.5-flash-image"
	DefaultTimeout    = 60 * time.Second
)

// Generator is the one model call the advisor needs. *genai.Models
// satisfies it.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Config struct {
	APIKey     string
	Model      string
	ImageModel string
	Timeout    time.Duration
}

type Advisor struct {
	gen        Generator
	model      string
	imageModel string
	timeout    time.Duration
	logger     *log.Logger
}

// New builds an Advisor backed by the Gemini API.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Advisor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: missing API key", ErrAdvisorUnavailable)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return NewWithGenerator(client.Models, cfg, logger), nil
}

func NewWithGenerator(gen Generator, cfg Config, logger *log.Logger) *Advisor {
	if logger == nil {
		logger = log.Discard()
	}
	a := &Advisor{
		gen:        gen,
		model:      cfg.Model,
		imageModel: cfg.ImageModel,
		timeout:    cfg.Timeout,
		logger:     logger.WithComponent(log.ComponentAdvisor),
	}
	if a.model == "" {
		a.model = DefaultModel
	}
	if a.imageModel == "" {
		a.imageModel = DefaultImageModel
	}
	if a.timeout <= 0 {
		a.timeout = DefaultTimeout
	}
	return a
}

// generate runs one model call under the advisor's timeout and wraps any
// failure in ErrAdvisorUnavailable.
func (a *Advisor) generate(ctx context.Context, op, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	resp, err := a.gen.GenerateContent(ctx, model, contents, cfg)
	dur := time.Since(start).Milliseconds()
	if err != nil {
		a.logger.ErrorContext(ctx, "Model call failed",
			log.FieldOperation, op, log.FieldModel, model, log.FieldDuration, dur, log.FieldError, err.Error())
		return nil, fmt.Errorf("%w: %s: %v", ErrAdvisorUnavailable, op, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: %s: empty response", ErrAdvisorUnavailable, op)
	}
	a.logger.DebugContext(ctx, "Model call completed",
		log.FieldOperation, op, log.FieldModel, model, log.FieldDuration, dur)
	return resp, nil
}

func userText(texts ...string) []*genai.Content {
	parts := make([]*genai.Part, 0, len(texts))
	for _, t := range texts {
		parts = append(parts, &genai.Part{Text: t})
	}
	return []*genai.Content{{Role: "user", Parts: parts}}
}

// Categorize asks the model for one of the fixed categories. Any failure or
// unexpected answer yields CategoryOther.
func (a *Advisor) Categorize(ctx context.Context, description string, amount core.Money) core.Category {
	if strings.TrimSpace(description) == "" {
		return core.CategoryOther
	}
	resp, err := a.generate(ctx, log.OpCategory, a.model,
		userText(categorizePrompt(description, amount)), nil)
	if err != nil {
		return core.CategoryOther
	}
	answer := strings.Trim(strings.TrimSpace(resp.Text()), `"'.`)
	if c := core.Category(answer); c.Valid() {
		return c
	}
	a.logger.DebugContext(ctx, "Unexpected category answer", log.FieldOperation, log.OpCategory, "answer", answer)
	return core.CategoryOther
}

// Message is one turn of a chat history. Role is "user" or "model".
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Chat answers message in the context of the user's transactions.
func (a *Advisor) Chat(ctx context.Context, message string, history []Message, contextJSON string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyPrompt
	}
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		if strings.TrimSpace(m.Text) == "" {
			continue
		}
		role := "user"
		if m.Role == "model" || m.Role == "assistant" {
			role = "model"
		}
		contents = append(contents, &genai.Content{Role: role, Parts: []*genai.Part{{Text: m.Text}}})
	}
	contents = append(contents, userText(message)...)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: chatInstruction(contextJSON)}}},
	}
	resp, err := a.generate(ctx, log.OpChat, a.model, contents, cfg)
	if err != nil {
		return "", err
	}
	if text := strings.TrimSpace(resp.Text()); text != "" {
		return text, nil
	}
	return chatFallback, nil
}

// HealthCheck returns a short three-point review of the user's finances.
func (a *Advisor) HealthCheck(ctx context.Context, contextJSON string) (string, error) {
	resp, err := a.generate(ctx, log.OpHealth, a.model, userText(healthPrompt(contextJSON)), nil)
	if err != nil {
		return "", err
	}
	if text := strings.TrimSpace(resp.Text()); text != "" {
		return text, nil
	}
	return healthFallback, nil
}
