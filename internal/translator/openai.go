package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/MimeLyc/dialogue-translator/internal/mask"
)

// OpenAIConfig configures an OpenAI compatible chat completion backend.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
}

// OpenAITranslator translates one dialogue fragment per chat completion.
type OpenAITranslator struct {
	client      *openai.Client
	model       string
	temperature float32
}

func NewOpenAITranslator(cfg OpenAIConfig) *OpenAITranslator {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}

	return &OpenAITranslator{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: temperature,
	}
}

func (t *OpenAITranslator) Translate(ctx context.Context, text string, opts Options, restore mask.Table) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildSystemPrompt(opts, restore)},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: t.temperature,
	})
	if err != nil {
		return "", &Error{
			Message:   "chat completion failed",
			Cause:     err,
			Retryable: isRetryableError(err),
		}
	}
	if len(resp.Choices) == 0 {
		return "", &Error{Message: "empty chat completion", Retryable: true}
	}

	return cleanOutput(resp.Choices[0].Message.Content), nil
}

func buildSystemPrompt(opts Options, restore mask.Table) string {
	source := languageName(opts.SourceLang, "Japanese")
	target := languageName(opts.TargetLang, "Chinese")

	var prompt strings.Builder
	prompt.WriteString("You are a professional game localization translator. Translate one line of character dialogue from " + source + " to " + target + ".\n\n")

	prompt.WriteString("=== TRANSLATION GUIDELINES ===\n")
	prompt.WriteString("1. Keep the speaker's voice and tone\n")
	prompt.WriteString("2. Ensure " + target + " flows naturally while preserving meaning\n")
	prompt.WriteString("3. Keep {0}, {1}, ... value markers exactly as they appear\n")

	if restore.Len() > 0 {
		prompt.WriteString("\n=== PLACEHOLDERS ===\n")
		prompt.WriteString("The uppercase codes below stand for names and terms that are already translated. Copy every code verbatim, never translate, split or change its case:\n")
		for _, p := range restore {
			prompt.WriteString(fmt.Sprintf("- %s = %s\n", p.Code, p.Value))
		}
	}

	prompt.WriteString("\n=== OUTPUT FORMAT ===\n")
	prompt.WriteString("Return ONLY the translated line.\n")
	prompt.WriteString("Do not include any explanations, notes, quotes or additional text.\n")

	return prompt.String()
}

func languageName(tag language.Tag, fallback string) string {
	if tag == language.Und {
		return fallback
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return fallback
}

// cleanOutput drops wrapping whitespace and the double quotes models like to
// add. Corner brackets are dialogue punctuation and are kept.
func cleanOutput(s string) string {
	s = strings.TrimSpace(s)
	for _, pair := range [][2]string{{`"`, `"`}, {"“", "”"}} {
		if len(s) >= len(pair[0])+len(pair[1]) && strings.HasPrefix(s, pair[0]) && strings.HasSuffix(s, pair[1]) {
			inner := s[len(pair[0]) : len(s)-len(pair[1])]
			if !strings.Contains(inner, pair[0]) {
				return strings.TrimSpace(inner)
			}
		}
	}
	return s
}

func isRetryableError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{"rate limit", "timeout", "connection refused", "temporary", "503", "502", "429"} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

var _ Translator = (*OpenAITranslator)(nil)
