package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmylchreest/repost/internal/logger"
)

// ErrEmptyTranslation is returned when the provider answers with nothing
// usable.
var ErrEmptyTranslation = errors.New("empty translation")

const translateSystemPrompt = "You translate news headlines into concise English. " +
	"Reply with the translated headline only: no quotes, no explanation."

// Translator turns headlines into English using a Provider.
type Translator struct {
	provider Provider
}

// NewTranslator creates a translator backed by p.
func NewTranslator(p Provider) *Translator {
	return &Translator{provider: p}
}

// Translate returns text in English. sourceLang is a hint such as "ar" and
// may be empty.
func (t *Translator) Translate(ctx context.Context, text, sourceLang string) (string, error) {
	prompt := text
	if sourceLang != "" {
		prompt = fmt.Sprintf("Source language: %s\n\n%s", sourceLang, text)
	}

	resp, err := t.provider.Execute(ctx, Request{
		Messages: []Message{
			{Role: RoleSystem, Content: translateSystemPrompt},
			{Role: RoleUser, Content: prompt},
		},
		MaxTokens: 128,
	})
	if err != nil {
		return "", err
	}

	out := cleanTranslation(resp.Content)
	if out == "" {
		return "", ErrEmptyTranslation
	}
	logger.Debug("title translated",
		"provider", t.provider.Name(),
		"model", resp.Model,
		"tokens", resp.Usage.InputTokens+resp.Usage.OutputTokens,
		"duration", resp.Duration)
	return out, nil
}

// cleanTranslation keeps the first non-empty line and strips wrapping quotes.
func cleanTranslation(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		return strings.TrimSpace(strings.Trim(line, "\"'“”«»`"))
	}
	return ""
}
