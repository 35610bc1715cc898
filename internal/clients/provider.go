package clients

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ProviderName identifies a translation provider
type ProviderName string

const (
	ProviderGoogle    ProviderName = "google"
	ProviderMicrosoft ProviderName = "microsoft"
	ProviderPons      ProviderName = "pons"
)

// AutoLanguage is the source language sentinel asking the provider to detect the source
const AutoLanguage = "auto"

// ErrUnsupportedProvider is returned for provider names outside the known set
var ErrUnsupportedProvider = errors.New("unsupported translator")

// AllProviders lists every provider the gateway can dispatch to
func AllProviders() []ProviderName {
	return []ProviderName{ProviderGoogle, ProviderMicrosoft, ProviderPons}
}

// ParseProviderName validates a raw provider identifier
func ParseProviderName(raw string) (ProviderName, error) {
	switch name := ProviderName(raw); name {
	case ProviderGoogle, ProviderMicrosoft, ProviderPons:
		return name, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, raw)
	}
}

// TranslationProvider defines the interface that all translation providers must implement
type TranslationProvider interface {
	// Name returns the provider's identifier
	Name() ProviderName

	// Translate translates text from source to target language.
	// sourceLang may be AutoLanguage.
	Translate(ctx context.Context, text, sourceLang, targetLang string) (*TranslationResult, error)

	// SupportedLanguages returns language code to display name
	SupportedLanguages(ctx context.Context) (map[string]string, error)
}

// ProviderFactory builds a fresh provider handle
type ProviderFactory func() TranslationProvider

// TranslationResult represents the result of a translation
type TranslationResult struct {
	TranslatedText string        `json:"translated_text"`
	SourceLang     string        `json:"source_lang"`
	TargetLang     string        `json:"target_lang"`
	Provider       ProviderName  `json:"provider"`
	Latency        time.Duration `json:"latency"`
}

// ProviderError wraps a failure reported by (or on the way to) an upstream provider
type ProviderError struct {
	Provider ProviderName
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func newProviderError(provider ProviderName, op string, err error) error {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Provider: provider, Op: op, Err: err}
}
