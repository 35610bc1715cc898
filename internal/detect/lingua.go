package detect

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	lingua "github.com/pemistahl/lingua-go"
)

// ErrUndetectable is returned when no language can be identified
var ErrUndetectable = errors.New("no language could be detected")

// Detector identifies the language of a text
type Detector interface {
	Detect(ctx context.Context, text string) (string, error)
}

// LinguaDetector detects languages with lingua-go. The underlying detector
// is built on first use since loading models is expensive.
type LinguaDetector struct {
	isoCodes []lingua.IsoCode639_1
	preload  bool

	once     sync.Once
	detector lingua.LanguageDetector
}

// NewLinguaDetector builds a detector restricted to the given ISO 639-1
// codes; an empty list enables every language lingua knows.
func NewLinguaDetector(codes []string, preload bool) (*LinguaDetector, error) {
	var isoCodes []lingua.IsoCode639_1
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		iso := lingua.GetIsoCode639_1FromValue(strings.ToUpper(code))
		if iso == lingua.UnknownIsoCode639_1 {
			return nil, fmt.Errorf("unknown language code %q", code)
		}
		isoCodes = append(isoCodes, iso)
	}
	if len(isoCodes) == 1 {
		return nil, fmt.Errorf("at least two languages are required for detection")
	}

	return &LinguaDetector{isoCodes: isoCodes, preload: preload}, nil
}

// Detect returns the lowercase ISO 639-1 code of the most likely language
func (d *LinguaDetector) Detect(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	sample := strings.TrimSpace(text)
	if sample == "" {
		return "", errors.New("text is empty")
	}

	language, exists := d.get().DetectLanguageOf(sample)
	if !exists {
		return "", ErrUndetectable
	}

	code := strings.ToLower(language.IsoCode639_1().String())
	if len(code) != 2 {
		return "", ErrUndetectable
	}
	return code, nil
}

func (d *LinguaDetector) get() lingua.LanguageDetector {
	d.once.Do(func() {
		var builder lingua.LanguageDetectorBuilder
		if len(d.isoCodes) == 0 {
			builder = lingua.NewLanguageDetectorBuilder().FromAllLanguages()
		} else {
			builder = lingua.NewLanguageDetectorBuilder().FromIsoCodes639_1(d.isoCodes...)
		}
		if d.preload {
			builder = builder.WithPreloadedLanguageModels()
		}
		d.detector = builder.Build()
	})
	return d.detector
}
