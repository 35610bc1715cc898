package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// DefaultPonsBaseURL is the PONS dictionary API endpoint
const DefaultPonsBaseURL = "https://api.pons.com/v1"

// ponsLanguages is the catalogue of languages PONS dictionaries cover.
// PONS does not expose a listing endpoint.
var ponsLanguages = map[string]string{
	"ar": "arabic",
	"bg": "bulgarian",
	"cs": "czech",
	"da": "danish",
	"de": "german",
	"el": "greek",
	"en": "english",
	"es": "spanish",
	"fr": "french",
	"hu": "hungarian",
	"it": "italian",
	"la": "latin",
	"nl": "dutch",
	"no": "norwegian",
	"pl": "polish",
	"pt": "portuguese",
	"ru": "russian",
	"sl": "slovenian",
	"sv": "swedish",
	"tr": "turkish",
	"zh": "chinese",
}

// LanguageDetector resolves the language of a text sample
type LanguageDetector interface {
	Detect(ctx context.Context, text string) (string, error)
}

// PonsClient queries the PONS dictionary API. PONS is a dictionary, so a
// "translation" is the first target of the first matching entry.
type PonsClient struct {
	secret     string
	baseURL    string
	httpClient *http.Client
	detector   LanguageDetector
	logger     *logrus.Entry
}

type ponsResponse []struct {
	Lang string `json:"lang"`
	Hits []struct {
		Type string `json:"type"`
		Roms []struct {
			Headword string `json:"headword"`
			Arabs    []struct {
				Header       string `json:"header"`
				Translations []struct {
					Source string `json:"source"`
					Target string `json:"target"`
				} `json:"translations"`
			} `json:"arabs"`
		} `json:"roms"`
		// translation hits carry source/target directly
		Source string `json:"source"`
		Target string `json:"target"`
	} `json:"hits"`
}

// NewPonsClient creates a new PONS client. detector is used when the source language is "auto".
func NewPonsClient(secret, baseURL string, httpClient *http.Client, detector LanguageDetector, logger *logrus.Entry) *PonsClient {
	if baseURL == "" {
		baseURL = DefaultPonsBaseURL
	}
	if httpClient == nil {
		httpClient = NewHTTPClient(30 * time.Second)
	}
	return &PonsClient{
		secret:     secret,
		baseURL:    baseURL,
		httpClient: httpClient,
		detector:   detector,
		logger:     logger.WithField("provider", ProviderPons),
	}
}

// Name returns the provider name
func (c *PonsClient) Name() ProviderName {
	return ProviderPons
}

// IsConfigured returns true if the API secret is present
func (c *PonsClient) IsConfigured() bool {
	return c.secret != ""
}

// SupportedLanguages returns the static PONS catalogue
func (c *PonsClient) SupportedLanguages(ctx context.Context) (map[string]string, error) {
	languages := make(map[string]string, len(ponsLanguages))
	for code, name := range ponsLanguages {
		languages[code] = name
	}
	return languages, nil
}

// Translate looks the text up in the PONS dictionary for the language pair
func (c *PonsClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (*TranslationResult, error) {
	start := time.Now()

	if !c.IsConfigured() {
		return nil, fmt.Errorf("PONS API secret not configured")
	}

	if sourceLang == "" || sourceLang == AutoLanguage {
		if c.detector == nil {
			return nil, fmt.Errorf("PONS requires an explicit source language")
		}
		detected, err := c.detector.Detect(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to detect source language: %w", err)
		}
		c.logger.WithField("detected", detected).Debug("Resolved auto source language")
		sourceLang = detected
	}

	if _, ok := ponsLanguages[sourceLang]; !ok {
		return nil, fmt.Errorf("language %q is not supported by PONS", sourceLang)
	}
	if _, ok := ponsLanguages[targetLang]; !ok {
		return nil, fmt.Errorf("language %q is not supported by PONS", targetLang)
	}
	if sourceLang == targetLang {
		return nil, fmt.Errorf("source and target language must differ")
	}

	query := url.Values{}
	query.Set("q", text)
	query.Set("l", ponsDictionary(sourceLang, targetLang))
	query.Set("in", sourceLang)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/dictionary?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("X-Secret", c.secret)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("dictionary request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent, http.StatusNotFound:
		return nil, fmt.Errorf("no translation found for %q", text)
	default:
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("dictionary API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result ponsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	translated := firstPonsTarget(result)
	if translated == "" {
		return nil, fmt.Errorf("no translation found for %q", text)
	}

	return &TranslationResult{
		TranslatedText: translated,
		SourceLang:     sourceLang,
		TargetLang:     targetLang,
		Provider:       ProviderPons,
		Latency:        time.Since(start),
	}, nil
}

// ponsDictionary builds the dictionary code, e.g. "deen" for de<->en
func ponsDictionary(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return pair[0] + pair[1]
}

func firstPonsTarget(result ponsResponse) string {
	for _, lang := range result {
		for _, hit := range lang.Hits {
			if hit.Target != "" {
				if text := stripMarkup(hit.Target); text != "" {
					return text
				}
			}
			for _, rom := range hit.Roms {
				for _, arab := range rom.Arabs {
					for _, tr := range arab.Translations {
						if text := stripMarkup(tr.Target); text != "" {
							return text
						}
					}
				}
			}
		}
	}
	return ""
}

// stripMarkup drops HTML tags from a PONS fragment and collapses whitespace
func stripMarkup(fragment string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(tokenizer.Text())
		}
	}
}
