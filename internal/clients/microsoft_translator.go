package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultMicrosoftBaseURL is the global Microsoft Translator endpoint
const DefaultMicrosoftBaseURL = "https://api.cognitive.microsofttranslator.com"

const microsoftAPIVersion = "3.0"

// MicrosoftTranslatorClient talks to the Microsoft Translator v3 REST API
type MicrosoftTranslatorClient struct {
	apiKey     string
	region     string
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Entry
}

type microsoftTextItem struct {
	Text string `json:"Text"`
}

type microsoftTranslateItem struct {
	DetectedLanguage *struct {
		Language string  `json:"language"`
		Score    float64 `json:"score"`
	} `json:"detectedLanguage,omitempty"`
	Translations []struct {
		Text string `json:"text"`
		To   string `json:"to"`
	} `json:"translations"`
}

type microsoftErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type microsoftLanguagesResponse struct {
	Translation map[string]struct {
		Name       string `json:"name"`
		NativeName string `json:"nativeName"`
		Dir        string `json:"dir"`
	} `json:"translation"`
}

// NewMicrosoftTranslatorClient creates a new Microsoft Translator client
func NewMicrosoftTranslatorClient(apiKey, region, baseURL string, httpClient *http.Client, logger *logrus.Entry) *MicrosoftTranslatorClient {
	if baseURL == "" {
		baseURL = DefaultMicrosoftBaseURL
	}
	if httpClient == nil {
		httpClient = NewHTTPClient(30 * time.Second)
	}
	return &MicrosoftTranslatorClient{
		apiKey:     apiKey,
		region:     region,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger.WithField("provider", ProviderMicrosoft),
	}
}

// Name returns the provider name
func (c *MicrosoftTranslatorClient) Name() ProviderName {
	return ProviderMicrosoft
}

// IsConfigured returns true if a subscription key is present
func (c *MicrosoftTranslatorClient) IsConfigured() bool {
	return c.apiKey != ""
}

// Translate translates text from source to target language
func (c *MicrosoftTranslatorClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (*TranslationResult, error) {
	start := time.Now()

	if !c.IsConfigured() {
		return nil, fmt.Errorf("Microsoft Translator API key not configured")
	}

	query := url.Values{}
	query.Set("api-version", microsoftAPIVersion)
	query.Set("to", targetLang)
	if sourceLang != "" && sourceLang != AutoLanguage {
		query.Set("from", sourceLang)
	}

	body, err := json.Marshal([]microsoftTextItem{{Text: text}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/translate?"+query.Encode(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)
	if c.region != "" {
		httpReq.Header.Set("Ocp-Apim-Subscription-Region", c.region)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("translation request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr microsoftErrorResponse
		if json.Unmarshal(bodyBytes, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("Microsoft API error %d: %s", apiErr.Error.Code, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("translation API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var items []microsoftTranslateItem
	if err := json.Unmarshal(bodyBytes, &items); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(items) == 0 || len(items[0].Translations) == 0 {
		return nil, fmt.Errorf("no translation returned")
	}

	detectedSource := sourceLang
	if (sourceLang == "" || sourceLang == AutoLanguage) && items[0].DetectedLanguage != nil {
		detectedSource = items[0].DetectedLanguage.Language
	}

	return &TranslationResult{
		TranslatedText: items[0].Translations[0].Text,
		SourceLang:     detectedSource,
		TargetLang:     targetLang,
		Provider:       ProviderMicrosoft,
		Latency:        time.Since(start),
	}, nil
}

// SupportedLanguages lists translation languages. The endpoint is public and needs no key.
func (c *MicrosoftTranslatorClient) SupportedLanguages(ctx context.Context) (map[string]string, error) {
	query := url.Values{}
	query.Set("api-version", microsoftAPIVersion)
	query.Set("scope", "translation")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/languages?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept-Language", "en")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("languages request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("languages API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result microsoftLanguagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Translation) == 0 {
		return nil, fmt.Errorf("no languages returned")
	}

	languages := make(map[string]string, len(result.Translation))
	for code, lang := range result.Translation {
		languages[code] = lang.Name
	}

	c.logger.WithField("count", len(languages)).Debug("Fetched supported languages")

	return languages, nil
}
