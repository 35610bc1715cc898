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

// DefaultGoogleBaseURL is the Google Cloud Translation v2 endpoint
const DefaultGoogleBaseURL = "https://translation.googleapis.com/language/translate/v2"

// GoogleTranslateClient handles communication with Google Cloud Translation API
type GoogleTranslateClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Entry
}

// GoogleTranslateRequest represents a translation request to Google API
type GoogleTranslateRequest struct {
	Q      []string `json:"q"`
	Source string   `json:"source,omitempty"`
	Target string   `json:"target"`
	Format string   `json:"format,omitempty"`
}

// GoogleTranslateResponse represents a translation response from Google API
type GoogleTranslateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText         string `json:"translatedText"`
			DetectedSourceLanguage string `json:"detectedSourceLanguage,omitempty"`
		} `json:"translations"`
	} `json:"data"`
	Error *googleAPIError `json:"error,omitempty"`
}

// GoogleLanguagesResponse represents the languages response from Google API
type GoogleLanguagesResponse struct {
	Data struct {
		Languages []struct {
			Language string `json:"language"`
			Name     string `json:"name,omitempty"`
		} `json:"languages"`
	} `json:"data"`
	Error *googleAPIError `json:"error,omitempty"`
}

type googleAPIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewGoogleTranslateClient creates a new Google Translate client
func NewGoogleTranslateClient(apiKey, baseURL string, httpClient *http.Client, logger *logrus.Entry) *GoogleTranslateClient {
	if baseURL == "" {
		baseURL = DefaultGoogleBaseURL
	}
	if httpClient == nil {
		httpClient = NewHTTPClient(30 * time.Second)
	}
	return &GoogleTranslateClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger.WithField("provider", ProviderGoogle),
	}
}

// Name returns the provider name
func (c *GoogleTranslateClient) Name() ProviderName {
	return ProviderGoogle
}

// IsConfigured returns true if the Google Translate client is properly configured
func (c *GoogleTranslateClient) IsConfigured() bool {
	return c.apiKey != ""
}

// Translate translates text from source to target language using Google API
func (c *GoogleTranslateClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (*TranslationResult, error) {
	start := time.Now()

	if !c.IsConfigured() {
		return nil, fmt.Errorf("Google Translate API key not configured")
	}

	translateURL := fmt.Sprintf("%s?key=%s", c.baseURL, url.QueryEscape(c.apiKey))

	req := GoogleTranslateRequest{
		Q:      []string{text},
		Target: targetLang,
		Format: "text",
	}

	if sourceLang != "" && sourceLang != AutoLanguage {
		req.Source = sourceLang
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, translateURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("translation request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result GoogleTranslateResponse
	if err := json.Unmarshal(bodyBytes, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	if result.Error != nil {
		return nil, fmt.Errorf("Google API error %d: %s", result.Error.Code, result.Error.Message)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Google API returned status %d", resp.StatusCode)
	}

	if len(result.Data.Translations) == 0 {
		return nil, fmt.Errorf("no translation returned")
	}

	detectedSource := sourceLang
	if sourceLang == "" || sourceLang == AutoLanguage {
		detectedSource = result.Data.Translations[0].DetectedSourceLanguage
	}

	return &TranslationResult{
		TranslatedText: result.Data.Translations[0].TranslatedText,
		SourceLang:     detectedSource,
		TargetLang:     targetLang,
		Provider:       ProviderGoogle,
		Latency:        time.Since(start),
	}, nil
}

// SupportedLanguages returns the languages Google Translate supports, with English display names
func (c *GoogleTranslateClient) SupportedLanguages(ctx context.Context) (map[string]string, error) {
	if !c.IsConfigured() {
		return nil, fmt.Errorf("Google Translate API key not configured")
	}

	languagesURL := fmt.Sprintf("%s/languages?key=%s&target=en", c.baseURL, url.QueryEscape(c.apiKey))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, languagesURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("languages request failed: %w", err)
	}
	defer resp.Body.Close()

	var result GoogleLanguagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	if result.Error != nil {
		return nil, fmt.Errorf("Google API error %d: %s", result.Error.Code, result.Error.Message)
	}

	languages := make(map[string]string, len(result.Data.Languages))
	for _, lang := range result.Data.Languages {
		name := lang.Name
		if name == "" {
			name = lang.Language
		}
		languages[lang.Language] = name
	}

	if len(languages) == 0 {
		return nil, fmt.Errorf("no languages returned")
	}

	c.logger.WithField("count", len(languages)).Debug("Fetched supported languages")

	return languages, nil
}

// NewHTTPClient returns a pooled HTTP client for upstream provider calls
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
