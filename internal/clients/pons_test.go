package clients

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDetector struct {
	lang string
	err  error
}

func (d stubDetector) Detect(ctx context.Context, text string) (string, error) {
	return d.lang, d.err
}

const ponsDictionaryBody = `[{"lang":"de","hits":[{"type":"entry","roms":[{"headword":"Haus","arabs":[{"header":"","translations":[{"source":"<strong class=\"headword\">Haus</strong>","target":"house <span class=\"genus\">n</span>"},{"source":"Haus","target":"home"}]}]}]}]}]`

func TestPonsTranslate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dictionary", r.URL.Path)
		assert.Equal(t, "Haus", r.URL.Query().Get("q"))
		assert.Equal(t, "deen", r.URL.Query().Get("l"))
		assert.Equal(t, "de", r.URL.Query().Get("in"))
		assert.Equal(t, "pons-secret", r.Header.Get("X-Secret"))
		_, _ = w.Write([]byte(ponsDictionaryBody))
	}))
	defer server.Close()

	client := NewPonsClient("pons-secret", server.URL, server.Client(), nil, testLogger())
	result, err := client.Translate(context.Background(), "Haus", "de", "en")
	require.NoError(t, err)

	assert.Equal(t, "house n", result.TranslatedText)
	assert.Equal(t, ProviderPons, result.Provider)
}

func TestPonsTranslateDetectsAutoSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "deen", r.URL.Query().Get("l"))
		assert.Equal(t, "de", r.URL.Query().Get("in"))
		_, _ = w.Write([]byte(ponsDictionaryBody))
	}))
	defer server.Close()

	client := NewPonsClient("pons-secret", server.URL, server.Client(), stubDetector{lang: "de"}, testLogger())
	result, err := client.Translate(context.Background(), "Haus", AutoLanguage, "en")
	require.NoError(t, err)
	assert.Equal(t, "de", result.SourceLang)
}

func TestPonsTranslateDetectionFailure(t *testing.T) {
	client := NewPonsClient("pons-secret", "http://127.0.0.1:0", nil, stubDetector{err: errors.New("nope")}, testLogger())
	_, err := client.Translate(context.Background(), "Haus", AutoLanguage, "en")
	assert.ErrorContains(t, err, "failed to detect source language")
}

func TestPonsTranslateNoHits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewPonsClient("pons-secret", server.URL, server.Client(), nil, testLogger())
	_, err := client.Translate(context.Background(), "Qwxz", "de", "en")
	assert.EqualError(t, err, `no translation found for "Qwxz"`)
}

func TestPonsTranslateRejectsUnsupportedPair(t *testing.T) {
	client := NewPonsClient("pons-secret", "http://127.0.0.1:0", nil, nil, testLogger())

	_, err := client.Translate(context.Background(), "Haus", "de", "ja")
	assert.EqualError(t, err, `language "ja" is not supported by PONS`)

	_, err = client.Translate(context.Background(), "Haus", "de", "de")
	assert.EqualError(t, err, "source and target language must differ")
}

func TestPonsNotConfigured(t *testing.T) {
	client := NewPonsClient("", "", nil, nil, testLogger())
	_, err := client.Translate(context.Background(), "Haus", "de", "en")
	assert.EqualError(t, err, "PONS API secret not configured")
}

func TestPonsSupportedLanguagesIsACopy(t *testing.T) {
	client := NewPonsClient("", "", nil, nil, testLogger())

	languages, err := client.SupportedLanguages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "german", languages["de"])
	assert.Len(t, languages, len(ponsLanguages))

	languages["de"] = "changed"
	again, _ := client.SupportedLanguages(context.Background())
	assert.Equal(t, "german", again["de"])
}

func TestPonsDictionaryCode(t *testing.T) {
	assert.Equal(t, "deen", ponsDictionary("en", "de"))
	assert.Equal(t, "deen", ponsDictionary("de", "en"))
	assert.Equal(t, "esfr", ponsDictionary("fr", "es"))
}
