package models

// TranslationRequest represents a text translation request from the API
type TranslationRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"` // Optional, "auto" if empty
	TargetLang string `json:"target_lang"`
	Translator string `json:"translator"` // Optional, default provider if empty
}

// TranslationResponse represents the response for a text translation
type TranslationResponse struct {
	TranslatedText string `json:"translated_text"`
	Source         string `json:"source"` // "cache" or "api"
}

// Result sources reported in TranslationResponse.Source
const (
	SourceCache = "cache"
	SourceAPI   = "api"
)

// URLTranslationRequest represents a request to translate the text of a web page
type URLTranslationRequest struct {
	URL        string `json:"url"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	Translator string `json:"translator"`
}

// URLTranslationResponse represents the response for a URL translation
type URLTranslationResponse struct {
	TranslatedText string `json:"translated_text"`
}

// DetectLanguageRequest represents a language detection request
type DetectLanguageRequest struct {
	Text string `json:"text"`
}

// DetectLanguageResponse represents the response for language detection
type DetectLanguageResponse struct {
	DetectedLanguage string `json:"detected_language"`
}

// ErrorResponse is the body of every handler failure
type ErrorResponse struct {
	Error string `json:"error"`
}

// Error messages returned to clients
const (
	ErrMsgInvalidBody           = "Invalid JSON body"
	ErrMsgUnsupportedTranslator = "Unsupported translator"
	ErrMsgMissingTextOrTarget   = "Missing text or target language"
	ErrMsgMissingURLOrTarget    = "Missing URL or target language"
	ErrMsgMissingText           = "Missing text"

	ErrPrefixTranslation    = "Translation failed: "
	ErrPrefixURLTranslation = "URL translation failed: "
	ErrPrefixDetection      = "Language detection failed: "
	ErrPrefixLanguages      = "Failed to fetch languages: "
)
