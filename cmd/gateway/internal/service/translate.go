package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ALABELEWE/nigeria-tax-ussd/config"
)

// GoogleTranslator calls the Google Translate v2 REST API. Both operations
// fail soft: a broken translation backend degrades the answer language, it
// never breaks the pipeline.
type GoogleTranslator struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

type translateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

type detectResponse struct {
	Data struct {
		Detections [][]struct {
			Language string `json:"language"`
		} `json:"detections"`
	} `json:"data"`
}

func NewGoogleTranslator(cfg *config.TranslateConfig) *GoogleTranslator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GoogleTranslator{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Translate converts text between languages, returning the input unchanged
// when source and target match or when the API call fails.
func (t *GoogleTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) string {
	if strings.EqualFold(sourceLang, targetLang) {
		return text
	}

	params := url.Values{}
	params.Set("key", t.apiKey)
	params.Set("q", text)
	params.Set("source", sourceLang)
	params.Set("target", targetLang)
	params.Set("format", "text")

	var out translateResponse
	if err := t.post(ctx, "/language/translate/v2", params, &out); err != nil {
		log.Printf("translation %s->%s failed: %v", sourceLang, targetLang, err)
		return text
	}
	if len(out.Data.Translations) == 0 {
		log.Printf("translation %s->%s returned no result", sourceLang, targetLang)
		return text
	}
	return out.Data.Translations[0].TranslatedText
}

// Detect guesses the language of a text, defaulting to English on failure.
func (t *GoogleTranslator) Detect(ctx context.Context, text string) string {
	params := url.Values{}
	params.Set("key", t.apiKey)
	params.Set("q", text)

	var out detectResponse
	if err := t.post(ctx, "/language/translate/v2/detect", params, &out); err != nil {
		log.Printf("language detection failed: %v", err)
		return DefaultLanguage
	}
	if len(out.Data.Detections) == 0 || len(out.Data.Detections[0]) == 0 {
		return DefaultLanguage
	}
	return out.Data.Detections[0][0].Language
}

func (t *GoogleTranslator) post(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := t.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call translate api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("translate api status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode translate response: %w", err)
	}
	return nil
}
