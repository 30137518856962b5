package translator

import (
	"context"
	"fmt"
	"strings"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// GoogleProvider uses Google Cloud Translation. It is the plain-MT variant:
// the system prompt has no channel here and is ignored; the language pair is
// fixed at construction.
type GoogleProvider struct {
	credentials string
	sourceLang  string
	targetLang  string
}

// NewGoogleProvider creates the Cloud Translation adapter. credentials is a
// path to a service-account file; empty uses application default
// credentials. sourceLang may be empty or "auto" for detection.
func NewGoogleProvider(credentials, sourceLang, targetLang string) *GoogleProvider {
	return &GoogleProvider{
		credentials: credentials,
		sourceLang:  sourceLang,
		targetLang:  targetLang,
	}
}

func (p *GoogleProvider) Name() string {
	return "google"
}

func (p *GoogleProvider) Translate(ctx context.Context, _ string, text string) (string, error) {
	targetTag, err := language.Parse(p.targetLang)
	if err != nil {
		return "", fmt.Errorf("invalid target language %q: %w", p.targetLang, err)
	}

	var opts []option.ClientOption
	if p.credentials != "" {
		opts = append(opts, option.WithCredentialsFile(p.credentials))
	}

	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return "", &TransientError{Provider: p.Name(), Detail: fmt.Sprintf("create client: %v", err)}
	}
	defer client.Close()

	var translations []translate.Translation
	if p.sourceLang == "" || p.sourceLang == "auto" {
		translations, err = client.Translate(ctx, []string{text}, targetTag, nil)
	} else {
		sourceTag, parseErr := language.Parse(p.sourceLang)
		if parseErr != nil {
			return "", fmt.Errorf("invalid source language %q: %w", p.sourceLang, parseErr)
		}
		translations, err = client.Translate(ctx, []string{text}, targetTag, &translate.Options{
			Source: sourceTag,
		})
	}
	if err != nil {
		lower := strings.ToLower(err.Error())
		for _, marker := range sizeMarkers {
			if strings.Contains(lower, marker) {
				return "", &SizeError{Provider: p.Name(), Detail: err.Error()}
			}
		}
		return "", &TransientError{Provider: p.Name(), Detail: err.Error()}
	}
	if len(translations) == 0 {
		return "", &TransientError{Provider: p.Name(), Detail: "no translation returned"}
	}

	return translations[0].Text, nil
}

func (p *GoogleProvider) Available(ctx context.Context) error {
	if p.targetLang == "" {
		return fmt.Errorf("target language not configured")
	}
	return nil
}
