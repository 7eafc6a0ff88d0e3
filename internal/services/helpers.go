package services

import (
	"context"
	"strings"
)

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func normaliseIDs(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, exists := seen[value]; exists {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

// normaliseLanguage narrows a language tag to one of the two supported UI languages.
func normaliseLanguage(lang string) string {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(lang)), "ar") {
		return "ar"
	}
	return "en"
}

func pickText(lang, english, arabic string) string {
	if normaliseLanguage(lang) == "ar" && strings.TrimSpace(arabic) != "" {
		return arabic
	}
	return english
}
