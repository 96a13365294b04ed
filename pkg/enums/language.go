package enums

import "fmt"

// Language is the set of UI languages the app persists per user.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageTurkish Language = "tr"
)

var validLanguages = []Language{
	LanguageEnglish,
	LanguageTurkish,
}

// IsValid reports whether the value matches the canonical language enum.
func (l Language) IsValid() bool {
	for _, candidate := range validLanguages {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLanguage converts the raw string to Language.
func ParseLanguage(value string) (Language, error) {
	for _, candidate := range validLanguages {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid language %q", value)
}

// DisplayName returns the language name in its own locale.
func (l Language) DisplayName() string {
	switch l {
	case LanguageEnglish:
		return "English"
	case LanguageTurkish:
		return "Türkçe"
	}
	return string(l)
}

// Languages returns the canonical language list.
func Languages() []Language {
	out := make([]Language, len(validLanguages))
	copy(out, validLanguages)
	return out
}
