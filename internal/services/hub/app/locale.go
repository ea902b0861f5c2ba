package server

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"

	"github.com/louisbranch/rfidhub/internal/platform/errors/i18n"
)

// langParam is the query parameter a client uses to pick its error language.
const langParam = "lang"

var supportedTags = []language.Tag{
	language.MustParse(i18n.BaseLocale),
	language.MustParse("pt-BR"),
}

var tagMatcher = language.NewMatcher(supportedTags)

// resolveLocale picks the catalog locale for a connecting client from the
// lang query param, then Accept-Language, then the base locale.
func resolveLocale(r *http.Request) string {
	if r == nil {
		return i18n.BaseLocale
	}
	if value := strings.TrimSpace(r.URL.Query().Get(langParam)); value != "" {
		if tag, err := language.Parse(value); err == nil {
			return matchLocale(tag)
		}
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			return matchLocale(tags...)
		}
	}
	return i18n.BaseLocale
}

func matchLocale(tags ...language.Tag) string {
	_, index, confidence := tagMatcher.Match(tags...)
	if confidence == language.No {
		return i18n.BaseLocale
	}
	return supportedTags[index].String()
}
