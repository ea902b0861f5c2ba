// Package i18n renders user-facing text for domain error codes.
package i18n

import (
	"bytes"
	"strings"
	"text/template"
)

// Code is a machine-readable error code (duplicated from errors package to avoid cycle).
type Code = string

// BaseLocale is used when a requested locale has no catalog.
const BaseLocale = "en-US"

// Catalog maps error codes to message templates for a specific locale.
type Catalog struct {
	locale   string
	messages map[Code]string
}

// catalogs is fixed at init and only read afterwards.
var catalogs = map[string]*Catalog{
	BaseLocale: NewCatalog(BaseLocale, enUS),
	"pt-BR":    NewCatalog("pt-BR", ptBR),
}

// GetCatalog returns the catalog for the given locale, falling back to the
// language-only match and then to en-US.
func GetCatalog(locale string) *Catalog {
	requested := strings.TrimSpace(locale)
	if requested == "" {
		requested = BaseLocale
	}
	if c, ok := lookupCatalog(requested); ok {
		return c
	}
	if base, _, found := strings.Cut(requested, "-"); found {
		if c, ok := lookupCatalogByLanguage(base); ok {
			return c
		}
	} else if c, ok := lookupCatalogByLanguage(requested); ok {
		return c
	}
	c, _ := lookupCatalog(BaseLocale)
	return c
}

// Locale returns the locale of this catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders the message template with the given metadata.
// Falls back to the error code itself if no template is found.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	tmpl, ok := c.messages[code]
	if !ok {
		return code
	}
	if metadata == nil {
		metadata = map[string]string{}
	}

	t, err := template.New("msg").Parse(tmpl)
	if err != nil {
		return tmpl
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, metadata); err != nil {
		return tmpl
	}
	return buf.String()
}

// NewCatalog creates a new catalog with the given locale and messages.
func NewCatalog(locale string, messages map[Code]string) *Catalog {
	cloned := make(map[Code]string, len(messages))
	for key, value := range messages {
		cloned[key] = value
	}
	return &Catalog{locale: locale, messages: cloned}
}

func lookupCatalog(locale string) (*Catalog, bool) {
	cat, ok := catalogs[locale]
	return cat, ok
}

func lookupCatalogByLanguage(language string) (*Catalog, bool) {
	if language == "en" {
		cat, ok := catalogs[BaseLocale]
		return cat, ok
	}
	for locale, cat := range catalogs {
		if base, _, _ := strings.Cut(locale, "-"); strings.EqualFold(base, language) {
			return cat, true
		}
	}
	return nil, false
}
