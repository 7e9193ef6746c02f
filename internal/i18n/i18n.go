package i18n

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// LangParam is the query parameter used to select a language.
const LangParam = "lang"

// Localizer provides translated strings.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

var supportedTags = []language.Tag{
	language.English,
	language.BrazilianPortuguese,
}

var tagMatcher = language.NewMatcher(supportedTags)

var messages = mustBuildCatalog()

func mustBuildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, set := range map[language.Tag]map[string]string{
		language.English:             english,
		language.BrazilianPortuguese: portuguese,
	} {
		for key, msg := range set {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
	return b
}

// Default returns the default language tag.
func Default() language.Tag {
	return language.English
}

// Printer returns a message printer for tag backed by the admin catalog.
func Printer(tag language.Tag) *message.Printer {
	matched, _, _ := tagMatcher.Match(tag)
	return message.NewPrinter(matched, message.Catalog(messages))
}

// ResolveTag picks the best language for r from ?lang= or Accept-Language.
func ResolveTag(r *http.Request) language.Tag {
	if r == nil {
		return Default()
	}
	if raw := strings.TrimSpace(r.URL.Query().Get(LangParam)); raw != "" {
		if tag, err := language.Parse(raw); err == nil {
			matched, _, _ := tagMatcher.Match(tag)
			return matched
		}
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			matched, _, _ := tagMatcher.Match(tags...)
			return matched
		}
	}
	return Default()
}

// T returns a translated string or the key if no localizer is available.
func T(loc Localizer, key string, args ...any) string {
	if loc == nil {
		return key
	}
	return loc.Sprintf(key, args...)
}

type ctxKey struct{}

// ContextWithLocalizer stores loc on ctx.
func ContextWithLocalizer(ctx context.Context, loc Localizer) context.Context {
	return context.WithValue(ctx, ctxKey{}, loc)
}

// FromContext returns the request localizer, falling back to English.
func FromContext(ctx context.Context) Localizer {
	if ctx != nil {
		if loc, ok := ctx.Value(ctxKey{}).(Localizer); ok && loc != nil {
			return loc
		}
	}
	return Printer(Default())
}

// Middleware attaches a printer for the resolved request language.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := ContextWithLocalizer(r.Context(), Printer(ResolveTag(r)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
