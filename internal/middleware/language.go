package middleware

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

const (
	LanguageKey    = "lang"
	LanguageCookie = "tcn_language"
)

// Languages picks the request language among the configured ones.
type Languages struct {
	codes    []string
	fallback string
	matcher  language.Matcher
}

func NewLanguages(codes []string, fallback string) *Languages {
	tags := make([]language.Tag, 0, len(codes))
	for _, code := range codes {
		tags = append(tags, language.Make(code))
	}
	return &Languages{codes: codes, fallback: fallback, matcher: language.NewMatcher(tags)}
}

// Codes returns the configured language codes.
func (l *Languages) Codes() []string {
	return l.codes
}

func (l *Languages) Default() string {
	return l.fallback
}

// Supported reports whether code is one of the configured languages.
func (l *Languages) Supported(code string) bool {
	for _, c := range l.codes {
		if c == code {
			return true
		}
	}
	return false
}

// Match returns the best configured language for the given preferences,
// which may be plain codes or Accept-Language values.
func (l *Languages) Match(prefs ...string) string {
	var tags []language.Tag
	for _, p := range prefs {
		if p == "" {
			continue
		}
		if l.Supported(p) {
			return p
		}
		parsed, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	if len(tags) == 0 {
		return l.fallback
	}
	_, idx, conf := l.matcher.Match(tags...)
	if conf == language.No {
		return l.fallback
	}
	return l.codes[idx]
}

// Middleware resolves the language from the :lang path parameter, the lang
// query parameter, the language cookie and Accept-Language, in that order.
func (l *Languages) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, _ := c.Cookie(LanguageCookie)
		lang := l.Match(
			c.Param("lang"),
			c.Query("lang"),
			cookie,
			c.GetHeader("Accept-Language"),
		)
		c.Set(LanguageKey, lang)
		c.Next()
	}
}

// Language returns the resolved request language.
func Language(c *gin.Context) string {
	return c.GetString(LanguageKey)
}
