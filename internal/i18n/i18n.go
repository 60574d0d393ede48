// Package i18n holds the dashboard's English and Ukrainian messages and
// resolves the language for a request.
package i18n

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sweeney/grid-status/internal/timeline"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// LangParam is the query parameter used to select a language.
	LangParam = "lang"
	// LangCookieName stores the user's language preference.
	LangCookieName = "grid_lang"
)

var supported = []language.Tag{language.English, language.Ukrainian}

// LanguageOption is one entry in the dashboard's language switcher.
type LanguageOption struct {
	Tag    string
	Label  string
	Active bool
}

// Supported returns the supported language tags, default first.
func Supported() []language.Tag {
	out := make([]language.Tag, len(supported))
	copy(out, supported)
	return out
}

// Default returns the default language tag.
func Default() language.Tag {
	return language.English
}

// Printer returns a message printer for the supplied tag.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// ParseTag maps a language value onto a supported tag.
// Russian is served the Ukrainian catalog.
func ParseTag(value string) (language.Tag, bool) {
	tag, err := language.Parse(strings.TrimSpace(value))
	if err != nil {
		return language.Und, false
	}
	base, _ := tag.Base()
	switch base.String() {
	case "en":
		return language.English, true
	case "uk", "ru":
		return language.Ukrainian, true
	}
	return language.Und, false
}

// ResolveTag determines the language for the request: the lang query
// parameter, then the cookie, then Accept-Language.
// The bool indicates whether the lang query param should be persisted as a cookie.
func ResolveTag(r *http.Request) (language.Tag, bool) {
	if r == nil {
		return Default(), false
	}

	if v := r.URL.Query().Get(LangParam); v != "" {
		if tag, ok := ParseTag(v); ok {
			return tag, true
		}
	}

	if cookie, err := r.Cookie(LangCookieName); err == nil {
		if tag, ok := ParseTag(cookie.Value); ok {
			return tag, false
		}
	}

	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil {
			for _, t := range tags {
				if tag, ok := ParseTag(t.String()); ok {
					return tag, false
				}
			}
		}
	}

	return Default(), false
}

// SetLanguageCookie persists the selected language on the response.
func SetLanguageCookie(w http.ResponseWriter, tag language.Tag) {
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookieName,
		Value:    tag.String(),
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

// LanguageOptions lists the supported languages with active marked.
func LanguageOptions(active language.Tag) []LanguageOption {
	p := Printer(active)
	opts := make([]LanguageOption, 0, len(supported))
	for _, tag := range supported {
		opts = append(opts, LanguageOption{
			Tag:    tag.String(),
			Label:  p.Sprintf("lang." + tag.String()),
			Active: tag == active,
		})
	}
	return opts
}

// FormatDuration renders d as "Xh Ym", or "Ym" under an hour, with
// localized units. Negative durations render as zero.
func FormatDuration(p *message.Printer, d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int64(d / time.Hour)
	m := int64((d % time.Hour) / time.Minute)
	if h > 0 {
		return fmt.Sprintf("%d %s %d %s", h, p.Sprintf("units.h"), m, p.Sprintf("units.m"))
	}
	return fmt.Sprintf("%d %s", m, p.Sprintf("units.m"))
}

// FormatDateTime renders t in the short date and time style of tag:
// "6/1/24, 11:00 AM" in English and "01.06.24, 11:00" in Ukrainian.
func FormatDateTime(tag language.Tag, t time.Time) string {
	if tag == language.Ukrainian {
		return t.Format("02.01.06, 15:04")
	}
	return t.Format("1/2/06, 3:04 PM")
}

// AxisLabel formats a chart tick. Windows spanning more than one calendar
// day include the date.
func AxisLabel(t time.Time, w timeline.Window) string {
	if w.CrossesDayBoundary {
		return t.Format("02/01 15:04")
	}
	return t.Format("15:04")
}

// HorizonLabel returns the localized selector label for h.
func HorizonLabel(p *message.Printer, h timeline.Horizon) string {
	if h == timeline.Horizon7d {
		return p.Sprintf("history.days7")
	}
	return p.Sprintf(fmt.Sprintf("history.hours%d", h.Hours()))
}

// StateLabel returns the localized name of a state label; anything not
// "on" or "off" is unknown.
func StateLabel(p *message.Printer, label string) string {
	switch strings.ToLower(label) {
	case timeline.StateOn:
		return p.Sprintf("state.on")
	case "off":
		return p.Sprintf("state.off")
	}
	return p.Sprintf("state.unknown")
}
