package web

import (
	"net/http"
	"time"

	"github.com/sweeney/grid-status/internal/timeline"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	themeParam      = "theme"
	themeCookieName = "grid_theme"

	themeLight  = "light"
	themeDark   = "dark"
	themeSystem = "system"
)

// themeLink is the dashboard's light/dark switch.
type themeLink struct {
	Href  string
	Label string
	Icon  string
}

// resolveTheme returns the theme chosen for the request: the theme query
// parameter, then the cookie. Empty means follow prefers-color-scheme.
// The bool reports whether the query parameter should be persisted.
func resolveTheme(r *http.Request) (string, bool) {
	switch v := r.URL.Query().Get(themeParam); v {
	case themeLight, themeDark:
		return v, true
	case themeSystem:
		return "", true
	}
	if c, err := r.Cookie(themeCookieName); err == nil {
		if c.Value == themeLight || c.Value == themeDark {
			return c.Value, false
		}
	}
	return "", false
}

// setThemeCookie persists theme. An empty theme clears the cookie.
func setThemeCookie(w http.ResponseWriter, theme string) {
	c := &http.Cookie{
		Name:     themeCookieName,
		Value:    theme,
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	}
	if theme == "" {
		c.MaxAge = -1
	}
	http.SetCookie(w, c)
}

// themeSwitch returns the link that switches to target.
func themeSwitch(p *message.Printer, target string, h timeline.Horizon, tag language.Tag) themeLink {
	l := themeLink{
		Href:  pageHref(h, tag) + "&" + themeParam + "=" + target,
		Label: p.Sprintf("theme.dark"),
		Icon:  "🌙",
	}
	if target == themeLight {
		l.Label = p.Sprintf("theme.light")
		l.Icon = "☀️"
	}
	return l
}
