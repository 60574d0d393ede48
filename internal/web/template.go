package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/sweeney/grid-status/internal/i18n"
	"github.com/sweeney/grid-status/internal/timeline"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var indexTmpl = template.Must(template.New("index").Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html lang="{{.Lang}}"{{if .Theme}} data-theme="{{.Theme}}"{{end}}>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="{{.RefreshSeconds}}">
<title>{{.T "app.title"}}</title>
<style>
:root {
  color-scheme: light;
  --fg: #222; --bg: #fff; --muted: #777; --border: #ddd;
  --on: #1a7f37; --off: #cf222e; --unknown: #bf8700;
  --error-bg: #ffebe9; --line: #333; --axis: #bbb;
}
@media (prefers-color-scheme: dark) {
  :root:not([data-theme="light"]) {
    color-scheme: dark;
    --fg: #e6edf3; --bg: #0d1117; --muted: #8b949e; --border: #30363d;
    --on: #3fb950; --off: #f85149; --unknown: #d29922;
    --error-bg: #3c1618; --line: #c9d1d9; --axis: #484f58;
  }
}
:root[data-theme="dark"] {
  color-scheme: dark;
  --fg: #e6edf3; --bg: #0d1117; --muted: #8b949e; --border: #30363d;
  --on: #3fb950; --off: #f85149; --unknown: #d29922;
  --error-bg: #3c1618; --line: #c9d1d9; --axis: #484f58;
}
body { font-family: system-ui, sans-serif; max-width: 860px; margin: 2em auto; padding: 0 1em; color: var(--fg); background: var(--bg); }
a { color: inherit; }
h1 { font-size: 1.5em; margin-bottom: 0.2em; }
.sub { color: var(--muted); margin-top: 0; }
.cards { display: flex; gap: 1em; flex-wrap: wrap; }
.card { flex: 1 1 240px; border: 1px solid var(--border); border-radius: 8px; padding: 1em; }
.card h2 { font-size: 0.9em; text-transform: uppercase; color: var(--muted); margin: 0 0 0.5em; }
.state { font-size: 2em; font-weight: bold; }
.on { color: var(--on); }
.off { color: var(--off); }
.unknown { color: var(--unknown); }
.muted { color: var(--muted); }
.prefs { display: flex; justify-content: space-between; align-items: center; }
nav a { margin-right: 0.8em; }
nav a.active { font-weight: bold; text-decoration: none; color: var(--fg); }
.theme-toggle { text-decoration: none; font-size: 1.2em; }
.error { background: var(--error-bg); border: 1px solid var(--off); padding: 0.6em 1em; border-radius: 6px; }
svg { width: 100%; height: auto; }
svg .seg-on { fill: var(--on); fill-opacity: 0.15; }
svg .seg-off { fill: var(--off); fill-opacity: 0.08; }
svg .line { fill: none; stroke: var(--line); stroke-width: 2; }
svg .axis { stroke: var(--axis); stroke-width: 1; }
svg text { font-size: 11px; fill: var(--muted); }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; background: orange; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
footer { margin-top: 2em; font-size: 0.85em; color: var(--muted); }
</style>
</head>
<body>
<h1>{{.T "app.title"}}<span id="live-dot" class="live-dot" title="connecting"></span></h1>
{{if .FriendlyName}}<p class="sub">{{.FriendlyName}}</p>{{end}}
<div class="prefs">
<nav class="langs">{{range .Languages}}<a href="{{.Href}}"{{if .Active}} class="active"{{end}}>{{.Label}}</a>{{end}}</nav>
<a id="theme-toggle" class="theme-toggle" href="{{.ThemeToggle.Href}}" title="{{.ThemeToggle.Label}}" aria-label="{{.ThemeToggle.Label}}">{{.ThemeToggle.Icon}}</a>
</div>

{{if .Error}}<p class="error">{{.Error}}</p>{{end}}

<div class="cards">
<div class="card">
<h2>{{.T "state.current"}}</h2>
<div id="grid-state" class="state {{.StateClass}}">{{.StateText}}</div>
</div>
<div class="card">
<h2>{{.T "lastChange.label"}}</h2>
{{with .LastChange}}
<div>{{$.T "lastChange.switchedTo"}} <strong class="{{.Class}}">{{.StateText}}</strong></div>
<div id="last-since">{{.Since}}</div>
<div class="muted">{{$.T "lastChange.ago" .Elapsed}}</div>
{{if .Previous}}<div class="muted">{{.Previous}}</div>{{end}}
{{else}}<div class="muted">{{.T "state.unknown"}}</div>{{end}}
</div>
</div>

<h2>{{.T "history.title"}}</h2>
<nav class="horizons">{{range .Horizons}}<a href="{{.Href}}"{{if .Active}} class="active"{{end}}>{{.Label}}</a>{{end}}</nav>
{{with .Chart}}
{{if .Empty}}<p class="muted">{{$.T "history.empty"}}</p>{{else}}
<svg viewBox="0 0 {{.Width}} {{.Height}}" role="img" aria-label="{{$.T "chart.state"}}">
{{range .Segments}}<rect class="{{if .On}}seg-on{{else}}seg-off{{end}}" x="{{.X}}" y="{{$.Chart.YOn}}" width="{{.Width}}" height="{{$.ChartBandHeight}}"></rect>
{{end}}<line class="axis" x1="{{.Left}}" y1="{{.YOff}}" x2="{{.Right}}" y2="{{.YOff}}"></line>
<path class="line" d="{{.Path}}"></path>
<text x="2" y="{{.YOn}}" dy="4">{{$.T "state.on"}}</text>
<text x="2" y="{{.YOff}}" dy="4">{{$.T "state.off"}}</text>
{{range .Ticks}}<text x="{{.X}}" y="{{$.Chart.Baseline}}" text-anchor="middle">{{.Label}}</text>
{{end}}</svg>
{{end}}
{{end}}

<footer>{{.T "footer.source" .SourceName .RefreshSeconds}} · <a href="/index.json">JSON</a></footer>

<script>
(function() {
  var dot = document.getElementById("live-dot");
  var el = document.getElementById("grid-state");
  var labels = {"on": "{{.T "state.on"}}", "off": "{{.T "state.off"}}"};
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
{{with .SystemDarkToggle}}
  if (window.matchMedia && window.matchMedia("(prefers-color-scheme: dark)").matches) {
    var toggle = document.getElementById("theme-toggle");
    toggle.href = "{{.Href}}";
    toggle.title = "{{.Label}}";
    toggle.setAttribute("aria-label", "{{.Label}}");
    toggle.textContent = "{{.Icon}}";
  }
{{end}}

  function connect() {
    var ws = new WebSocket(proto + location.host + "/api/live");
    ws.onopen = function() { dot.className = "live-dot ok"; dot.title = "live"; };
    ws.onclose = function() {
      dot.className = "live-dot err";
      dot.title = "offline";
      setTimeout(connect, 5000);
    };
    ws.onmessage = function(ev) {
      try {
        var msg = JSON.parse(ev.data);
        var key = msg.value === 1 ? "on" : "off";
        el.textContent = labels[key];
        el.className = "state " + key;
      } catch (e) {}
    };
  }
  connect();
})();
</script>
</body>
</html>
`

type link struct {
	Href   string
	Label  string
	Active bool
}

type lastChangeView struct {
	StateText string
	Class     string
	Since     string
	Elapsed   string
	Previous  string
}

type pageData struct {
	p   *message.Printer
	tag language.Tag

	Lang            string
	FriendlyName    string
	Error           string
	StateText       string
	StateClass      string
	LastChange      *lastChangeView
	Horizons        []link
	Languages       []link
	Chart           chart
	ChartBandHeight string
	SourceName      string
	RefreshSeconds  int

	Theme       string
	ThemeToggle themeLink

	// SystemDarkToggle replaces ThemeToggle in the browser when no theme
	// is chosen and the system prefers dark.
	SystemDarkToggle *themeLink
}

// T translates key with optional format arguments.
func (d pageData) T(key string, args ...any) string {
	return d.p.Sprintf(key, args...)
}

func stateClass(label string) string {
	switch strings.ToLower(label) {
	case timeline.StateOn:
		return "on"
	case "off":
		return "off"
	}
	return "unknown"
}

func pageHref(h timeline.Horizon, tag language.Tag) string {
	return fmt.Sprintf("?hours=%d&%s=%s", h.Hours(), i18n.LangParam, tag.String())
}

func (s *Server) newPage(tag language.Tag, theme string, h timeline.Horizon) pageData {
	p := i18n.Printer(tag)
	d := pageData{
		p:              p,
		tag:            tag,
		Lang:           tag.String(),
		Theme:          theme,
		StateText:      p.Sprintf("state.unknown"),
		StateClass:     "unknown",
		SourceName:     s.source.Name(),
		RefreshSeconds: int(s.refresh / time.Second),
	}
	for _, hz := range timeline.Horizons() {
		d.Horizons = append(d.Horizons, link{Href: pageHref(hz, tag), Label: i18n.HorizonLabel(p, hz), Active: hz == h})
	}
	for _, opt := range i18n.LanguageOptions(tag) {
		optTag, _ := i18n.ParseTag(opt.Tag)
		d.Languages = append(d.Languages, link{Href: pageHref(h, optTag), Label: opt.Label, Active: opt.Active})
	}
	switch theme {
	case themeDark:
		d.ThemeToggle = themeSwitch(p, themeLight, h, tag)
	case themeLight:
		d.ThemeToggle = themeSwitch(p, themeDark, h, tag)
	default:
		d.ThemeToggle = themeSwitch(p, themeDark, h, tag)
		light := themeSwitch(p, themeLight, h, tag)
		d.SystemDarkToggle = &light
	}
	return d
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	tag, persist := i18n.ResolveTag(r)
	if persist {
		i18n.SetLanguageCookie(w, tag)
	}
	theme, persistTheme := resolveTheme(r)
	if persistTheme {
		setThemeCookie(w, theme)
	}
	h, err := hoursParam(r)
	if err != nil {
		h = timeline.DefaultHorizon
	}
	win, now := s.window(h)
	data := s.newPage(tag, theme, h)
	code := http.StatusOK

	events, st, err := s.load(r.Context(), win)
	if err != nil {
		log.Printf("web: index: %s: %v", s.source.Name(), err)
		data.Error = data.T("error.failed")
		data.Chart = buildChart(nil, win)
		code = http.StatusBadGateway
	} else {
		snap := snapshotOf(st)
		if st != nil {
			data.FriendlyName = st.FriendlyName
			data.StateText = i18n.StateLabel(data.p, st.Snapshot.State)
			data.StateClass = stateClass(st.Snapshot.State)
		}
		tl := timeline.Reconstruct(events, snap, now)
		data.Chart = buildChart(tl.Clip(win), win)

		if lc, ok := timeline.Summarize(events, snap, now); ok {
			v := &lastChangeView{
				StateText: i18n.StateLabel(data.p, lc.State),
				Class:     stateClass(lc.State),
				Since:     i18n.FormatDateTime(data.tag, lc.Since.In(s.loc)),
				Elapsed:   i18n.FormatDuration(data.p, lc.Elapsed),
			}
			if lc.HasPrevious {
				v.Previous = data.T("lastChange.previous",
					i18n.StateLabel(data.p, lc.PreviousState),
					i18n.FormatDuration(data.p, lc.PreviousDuration))
			}
			data.LastChange = v
		}
	}
	data.ChartBandHeight = num(chartHeight - chartBottom - chartTop)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	renderHTML(w, data)
}

func renderHTML(w io.Writer, data pageData) {
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("web: render index: %v", err)
	}
}
