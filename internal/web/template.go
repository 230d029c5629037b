package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/metronome/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"modeOrUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Metronome</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.fast { color: green; font-weight: bold; }
.coarse { color: #888; font-weight: bold; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Metronome</h1>

<h2>Tempo</h2>
<table>
<tr><th>BPM</th><td>{{.BPM}}</td></tr>
<tr><th>Period</th><td>{{.Period.Milliseconds}}ms</td></tr>
<tr><th>Wake interval</th><td>{{.WakeInterval.Milliseconds}}ms</td></tr>
<tr><th>Mode</th><td class="{{if eq (modeOrUnknown (printf "%s" .Mode)) "FAST"}}fast{{else if eq (modeOrUnknown (printf "%s" .Mode)) "COARSE"}}coarse{{else}}unknown{{end}}">{{modeOrUnknown (printf "%s" .Mode)}}</td></tr>
</table>

<h2>Beats</h2>
<table>
<tr><th>Count</th><td>{{.Beats}}</td></tr>
<tr><th>Last beat</th><td>{{if .LastBeat.IsZero}}never{{else}}{{.LastBeat.UTC.Format "2006-01-02T15:04:05Z"}}{{end}}</td></tr>
</table>

<h2>Buttons</h2>
<table>
<tr><th>Up</th><td>{{.Presses.Up}}</td></tr>
<tr><th>Down</th><td>{{.Presses.Down}}</td></tr>
<tr><th>Spare</th><td>{{.Presses.Spare}}</td></tr>
<tr><th>Rejected</th><td>{{.Presses.Rejected}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}} — {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Watchdog resets</th><td>{{.WatchdogResets}}</td></tr>
<tr><th>Watchdog</th><td>{{.Config.WatchdogMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>Debounce</th><td>{{.Config.Debounce}}</td></tr>
<tr><th>Backend</th><td>{{.Config.Backend}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
