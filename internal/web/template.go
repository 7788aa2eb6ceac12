package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/ir-receiver/internal/status"
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
	"hex4": func(v uint16) string { return fmt.Sprintf("0x%04x", v) },
	"hex2": func(v uint8) string { return fmt.Sprintf("0x%02x", v) },
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>IR Receiver</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.key { font-weight: bold; }
.none { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>IR Receiver{{if .Config.WSBroker}}<span id="live-dot" class="live-dot pending" title="connecting"></span>{{end}}</h1>

<h2>Last Key</h2>
<table>
{{if .LastKey}}<tr><th>Key</th><td id="last-key" class="key">{{.LastKey.Key.Name}}</td></tr>
<tr><th>Event</th><td id="last-event">{{.LastKey.Type}}</td></tr>
<tr><th>Code</th><td id="last-code">{{.LastKey.Scancode.Protocol}} {{hex4 .LastKey.Scancode.Address}} {{hex2 .LastKey.Scancode.Command}}</td></tr>
<tr><th>At</th><td id="last-at">{{.LastKey.Timestamp.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
{{else}}<tr><th>Key</th><td id="last-key" class="none">none yet</td></tr>
<tr><th>Event</th><td id="last-event"></td></tr>
<tr><th>Code</th><td id="last-code"></td></tr>
<tr><th>At</th><td id="last-at"></td></tr>{{end}}
</table>

<h2>Receiver</h2>
<table>
<tr><th>Decoder</th><td>{{.State}}</td></tr>
<tr><th>Frames</th><td>{{.Counts.Frames}} (NEC {{.Counts.NEC}}, RC5 {{.Counts.RC5}})</td></tr>
<tr><th>Keys</th><td>{{.Counts.Keys}}</td></tr>
<tr><th>Repeats</th><td>{{.Counts.Repeats}}</td></tr>
<tr><th>Decode errors</th><td>{{.Counts.DecodeErrors}}</td></tr>
<tr><th>Rejected</th><td>{{.Counts.Rejected}}</td></tr>
<tr><th>FIFO overflows</th><td>{{.Counts.Overflows}} ({{.Counts.Discarded}} events discarded)</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>GPIO</th><td>{{.Config.Chip}} line {{.Config.Line}}{{if .Config.ActiveLow}} (active low){{end}}</td></tr>
<tr><th>Sample clock</th><td>{{.Config.SampleClock}} ({{.Config.UnitNs}}ns/tick)</td></tr>
<tr><th>Protocols</th><td>{{.Config.Protocols}}</td></tr>
<tr><th>FIFO</th><td>{{.Config.FIFOSize}} bytes, idle {{.Config.IdleMs}}ms, poll {{.Config.PollMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
{{if .Config.WSBroker}}
<script src="https://unpkg.com/mqtt@5/dist/mqtt.min.js"></script>
<script>
(function() {
  var broker = "{{.Config.WSBroker}}";
  var topic = "home/ir/receiver/events";
  var dot = document.getElementById("live-dot");

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  function setText(id, text) {
    document.getElementById(id).textContent = text;
  }

  var client = mqtt.connect(broker, { reconnectPeriod: 5000 });

  client.on("connect", function() {
    setDot("ok", "live");
    client.subscribe(topic);
  });

  client.on("reconnect", function() {
    setDot("pending", "reconnecting");
  });

  client.on("offline", function() {
    setDot("err", "offline");
  });

  client.on("error", function() {
    setDot("err", "error");
  });

  client.on("message", function(t, payload) {
    try {
      var msg = JSON.parse(payload.toString());
      if (msg.ir) {
        setText("last-key", msg.ir.key);
        document.getElementById("last-key").className = "key";
        setText("last-event", msg.ir.event);
        setText("last-code", msg.ir.protocol + " " + msg.ir.address + " " + msg.ir.command);
        setText("last-at", msg.ir.timestamp);
      }
    } catch (e) {}
  });
})();
</script>
{{end}}
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
