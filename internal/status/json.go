package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Grid          string     `json:"grid"`
	Since         string     `json:"since,omitempty"`
	Ready         bool       `json:"ready"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	Source        SourceJSON `json:"source"`
	MQTT          MQTTStatus `json:"mqtt"`
	Counts        CountsJSON `json:"event_counts"`
	LiveClients   int        `json:"live_clients"`
	Config        ConfigJSON `json:"config"`
}

// SourceJSON reports the upstream and the outcome of the last query.
type SourceJSON struct {
	Name         string `json:"name"`
	EntityID     string `json:"entity_id"`
	FriendlyName string `json:"friendly_name,omitempty"`
	LastRefresh  string `json:"last_refresh,omitempty"`
	LastError    string `json:"last_error,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of transition counts.
type CountsJSON struct {
	GridOn  int `json:"grid_on"`
	GridOff int `json:"grid_off"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	RefreshMs   int64  `json:"refresh_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	DebounceMs  int64  `json:"debounce_ms,omitempty"`
	Broker      string `json:"broker"`
	HTTPPort    string `json:"http_port"`
	Timezone    string `json:"timezone"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func buildInner(snap Snapshot) StatusInner {
	grid := string(snap.Grid)
	if grid == "" {
		grid = "UNKNOWN"
	}

	return StatusInner{
		Grid:          grid,
		Since:         formatTime(snap.Since),
		Ready:         snap.Baselined,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Source: SourceJSON{
			Name:         snap.Config.Source,
			EntityID:     snap.Config.EntityID,
			FriendlyName: snap.FriendlyName,
			LastRefresh:  formatTime(snap.LastRefresh),
			LastError:    snap.LastError,
		},
		MQTT:        MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts:      CountsJSON{GridOn: snap.Counts.On, GridOff: snap.Counts.Off},
		LiveClients: snap.LiveClients,
		Config: ConfigJSON{
			RefreshMs:   snap.Config.RefreshMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			DebounceMs:  snap.Config.DebounceMs,
			Broker:      snap.Config.Broker,
			HTTPPort:    snap.Config.HTTPPort,
			Timezone:    snap.Config.Timezone,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
