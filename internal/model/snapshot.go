package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// RunState mirrors the upstream toggle state. The upstream server is the
// source of truth; this copy is only updated from its toggle responses.
type RunState struct {
	IsFueling bool `json:"isFueling"`
}

// Toggle statuses returned by POST /toggle_fueling.
const (
	ToggleStarted = "started"
	ToggleStopped = "stopped"
)

// ToggleResponse is the upstream answer to a toggle command.
type ToggleResponse struct {
	Status string `json:"status"`
}

// Snapshot is the full polled state of the simulation at one instant.
type Snapshot struct {
	TotalLiters      float64      `json:"total_liters"`
	TotalCost        float64      `json:"total_cost"`
	Balance          float64      `json:"balance"`
	RecipientBalance float64      `json:"recipient_balance"`
	RealTime         RealTimeData `json:"real_time_data"`
	Holds            []HoldRecord `json:"holds"`
	PacketLog        []LogEntry   `json:"packet_log"`
	OPKCMPLog        []LogEntry   `json:"opkcmp_log"`
	FuelingActive    bool         `json:"fueling_active"`
}

// RealTimeData is the instantaneous reading of the running pump.
type RealTimeData struct {
	Liters  float64 `json:"liters"`
	Balance float64 `json:"balance"`
}

// HoldRecord is a provisional reservation of funds consumed by transactions.
type HoldRecord struct {
	ID           HoldID            `json:"id"`
	Timestamp    string            `json:"timestamp"`
	Amount       float64           `json:"amount"`
	Used         float64           `json:"used"`
	Remaining    float64           `json:"remaining"`
	Status       string            `json:"status"`
	Transactions []HoldTransaction `json:"transactions"`
}

// HoldTransaction is a single charge made against a hold.
type HoldTransaction struct {
	Timestamp string  `json:"timestamp"`
	Liters    float64 `json:"liters"`
	Cost      float64 `json:"cost"`
}

// HoldID accepts both numeric and string identifiers from upstream.
type HoldID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *HoldID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = HoldID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = HoldID(strings.TrimSpace(n.String()))
	return nil
}

// LogEntry is a packet or OPKCMP measurement record. Frames share the same
// shape and are only present on packet entries.
type LogEntry struct {
	Time    string     `json:"time"`
	Liters  float64    `json:"liters"`
	Balance float64    `json:"balance"`
	IsFinal bool       `json:"is_final"`
	Frames  []LogEntry `json:"frames,omitempty"`
}
