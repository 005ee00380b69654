package domain

import (
	"encoding/json"
	"time"
)

type DiagnosticType string

const (
	DiagnosticPing       DiagnosticType = "ping"
	DiagnosticTraceroute DiagnosticType = "traceroute"
	DiagnosticDNS        DiagnosticType = "dns"
)

// DiagnosticResult is one entry in the append-only diagnostics log.
// Results are produced by the external probe runner and never persisted.
type DiagnosticResult struct {
	Type      DiagnosticType  `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
}
