// Package ipc carries press/release/status/quit commands over a unix socket
// as one JSON line per request and response.
package ipc

import "encoding/json"

// Commands understood by the daemon.
const (
	CommandPress   = "press"
	CommandRelease = "release"
	CommandCancel  = "cancel"
	CommandStatus  = "status"
	CommandQuit    = "quit"
	CommandHistory = "history"
)

// Request is one client command. Mode applies to press ("dictation" or
// "command"); Limit applies to history.
type Request struct {
	Command string `json:"command"`
	Mode    string `json:"mode,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// Response reports the command outcome and a daemon status snapshot.
type Response struct {
	OK        bool   `json:"ok"`
	State     string `json:"state,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	Backlog   int    `json:"backlog"`
	Processed int64  `json:"processed"`
	Failed    int64  `json:"failed"`

	// History is the JSON-encoded entry list for a history request.
	History json.RawMessage `json:"history,omitempty"`
}
