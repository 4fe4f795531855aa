package api

// AssembleRequest is the body of POST /assemble.
type AssembleRequest struct {
	Source string `json:"source"`
}

// AssembleResponse reports the outcome of assembling a source file,
// without keeping any state around it server-side.
type AssembleResponse struct {
	OK             bool              `json:"ok"`
	Errors         []string          `json:"errors,omitempty"`
	Labels         map[string]uint32 `json:"labels,omitempty"`
	EntryTextStart uint32            `json:"entryTextStart,omitempty"`
	EntryDataStart uint32            `json:"entryDataStart,omitempty"`
	TextBytes      int               `json:"textBytes,omitempty"`
	DataBytes      int               `json:"dataBytes,omitempty"`
}

// SessionCreateRequest is the body of POST /session. Pipeline selects the
// microarchitecture the session's Emulator runs; an empty or unrecognized
// value falls back to "cve2".
type SessionCreateRequest struct {
	Source   string `json:"source"`
	Pipeline string `json:"pipeline,omitempty"`
	Input    string `json:"input,omitempty"`
}

// SessionCreateResponse returns the assembly outcome along with, on
// success, the ID of the session the client should open a websocket to.
type SessionCreateResponse struct {
	OK        bool     `json:"ok"`
	Errors    []string `json:"errors,omitempty"`
	SessionID string   `json:"sessionId,omitempty"`
}

// ClockRequest is a client-sent websocket message driving a session
// forward. Op is either "clock" (single cycle) or "run_to_break" (clock
// repeatedly until a breakpoint, EBREAK, or Max cycles).
type ClockRequest struct {
	Op          string   `json:"op"`
	Breakpoints []uint32 `json:"breakpoints,omitempty"`
	Max         uint64   `json:"max,omitempty"`
}

// PipelinePC reports one pipeline stage's current program counter.
type PipelinePC struct {
	PC    uint32 `json:"pc"`
	Stage string `json:"stage"`
}

// StateSnapshot is the server-sent websocket message: the Emulator's full
// visible state after the requested clock operation completed.
type StateSnapshot struct {
	Cycles       uint64       `json:"cycles"`
	Registers    [32]uint32   `json:"registers"`
	PCs          []PipelinePC `json:"pcs"`
	SerialOutput string       `json:"serialOutput"`
	Halted       bool         `json:"halted"`
	BreakReason  string       `json:"breakReason,omitempty"`
	CyclesRun    uint64       `json:"cyclesRun"`
}

// ErrorMessage is sent over the websocket in place of a StateSnapshot when
// a client request cannot be honored.
type ErrorMessage struct {
	Error string `json:"error"`
}

// ErrorResponse is the JSON body of a non-2xx HTTP response.
type ErrorResponse struct {
	Error string `json:"error"`
}
