package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rv32edu/rv32emu/vm"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return isAllowedOrigin(r.Header.Get("Origin")) },
}

// handleWebSocket upgrades the connection and runs the single goroutine
// that owns this session's Emulator for the life of the connection: reads
// a ClockRequest, advances the Emulator, writes back a StateSnapshot, and
// repeats. Closing the connection (from either side) ends the session.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request, session *Session) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("api: websocket upgrade error: %v", err)
		return
	}
	defer func() {
		conn.Close()
		s.sessions.Delete(session.ID)
	}()

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go keepAlive(conn, done)
	defer close(done)

	for {
		var req ClockRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("api: websocket read error: %v", err)
			}
			return
		}

		snapshot, err := applyClockRequest(session, req)
		if err != nil {
			if writeErr := conn.WriteJSON(ErrorMessage{Error: err.Error()}); writeErr != nil {
				return
			}
			continue
		}

		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return
		}
		if err := conn.WriteJSON(snapshot); err != nil {
			log.Printf("api: websocket write error: %v", err)
			return
		}
	}
}

// keepAlive pings the client on pingPeriod until done is closed, detecting
// a dead connection that never responds to a close frame.
func keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// applyClockRequest advances session's Emulator per req and captures the
// resulting state. The session lock keeps this exclusive of any other
// request touching the same Emulator (there should be none, since each
// session has exactly one websocket, but this guards against a client
// that reconnects or races its own requests).
func applyClockRequest(session *Session, req ClockRequest) (StateSnapshot, error) {
	session.Lock()
	defer session.Unlock()

	emu := session.Emulator

	var ran uint64
	var reason string
	switch req.Op {
	case "clock":
		emu.Clock()
		ran = 1
	case "run_to_break":
		max := req.Max
		if max == 0 {
			max = 1_000_000
		}
		breakpoints := make(map[uint32]bool, len(req.Breakpoints))
		for _, addr := range req.Breakpoints {
			breakpoints[addr] = true
		}
		var br vm.BreakReason
		ran, br = emu.ClockUntilBreak(breakpoints, max)
		reason = breakReasonString(br)
	default:
		return StateSnapshot{}, errUnknownOp(req.Op)
	}

	pcs := emu.Pipeline.AllPCs()
	apiPCs := make([]PipelinePC, len(pcs))
	for i, pos := range pcs {
		apiPCs[i] = PipelinePC{PC: pos.PC, Stage: pos.Stage}
	}

	return StateSnapshot{
		Cycles:       emu.Cycles,
		Registers:    emu.Registers.Snapshot(),
		PCs:          apiPCs,
		SerialOutput: string(emu.Memory.SerialOutput()),
		Halted:       emu.Pipeline.RequestingDebug(),
		BreakReason:  reason,
		CyclesRun:    ran,
	}, nil
}

func breakReasonString(r vm.BreakReason) string {
	switch r {
	case vm.BreakDebug:
		return "ebreak"
	case vm.BreakBreakpoint:
		return "breakpoint"
	case vm.BreakMaxCycles:
		return "max-cycles"
	default:
		return ""
	}
}

type unknownOpError string

func (e unknownOpError) Error() string { return "unknown op: " + string(e) }

func errUnknownOp(op string) error { return unknownOpError(op) }
