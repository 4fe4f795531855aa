package api

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"

	"github.com/rv32edu/rv32emu/asm"
	"github.com/rv32edu/rv32emu/loader"
	"github.com/rv32edu/rv32emu/vm"
)

// ErrSessionNotFound is returned by SessionManager.Get for an unknown ID.
var ErrSessionNotFound = errors.New("session not found")

// Session pairs a running Emulator with the program it was built from and
// a per-session lock so the one goroutine serving its websocket never
// races a concurrent HTTP request against the same Emulator.
type Session struct {
	ID       string
	Emulator *vm.Emulator
	Program  *asm.AssembledProgram

	mu sync.Mutex
}

// Lock and Unlock serialize access to the Session's Emulator. The
// websocket handler holds this for the duration of each clock operation.
func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// SessionManager owns every live Session, keyed by a random ID, guarded by
// a single mutex as spec.md's concurrency model requires (one Emulator per
// session, no state shared across sessions).
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager returns an empty SessionManager.
func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]*Session)}
}

// pipelineKindFor maps the API's "cve2"/"five-stage" strings to a
// vm.PipelineKind, defaulting to PipelineCVE2 for an empty or unknown name.
func pipelineKindFor(name string) vm.PipelineKind {
	if name == "five-stage" {
		return vm.PipelineFiveStage
	}
	return vm.PipelineCVE2
}

// Create assembles source, builds an Emulator for it (seeded with
// program's data section and serialInput), registers it under a new
// random session ID, and returns the session plus any assembly errors.
func (sm *SessionManager) Create(source, pipeline string, serialInput []byte) (*Session, []error) {
	program, errs := asm.Assemble("session", source)
	if len(errs) > 0 {
		return nil, errs
	}

	emu := vm.NewEmulator(program, pipelineKindFor(pipeline), serialInput)
	loader.LoadProgramIntoEmulator(emu, program)

	id, err := newSessionID()
	if err != nil {
		return nil, []error{err}
	}

	session := &Session{ID: id, Emulator: emu, Program: program}

	sm.mu.Lock()
	sm.sessions[id] = session
	sm.mu.Unlock()

	return session, nil
}

// Get returns the session registered under id.
func (sm *SessionManager) Get(id string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, ok := sm.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Delete removes a session, e.g. once its websocket connection closes.
func (sm *SessionManager) Delete(id string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, id)
}

// Count returns the number of live sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

func newSessionID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
