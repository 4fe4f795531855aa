package debugger

import "sync"

// CommandHistory remembers typed debugger commands for up/down recall in
// the command line, the way a shell history does. This is distinct from
// vm.History, which snapshots emulator state (registers, pipeline PCs) for
// step-back rather than remembering what the user typed.
type CommandHistory struct {
	mu       sync.RWMutex
	commands []string
	maxSize  int
	position int
}

// NewCommandHistory returns an empty history bounded to maxSize entries.
func NewCommandHistory(maxSize int) *CommandHistory {
	return &CommandHistory{maxSize: maxSize}
}

// Add appends cmd, unless it's empty or a repeat of the last command.
func (h *CommandHistory) Add(cmd string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cmd == "" {
		return
	}
	if len(h.commands) > 0 && h.commands[len(h.commands)-1] == cmd {
		h.position = len(h.commands)
		return
	}

	h.commands = append(h.commands, cmd)
	if len(h.commands) > h.maxSize {
		h.commands = h.commands[len(h.commands)-h.maxSize:]
	}
	h.position = len(h.commands)
}

// Previous moves the cursor back one entry and returns it, or "" at the
// start of history.
func (h *CommandHistory) Previous() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.commands) == 0 || h.position == 0 {
		return ""
	}
	h.position--
	return h.commands[h.position]
}

// Next moves the cursor forward one entry and returns it, or "" once past
// the most recent command.
func (h *CommandHistory) Next() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.commands) == 0 || h.position >= len(h.commands)-1 {
		h.position = len(h.commands)
		return ""
	}
	h.position++
	return h.commands[h.position]
}

// GetLast returns the most recently added command without moving the
// cursor.
func (h *CommandHistory) GetLast() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.commands) == 0 {
		return ""
	}
	return h.commands[len(h.commands)-1]
}

// All returns a copy of every stored command, oldest first.
func (h *CommandHistory) All() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	result := make([]string, len(h.commands))
	copy(result, h.commands)
	return result
}

// Clear empties the history.
func (h *CommandHistory) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.commands = h.commands[:0]
	h.position = 0
}
