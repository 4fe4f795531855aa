package debugger

import (
	"fmt"
	"sync"

	"github.com/rv32edu/rv32emu/vm"
)

// Watchpoint monitors one data-memory byte for any change in value. Like
// the emulator's memory model itself, watchpoints work at byte granularity
// rather than over ARM's flat, word-addressed segments.
type Watchpoint struct {
	ID        int
	Address   uint32
	Enabled   bool
	LastValue byte
	HitCount  int
}

// WatchpointManager owns the active set of watchpoints and polls them
// against a MemoryModule once per clock.
type WatchpointManager struct {
	mu          sync.RWMutex
	watchpoints map[int]*Watchpoint
	nextID      int
}

// NewWatchpointManager returns an empty manager.
func NewWatchpointManager() *WatchpointManager {
	return &WatchpointManager{watchpoints: make(map[int]*Watchpoint), nextID: 1}
}

// Add starts watching address, capturing its current value as the
// baseline.
func (wm *WatchpointManager) Add(address uint32, mem *vm.MemoryModule) *Watchpoint {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wp := &Watchpoint{ID: wm.nextID, Address: address, Enabled: true, LastValue: mem.PreviewByte(address)}
	wm.watchpoints[wp.ID] = wp
	wm.nextID++
	return wp
}

// Delete removes a watchpoint by ID.
func (wm *WatchpointManager) Delete(id int) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	if _, exists := wm.watchpoints[id]; !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}
	delete(wm.watchpoints, id)
	return nil
}

// SetEnabled toggles a watchpoint by ID.
func (wm *WatchpointManager) SetEnabled(id int, enabled bool) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wp, exists := wm.watchpoints[id]
	if !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}
	wp.Enabled = enabled
	return nil
}

// WatchHit names the watchpoint and the byte transition Check observed.
type WatchHit struct {
	Watchpoint *Watchpoint
	OldValue   byte
	NewValue   byte
}

// Check scans every enabled watchpoint against mem's current contents,
// returning one WatchHit per address whose byte changed since the last
// Check (or since Add, for the first call). This is value-change
// detection by polling, not a hook into MemoryModule's write path — it
// must be called once per clock (as Debugger.clockOnce does) to
// observe every transition.
func (wm *WatchpointManager) Check(mem *vm.MemoryModule) []WatchHit {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	var hits []WatchHit
	for _, wp := range wm.watchpoints {
		if !wp.Enabled {
			continue
		}
		current := mem.PreviewByte(wp.Address)
		if current != wp.LastValue {
			hits = append(hits, WatchHit{Watchpoint: wp, OldValue: wp.LastValue, NewValue: current})
			wp.HitCount++
			wp.LastValue = current
		}
	}
	return hits
}

// All returns every watchpoint, in no particular order.
func (wm *WatchpointManager) All() []*Watchpoint {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	result := make([]*Watchpoint, 0, len(wm.watchpoints))
	for _, wp := range wm.watchpoints {
		result = append(result, wp)
	}
	return result
}

// Clear removes every watchpoint.
func (wm *WatchpointManager) Clear() {
	wm.mu.Lock()
	defer wm.mu.Unlock()
	wm.watchpoints = make(map[int]*Watchpoint)
}

// Count returns the number of watchpoints.
func (wm *WatchpointManager) Count() int {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	return len(wm.watchpoints)
}
