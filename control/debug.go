// control/debug.go
// Author: momentics <momentics@gmail.com>
//
// Named probes dumped on demand, e.g. at shutdown or over HTTP.

package control

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync"

	"github.com/momentics/hioload-pktio/api"
)

// DebugProbes holds registered probe functions.
type DebugProbes struct {
	mu     sync.RWMutex
	probes map[string]func() any
}

// NewDebugProbes creates a probe registry preloaded with runtime probes.
func NewDebugProbes() *DebugProbes {
	dp := &DebugProbes{probes: make(map[string]func() any)}
	dp.RegisterProbe("runtime.goos", func() any { return runtime.GOOS })
	dp.RegisterProbe("runtime.cpus", func() any { return runtime.NumCPU() })
	dp.RegisterProbe("runtime.goroutines", func() any { return runtime.NumGoroutine() })
	return dp
}

// RegisterProbe inserts or replaces a named debug hook.
func (dp *DebugProbes) RegisterProbe(name string, fn func() any) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.probes[name] = fn
}

// RegisterSocket adds a "socket.<name>" probe returning s.Stats().
func (dp *DebugProbes) RegisterSocket(name string, s api.Socket) {
	dp.RegisterProbe("socket."+name, func() any { return s.Stats() })
}

// DumpState returns output of all probes.
func (dp *DebugProbes) DumpState() map[string]any {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	out := make(map[string]any, len(dp.probes))
	for k, fn := range dp.probes {
		out[k] = fn()
	}
	return out
}

// ServeHTTP writes DumpState as JSON.
func (dp *DebugProbes) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(dp.DumpState())
}
