// Package monitoring turns a running simulation into a small HTTP server so
// its progress and cache statistics can be inspected from outside.
package monitoring

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"

	"github.com/sarchlab/csim/sim"
)

// A Cache exposes the counters the monitor reports for one cache instance.
type Cache interface {
	Name() string
	Hits() uint64
	Misses() uint64
	WriteBacks() uint64
	IsBlocked() bool
}

// A Monitor serves the state of a simulation over HTTP.
type Monitor struct {
	timeTeller sim.TimeTeller
	caches     []Cache

	portNumber  int
	openBrowser bool
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port the server listens on. Port 0 picks a free
// port.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	m.portNumber = portNumber
	return m
}

// WithBrowser makes StartServer open the monitor in the default browser.
func (m *Monitor) WithBrowser() *Monitor {
	m.openBrowser = true
	return m
}

// RegisterTimeTeller registers the source of the simulated time.
func (m *Monitor) RegisterTimeTeller(tt sim.TimeTeller) {
	m.timeTeller = tt
}

// RegisterCache registers a cache to be monitored.
func (m *Monitor) RegisterCache(c Cache) {
	m.caches = append(m.caches, c)
}

// StartServer starts the monitoring server in the background.
func (m *Monitor) StartServer() error {
	r := mux.NewRouter()
	r.HandleFunc("/api/now", m.serveNow)
	r.HandleFunc("/api/caches", m.serveCaches)
	r.HandleFunc("/api/resource", m.serveResource)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", m.portNumber))
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring simulation at %s\n", url)

	if m.openBrowser {
		_ = browser.OpenURL(url)
	}

	go func() {
		_ = http.Serve(listener, r)
	}()

	return nil
}

func (m *Monitor) serveNow(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]float64{
		"now": float64(m.timeTeller.CurrentTime()),
	})
}

type cacheStatus struct {
	Name       string `json:"name"`
	Hits       uint64 `json:"hits"`
	Misses     uint64 `json:"misses"`
	WriteBacks uint64 `json:"write_backs"`
	Blocked    bool   `json:"blocked"`
}

func (m *Monitor) serveCaches(w http.ResponseWriter, _ *http.Request) {
	statuses := make([]cacheStatus, 0, len(m.caches))

	for _, c := range m.caches {
		statuses = append(statuses, cacheStatus{
			Name:       c.Name(),
			Hits:       c.Hits(),
			Misses:     c.Misses(),
			WriteBacks: c.WriteBacks(),
			Blocked:    c.IsBlocked(),
		})
	}

	writeJSON(w, statuses)
}

func (m *Monitor) serveResource(w http.ResponseWriter, _ *http.Request) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	memInfo, err := p.MemoryInfo()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"rss_bytes":   memInfo.RSS,
		"cpu_percent": cpuPercent,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
