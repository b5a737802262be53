package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory request counters with accumulated
// latency per route.
type Metrics struct {
	mu            sync.Mutex
	requestCount  map[string]int64
	totalDuration map[string]time.Duration
	errorCount    map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:  make(map[string]int64),
		totalDuration: make(map[string]time.Duration),
		errorCount:    make(map[string]int64),
	}
}

// RecordRequest increments the request counter and adds the request
// duration to the route's running total.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.totalDuration[key] += duration
}

// RecordError increments error counters keyed by error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
