package observ

import (
	"sort"
	"strings"
	"sync"
)

type registry struct {
	mu       sync.Mutex
	counters map[string]map[string]int64   // name -> labelsKey -> count
	gauges   map[string]map[string]float64 // name -> labelsKey -> value
}

var reg = &registry{
	counters: map[string]map[string]int64{},
	gauges:   map[string]map[string]float64{},
}

// canonicalize label map so key order is stable
func canonLabels(lbl map[string]string) string {
	if len(lbl) == 0 {
		return ""
	}
	keys := make([]string, 0, len(lbl))
	for k := range lbl {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(lbl[k])
	}
	return b.String()
}

func IncCounter(name string, labels map[string]string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	m, ok := reg.counters[name]
	if !ok {
		m = map[string]int64{}
		reg.counters[name] = m
	}
	m[canonLabels(labels)]++
}

func SetGauge(name string, value float64, labels map[string]string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	m, ok := reg.gauges[name]
	if !ok {
		m = map[string]float64{}
		reg.gauges[name] = m
	}
	m[canonLabels(labels)] = value
}

// CounterValue returns the current count for name with the given labels.
func CounterValue(name string, labels map[string]string) int64 {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.counters[name][canonLabels(labels)]
}

// Snapshot returns a flattened copy of all counters and gauges, keyed
// "name{labels}", for an end-of-run dump.
func Snapshot() map[string]float64 {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	out := map[string]float64{}
	for name, series := range reg.counters {
		for labels, v := range series {
			out[metricKey(name, labels)] = float64(v)
		}
	}
	for name, series := range reg.gauges {
		for labels, v := range series {
			out[metricKey(name, labels)] = v
		}
	}
	return out
}

// Reset clears the registry. Tests only.
func Reset() {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.counters = map[string]map[string]int64{}
	reg.gauges = map[string]map[string]float64{}
}

func metricKey(name, labels string) string {
	if labels == "" {
		return name
	}
	return name + "{" + labels + "}"
}
