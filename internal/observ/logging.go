// Package observ provides structured JSON event logging and a small
// in-process metric registry for backtest runs.
package observ

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	logMu  sync.Mutex
	logOut io.Writer = os.Stderr
)

// SetOutput redirects event logging, mainly for tests. Events default to
// stderr so stdout stays free for report output.
func SetOutput(w io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()
	logOut = w
}

// Log emits one JSON event line with a UTC timestamp.
func Log(event string, kv map[string]any) {
	if kv == nil {
		kv = map[string]any{}
	}
	kv["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	kv["event"] = event
	b, _ := json.Marshal(kv)

	logMu.Lock()
	defer logMu.Unlock()
	fmt.Fprintln(logOut, string(b))
}
