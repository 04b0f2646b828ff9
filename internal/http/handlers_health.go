package httpx

import (
	"io"
	"net/http"
)

const (
	healthResponse   = `{"status":"ok"}`
	startingResponse = `{"status":"starting"}`
)

// healthHandler reports 200 once the session store has finished restoring a
// stored session, and 503 while the startup profile fetch is still running.
func healthHandler(ready <-chan struct{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, body := http.StatusOK, healthResponse
		select {
		case <-ready:
		default:
			status, body = http.StatusServiceUnavailable, startingResponse
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if r.Method == http.MethodHead {
			return
		}
		// Nothing more to do if the client connection is gone.
		_, _ = io.WriteString(w, body)
	}
}
