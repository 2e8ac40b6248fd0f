package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const serviceName = "apihub-assistant"

func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": serviceName,
		"time":    time.Now().Unix(),
	})
}

// ReadyCheck reports whether the ticket store is reachable.
type ReadyCheck func(ctx context.Context) error

// Ready answers 503 until check succeeds. A nil check is always ready.
func Ready(check ReadyCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	}
}
