package api

import (
	"encoding/json"
	"net/http"
	"time"
)

const (
	dateLayout = "2006-01-02"

	// The clinic front end sends minute-precision local timestamps
	// without a zone, e.g. "2025-12-04T08:00".
	localMinuteLayout = "2006-01-02T15:04"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// parseStartTime accepts RFC 3339 or the zone-less minute format, the
// latter interpreted in server-local time.
func parseStartTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.ParseInLocation(localMinuteLayout, raw, time.Local)
}

// parseDate parses a YYYY-MM-DD value such as a birthday.
func parseDate(raw string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, raw, time.Local)
}
