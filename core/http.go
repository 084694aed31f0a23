package core

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
)

// WriteJSON encodes v as the response body with the given status. HTML
// escaping is disabled so transcript text round-trips unchanged.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "write json error: %v", err)
	}
}
