package respond

import (
	"encoding/json"
	"net/http"
)

func JSON(w http.ResponseWriter, r *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func Error(w http.ResponseWriter, r *http.Request, code int, message string) {
	ErrorWith(w, r, code, message, nil)
}

// ErrorWith writes {"error": message} plus the extra string fields.
// An "error" key in extra is ignored.
func ErrorWith(w http.ResponseWriter, r *http.Request, code int, message string, extra map[string]string) {
	body := make(map[string]string, len(extra)+1)
	for k, v := range extra {
		body[k] = v
	}
	body["error"] = message
	JSON(w, r, code, body)
}
