package server

import (
	"encoding/json"
	"log"
	"net/http"

	hferrors "github.com/hydroflow/hydroflow/pkg/errors"
)

func jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// respondError maps a coded error to an HTTP status. Server-side failures
// are logged as warnings; the error detail still goes to the client.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := hferrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("WARN %s %s: %v", r.Method, r.URL.Path, err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
		"code":  string(hferrors.GetCode(err)),
	})
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return hferrors.Wrap(err, hferrors.CodeBadRequest, "invalid request body")
	}
	return nil
}
