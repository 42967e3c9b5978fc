package http

import (
	"encoding/json"
	"net/http"
)

type envelope map[string]any

func respondJSON(w http.ResponseWriter, status int, body envelope) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(body)
}

func respondData(w http.ResponseWriter, data any) error {
	return respondJSON(w, http.StatusOK, envelope{
		"status": "ok",
		"data":   data,
	})
}

func respondError(w http.ResponseWriter, status int, message string) error {
	return respondJSON(w, status, envelope{
		"status":  "error",
		"message": message,
	})
}
