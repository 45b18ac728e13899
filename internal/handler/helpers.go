package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func parseCodeParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("code"), 10, 64)
}
