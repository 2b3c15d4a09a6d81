package ship

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/solward/shipserver/pkg/script"
)

// registerRESTRoutes registers the control API endpoints on the admin
// server's mux. Everything here requires a valid token.
func (as *AdminServer) registerRESTRoutes() {
	secured := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(as.auth, h)
	}

	// Hook management
	as.mux.Handle("GET /api/v1/hooks", secured(as.handleListHooks))
	as.mux.Handle("PUT /api/v1/hooks/{action}", secured(as.handlePutHook))
	as.mux.Handle("DELETE /api/v1/hooks/{action}", secured(as.handleDeleteHook))
	as.mux.Handle("POST /api/v1/hooks/reload", secured(as.handleReloadHooks))

	// Script storage inspection
	as.mux.Handle("GET /api/v1/storage", secured(as.handleListStorage))
	as.mux.Handle("GET /api/v1/storage/{key}", secured(as.handleGetStorage))
	as.mux.Handle("PUT /api/v1/storage/{key}", secured(as.handlePutStorage))
	as.mux.Handle("DELETE /api/v1/storage/{key}", secured(as.handleDeleteStorage))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// --- Hook Management ---

func (as *AdminServer) handleListHooks(w http.ResponseWriter, r *http.Request) {
	type hookEntry struct {
		Action string `json:"action"`
		File   string `json:"file"`
	}

	var entries []hookEntry
	for action, file := range as.ship.Bridge().Handlers() {
		entries = append(entries, hookEntry{Action: action.String(), File: file})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Action < entries[j].Action
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"hooks": entries,
		"count": len(entries),
	})
}

func (as *AdminServer) handlePutHook(w http.ResponseWriter, r *http.Request) {
	action := script.ParseAction(r.PathValue("action"))
	if !action.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown action"})
		return
	}

	var req struct {
		File string `json:"file"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.File == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file is required"})
		return
	}

	if err := as.ship.RegisterHook(action, req.File); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"action": action.String(), "file": req.File})
}

func (as *AdminServer) handleDeleteHook(w http.ResponseWriter, r *http.Request) {
	action := script.ParseAction(r.PathValue("action"))
	if !action.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown action"})
		return
	}

	if err := as.ship.UnregisterHook(action); err != nil {
		if errors.Is(err, script.ErrNotRegistered) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no handler bound"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (as *AdminServer) handleReloadHooks(w http.ResponseWriter, r *http.Request) {
	if err := as.ship.ReloadHooks(); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"reloaded": true,
		"count":    len(as.ship.Bridge().Handlers()),
	})
}

// --- Script Storage ---

func (as *AdminServer) storageOr503(w http.ResponseWriter) bool {
	if as.ship.Storage() == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "storage not configured"})
		return false
	}
	return true
}

func (as *AdminServer) handleListStorage(w http.ResponseWriter, r *http.Request) {
	if !as.storageOr503(w) {
		return
	}
	keys, err := as.ship.Storage().Keys()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"keys": keys, "count": len(keys)})
}

func (as *AdminServer) handleGetStorage(w http.ResponseWriter, r *http.Request) {
	if !as.storageOr503(w) {
		return
	}
	key := r.PathValue("key")
	value, ok, err := as.ship.Storage().Get(key)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "key not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": value})
}

func (as *AdminServer) handlePutStorage(w http.ResponseWriter, r *http.Request) {
	if !as.storageOr503(w) {
		return
	}
	var req struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	key := r.PathValue("key")
	if err := as.ship.Storage().Set(key, req.Value); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": req.Value})
}

func (as *AdminServer) handleDeleteStorage(w http.ResponseWriter, r *http.Request) {
	if !as.storageOr503(w) {
		return
	}
	if err := as.ship.Storage().Delete(r.PathValue("key")); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
