package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/kartoza/plasma-dashboard/internal/config"
	"github.com/kartoza/plasma-dashboard/internal/httputil"
)

// handleSettingsGet returns the saved settings next to the configuration currently in effect
func (s *Server) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	active := map[string]interface{}{
		"port":           s.cfg.Port,
		"dataDir":        s.cfg.DataDir,
		"storeBackend":   s.cfg.StoreBackend,
		"dbDriver":       s.cfg.DBDriver,
		"memoryCapacity": s.cfg.MemoryCapacity,
	}

	settings, err := config.LoadSettings()
	if err != nil {
		httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"active": active,
			"error":  err.Error(),
		})
		return
	}

	resp := map[string]interface{}{
		"active": active,
		"saved":  settings,
	}
	if path, err := config.SettingsPath(); err == nil {
		resp["path"] = path
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// handleSettingsPut validates and persists settings. They apply on the next start.
func (s *Server) handleSettingsPut(w http.ResponseWriter, r *http.Request) {
	var req config.Settings
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	candidate := config.Default()
	candidate.ApplySettings(&req)
	if err := candidate.Validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := config.SaveSettings(&req); err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, fmt.Sprintf("could not save settings: %v", err))
		return
	}

	log.Printf("Settings saved: store=%s", candidate.StoreBackend)
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"saved":           true,
		"settings":        req,
		"restartRequired": true,
	})
}
