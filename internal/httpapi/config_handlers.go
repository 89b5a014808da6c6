package httpapi

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"sync/atomic"

	"jobwatch-engine/internal/config"
)

const redacted = "********"

type ConfigHandler struct {
	CfgVal      *atomic.Value // stores config.Config
	UserCfgPath string
	LoadCfg     func() (config.Config, error)
}

// Get returns the active config with secrets masked.
func (h ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, redact(h.CfgVal.Load().(config.Config)))
}

// Put validates and saves a new config file. The running watcher keeps its
// current settings until restart.
func (h ConfigHandler) Put(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var incoming config.Config
	if err := dec.Decode(&incoming); err != nil {
		WriteError(w, r, http.StatusBadRequest, CodeInvalidJSON, err.Error())
		return
	}
	if dec.More() {
		WriteError(w, r, http.StatusBadRequest, CodeInvalidJSON, "trailing data")
		return
	}

	cur := h.CfgVal.Load().(config.Config)
	if incoming.Notify.Email.Password == redacted {
		incoming.Notify.Email.Password = cur.Notify.Email.Password
	}
	if incoming.Notify.Telegram.Token == redacted {
		incoming.Notify.Telegram.Token = cur.Notify.Telegram.Token
	}

	normalized, vr := config.NormalizeAndValidate(incoming)
	if !vr.OK() {
		WriteJSON(w, http.StatusBadRequest, vr)
		return
	}

	if err := config.SaveAtomic(h.UserCfgPath, normalized); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "save_failed", err.Error())
		return
	}

	saved, err := h.LoadCfg()
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "reload_failed", "saved but reload failed: "+err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"config":           redact(saved),
		"warnings":         vr.Warnings,
		"restart_required": true,
	})
}

func (h ConfigHandler) Path(w http.ResponseWriter, r *http.Request) {
	abs, _ := filepath.Abs(h.UserCfgPath)
	writeJSON(w, map[string]any{"path": abs})
}

func (h ConfigHandler) Validate(w http.ResponseWriter, r *http.Request) {
	_, vr := config.NormalizeAndValidate(h.CfgVal.Load().(config.Config))
	writeJSON(w, vr)
}

func redact(cfg config.Config) config.Config {
	if cfg.Notify.Email.Password != "" {
		cfg.Notify.Email.Password = redacted
	}
	if cfg.Notify.Telegram.Token != "" {
		cfg.Notify.Telegram.Token = redacted
	}
	return cfg
}
