package controllers

import (
	"net/http"
	httputils "shopscout/shopscout/utils/http"
	"time"
)

type HealthController struct {
	started time.Time
}

func NewHealthController() *HealthController {
	return &HealthController{started: time.Now()}
}

// HealthStatus is the liveness payload.
type HealthStatus struct {
	Status        string  `json:"status"`
	Service       string  `json:"service"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

func (h *HealthController) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputils.WriteJSON(w, http.StatusOK, HealthStatus{
		Status:        "ok",
		Service:       "shopscout",
		UptimeSeconds: time.Since(h.started).Seconds(),
	})
}
