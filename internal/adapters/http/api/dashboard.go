package api

import (
	"net/http"
)

// dashboardHandler serves the live network view.
type dashboardHandler struct{}

func newDashboardHandler() *dashboardHandler {
	return &dashboardHandler{}
}

// HandleDashboard handles GET /dashboard requests. The page polls /network
// and draws each neuron coloured by voltage.
func (h *dashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, dashboardFS, "dashboard.html")
}
