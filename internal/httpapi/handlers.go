package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"cardroom/gateway/internal/logging"
)

// StatsSource supplies the live figures the stats endpoint reports.
type StatsSource struct {
	// Sessions returns the number of live match buckets and connections.
	Sessions func() (matches, connections int)
	// Matches returns the number of registered engines.
	Matches func() int
	// LobbyMembers returns the number of lobby connections.
	LobbyMembers func() int
}

// Handlers exposes the operational HTTP surface: liveness, readiness and an
// authenticated stats endpoint.
type Handlers struct {
	adminToken string
	source     StatsSource
	log        *logging.Logger
	started    time.Time
	now        func() time.Time
}

// NewHandlers builds the operational handlers. An empty adminToken disables
// the stats endpoint entirely.
func NewHandlers(adminToken string, source StatsSource, log *logging.Logger, clock func() time.Time) *Handlers {
	if log == nil {
		log = logging.L()
	}
	if clock == nil {
		clock = time.Now
	}
	return &Handlers{
		adminToken: adminToken,
		source:     source,
		log:        log,
		started:    clock(),
		now:        clock,
	}
}

// Register mounts the handlers on the given router.
func (h *Handlers) Register(r *mux.Router) {
	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", h.Readyz).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", h.Stats).Methods(http.MethodGet)
}

// Healthz reports process liveness.
func (h *Handlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz reports readiness to accept connections.
func (h *Handlers) Readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type statsResponse struct {
	UptimeSeconds  int64 `json:"uptimeSeconds"`
	Matches        int   `json:"matches"`
	SessionBuckets int   `json:"sessionBuckets"`
	Connections    int   `json:"connections"`
	LobbyMembers   int   `json:"lobbyMembers"`
}

// Stats reports live gateway figures. The bearer token is compared in
// constant time.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	resp := statsResponse{UptimeSeconds: int64(h.now().Sub(h.started).Seconds())}
	if h.source.Sessions != nil {
		resp.SessionBuckets, resp.Connections = h.source.Sessions()
	}
	if h.source.Matches != nil {
		resp.Matches = h.source.Matches()
	}
	if h.source.LobbyMembers != nil {
		resp.LobbyMembers = h.source.LobbyMembers()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) authorized(r *http.Request) bool {
	if h.adminToken == "" {
		return false
	}
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return false
	}
	presented := header[len(prefix):]
	return subtle.ConstantTimeCompare([]byte(presented), []byte(h.adminToken)) == 1
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
