package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"clearpath/internal/events"
	"clearpath/internal/hub"
	"clearpath/internal/ledger"

	"github.com/gorilla/websocket"
)

const defaultMaxMessageBytes = 64 * 1024

type Options struct {
	AdminToken      string
	MaxMessageBytes int64
}

type Server struct {
	httpServer *http.Server
	hub        *hub.Hub
	store      *ledger.Store

	adminToken      string
	maxMessageBytes int64
}

// endpointTopics is the auto-subscribe bundle per WebSocket endpoint.
var endpointTopics = map[string][]string{
	"connect":   nil,
	"packages":  {events.TopicPackageUpdates},
	"dashboard": {events.TopicDashboardMetrics, events.TopicNotifications},
	"map":       {events.TopicMapUpdates, events.TopicPackageUpdates},
	"agents":    {events.TopicAgentActivity, events.TopicSystemHealth},
}

func New(addr string, h *hub.Hub, store *ledger.Store, opts Options) *Server {
	if opts.MaxMessageBytes <= 0 {
		opts.MaxMessageBytes = defaultMaxMessageBytes
	}
	s := &Server{
		hub:             h,
		store:           store,
		adminToken:      opts.AdminToken,
		maxMessageBytes: opts.MaxMessageBytes,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/ws/connect", s.wsHandler("connect"))
	mux.HandleFunc("/ws/packages", s.wsHandler("packages"))
	mux.HandleFunc("/ws/dashboard", s.wsHandler("dashboard"))
	mux.HandleFunc("/ws/map", s.wsHandler("map"))
	mux.HandleFunc("/ws/agents", s.wsHandler("agents"))
	mux.HandleFunc("/ws/status", s.handleStatus)
	mux.HandleFunc("/ws/connections", s.withAdminAuth(s.handleConnections))

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Start() error {
	log.Printf("hub listening on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsHandler upgrades the connection, registers it with the endpoint's topic
// bundle, and runs the read loop. The upstream identity layer injects the
// user id; the hub takes it as given.
func (s *Server) wsHandler(endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.SetReadLimit(s.maxMessageBytes)

		userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
		if userID == "" {
			userID = strings.TrimSpace(r.Header.Get("X-User-ID"))
		}

		connID := s.hub.Connect(&wsTransport{conn: conn}, userID, endpoint)
		for _, topic := range endpointTopics[endpoint] {
			_ = s.hub.Subscribe(connID, topic)
		}

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				s.hub.Disconnect(connID, closeReason(err))
				return
			}
			s.hub.HandleInbound(connID, data)
		}
	}
}

func closeReason(err error) string {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return "client_closed"
	}
	return "read_failed"
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":             "healthy",
		"service":            "clearpath-hub",
		"active_connections": s.hub.ConnectionCount(),
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	out := map[string]any{
		"active_connections": s.hub.ConnectionCount(),
		"subscriptions":      s.hub.SubscriberCounts(),
		"status":             "operational",
	}
	if s.store != nil {
		if totals, err := s.store.DeliveryTotals(r.Context()); err == nil {
			deliveries := make([]map[string]any, 0, len(totals))
			for _, t := range totals {
				deliveries = append(deliveries, map[string]any{
					"topic":  t.Topic,
					"sent":   t.Sent,
					"failed": t.Failed,
				})
			}
			out["deliveries"] = deliveries
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleConnections(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	items := s.hub.ListConnections()
	writeJSON(w, http.StatusOK, map[string]any{
		"connections": items,
		"total":       len(items),
	})
}

// withAdminAuth guards operational reads with the static admin token when one
// is configured; with no token configured the surface stays open, matching a
// deployment behind a trusted edge.
func (s *Server) withAdminAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.adminToken != "" {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) != s.adminToken {
				log.Printf("audit event=admin_auth_failed ip=%s path=%s", clientIP(r), r.URL.Path)
				writeJSON(w, http.StatusUnauthorized, map[string]any{
					"error": map[string]any{
						"code":    "unauthorized",
						"message": "missing or invalid bearer token",
					},
				})
				return
			}
		}
		next(w, r)
	}
}

func clientIP(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); v != "" {
		if ip := strings.TrimSpace(strings.Split(v, ",")[0]); ip != "" {
			return ip
		}
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		return host[:i]
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, obj any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(obj)
}
