package ship

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// AdminServer provides the HTTP control surface: auth, hook management,
// script storage inspection, metrics, and the live event feed.
type AdminServer struct {
	ship      *Ship
	httpSrv   *http.Server
	mux       *http.ServeMux
	auth      *AuthService
	rl        *rateLimiter
	upgrader  websocket.Upgrader
	metrics   *Metrics
	startTime time.Time
}

// NewAdminServer creates the admin server bound to the ship.
func NewAdminServer(s *Ship, conf *Conf) *AdminServer {
	auth := NewAuthService(conf.AdminUser, conf.AdminPasswordHash, conf.JWTSecret, conf.JWTExpiry)
	rl := newRateLimiter(conf.AdminRateLimit)

	as := &AdminServer{
		ship:      s,
		mux:       http.NewServeMux(),
		auth:      auth,
		rl:        rl,
		startTime: time.Now(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if len(conf.AdminCORSOrigins) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				for _, o := range conf.AdminCORSOrigins {
					if strings.EqualFold(o, origin) {
						return true
					}
				}
				return false
			},
		},
	}

	as.registerRoutes(conf)
	return as
}

// Auth returns the auth service, for tests and embedding.
func (as *AdminServer) Auth() *AuthService { return as.auth }

// registerRoutes sets up all HTTP routes.
func (as *AdminServer) registerRoutes(conf *Conf) {
	// Global middleware: CORS -> rate limit
	handler := http.Handler(as.mux)
	handler = rateLimitMiddleware(as.rl, handler)
	handler = corsMiddleware(conf.AdminCORSOrigins, handler)

	as.httpSrv = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", conf.AdminHost, conf.AdminPort),
		Handler: handler,
	}

	// Auth endpoints
	as.mux.HandleFunc("POST /api/v1/auth/login", as.handleAuthLogin)
	as.mux.HandleFunc("POST /api/v1/auth/refresh", as.handleAuthRefresh)

	// Control API
	as.registerRESTRoutes()

	// Live event feed
	as.mux.Handle("GET /ws/events",
		authMiddleware(as.auth, http.HandlerFunc(as.handleEventFeed)))

	// Health endpoint (no auth)
	as.mux.HandleFunc("GET /health", as.handleHealth)

	// Prometheus metrics endpoint
	as.metrics = NewMetrics(as.ship, time.Now())
	as.ship.SetMetrics(as.metrics)
	as.mux.Handle("GET /metrics", as.metrics.Handler())
}

// Start begins listening. Blocks until the server stops.
func (as *AdminServer) Start() error {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			as.rl.cleanup()
		}
	}()

	log.Printf("Admin server listening on %s", as.httpSrv.Addr)
	err := as.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully shuts down the admin server.
func (as *AdminServer) Stop(ctx context.Context) error {
	return as.httpSrv.Shutdown(ctx)
}

// --- Auth HTTP Handlers ---

func (as *AdminServer) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	token, err := as.auth.Login(req.Name, req.Password)
	if err != nil {
		http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"token": token})
}

func (as *AdminServer) handleAuthRefresh(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		http.Error(w, `{"error":"authorization required"}`, http.StatusUnauthorized)
		return
	}
	newToken, err := as.auth.RefreshToken(authHeader[7:])
	if err != nil {
		http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"token": newToken})
}

// --- Health Handler ---

func (as *AdminServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":          "ok",
		"ship":            as.ship.ShipName(),
		"uptime_seconds":  as.ship.Uptime().Seconds(),
		"scripts_enabled": as.ship.Bridge().Enabled(),
	})
}
