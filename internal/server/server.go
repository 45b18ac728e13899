package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmelo/feirinha/internal/catalog"
	"github.com/dmelo/feirinha/internal/export"
	"github.com/dmelo/feirinha/internal/handler"
	"github.com/dmelo/feirinha/internal/history"
	"github.com/dmelo/feirinha/internal/kv"
	"github.com/dmelo/feirinha/internal/middleware"
	"github.com/dmelo/feirinha/internal/sharing"
	"github.com/dmelo/feirinha/internal/store"
	"github.com/dmelo/feirinha/internal/sync"
	ws "github.com/dmelo/feirinha/internal/websocket"
)

// Config carries the server's tunables.
type Config struct {
	InviteSecret []byte
	S3           export.S3Config
}

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	syncer      *sync.Syncer
	authH       *handler.AuthHandler
	itemH       *handler.ItemHandler
	listH       *handler.ListHandler
	invitationH *handler.InvitationHandler
	historyH    *handler.HistoryHandler
	catalogH    *handler.CatalogHandler
	sessions    *store.SessionStore
	users       *store.UserStore
	invitations *store.InvitationStore
	exporter    *export.Manager
	sharingSvc  *sharing.Service
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	kvStore := kv.New(db)
	itemStore := store.NewItemStore(db)
	listStore := store.NewListStore(db)
	invitationStore := store.NewInvitationStore(db)
	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	archiveStore := store.NewArchiveStore(db)

	cat := catalog.New()
	archiver := history.NewArchiver(archiveStore, cat, logger.With("component", "history"))

	syncer := sync.New(itemStore, kvStore, logger.With("component", "sync"))
	syncer.OnSnapshot(hub.BroadcastSnapshot)

	sharingSvc := sharing.NewService(
		listStore, invitationStore, userStore, itemStore, kvStore,
		cfg.InviteSecret, logger.With("component", "sharing"),
	)

	exporter := export.NewManager(cfg.S3, archiver, logger.With("component", "export"), nil)

	return &Server{
		db:          db,
		hub:         hub,
		syncer:      syncer,
		authH:       handler.NewAuthHandler(userStore, sessionStore, logger.With("component", "auth")),
		itemH:       handler.NewItemHandler(syncer, cat, logger.With("component", "items")),
		listH:       handler.NewListHandler(sharingSvc, syncer, logger.With("component", "lists")),
		invitationH: handler.NewInvitationHandler(sharingSvc, logger.With("component", "invitations")),
		historyH:    handler.NewHistoryHandler(archiver, syncer, exporter, logger.With("component", "history_api")),
		catalogH:    handler.NewCatalogHandler(cat),
		sessions:    sessionStore,
		users:       userStore,
		invitations: invitationStore,
		exporter:    exporter,
		sharingSvc:  sharingSvc,
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessions
}

// SharingService returns the sharing service for cleanup tasks.
func (s *Server) SharingService() *sharing.Service {
	return s.sharingSvc
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Syncer returns the sync engine so shutdown can cancel its subscription.
func (s *Server) Syncer() *sync.Syncer {
	return s.syncer
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/auth/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.Handle("GET /metrics", promhttp.Handler())
	outerMux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessions, s.users)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/auth/me", s.authH.Me)

	// Item API routes
	mux.HandleFunc("GET /api/items", s.itemH.List)
	mux.HandleFunc("POST /api/items", s.itemH.Create)
	mux.HandleFunc("DELETE /api/items", s.itemH.Clear)
	mux.HandleFunc("GET /api/items/summary", s.itemH.Summary)
	mux.HandleFunc("PUT /api/items/{code}", s.itemH.Update)
	mux.HandleFunc("PATCH /api/items/{code}", s.itemH.Edit)
	mux.HandleFunc("DELETE /api/items/{code}", s.itemH.Delete)
	mux.HandleFunc("POST /api/items/{code}/toggle", s.itemH.Toggle)

	// List API routes
	mux.HandleFunc("GET /api/lists", s.listH.List)
	mux.HandleFunc("POST /api/lists", s.listH.Create)
	mux.HandleFunc("GET /api/lists/active", s.listH.GetActive)
	mux.HandleFunc("PUT /api/lists/active", s.listH.SetActive)
	mux.HandleFunc("GET /api/lists/{id}", s.listH.Get)
	mux.HandleFunc("DELETE /api/lists/{id}", s.listH.Delete)
	mux.HandleFunc("POST /api/lists/{id}/leave", s.listH.Leave)
	mux.HandleFunc("GET /api/lists/{id}/members", s.listH.Members)
	mux.HandleFunc("DELETE /api/lists/{id}/members/{user_id}", s.listH.RemoveMember)
	mux.HandleFunc("POST /api/lists/{id}/invitations", s.invitationH.Create)

	// Invitation API routes
	mux.HandleFunc("GET /api/invitations", s.invitationH.Pending)
	mux.HandleFunc("POST /api/invitations/{id}/accept", s.invitationH.Accept)
	mux.HandleFunc("POST /api/invitations/{id}/reject", s.invitationH.Reject)

	// History API routes
	mux.HandleFunc("POST /api/history/archive", s.historyH.Archive)
	mux.HandleFunc("GET /api/history/months", s.historyH.Months)
	mux.HandleFunc("GET /api/history/months/{key}", s.historyH.Month)
	mux.HandleFunc("GET /api/history/stats", s.historyH.Stats)
	mux.HandleFunc("GET /api/history/export.csv", s.historyH.ExportCSV)
	mux.HandleFunc("GET /api/history/export.json", s.historyH.ExportJSON)
	mux.HandleFunc("POST /api/history/export/s3", s.historyH.ExportS3)
	mux.HandleFunc("GET /api/history/export/status", s.historyH.ExportStatus)

	// Catalog API routes
	mux.HandleFunc("GET /api/catalog/products", s.catalogH.Search)
	mux.HandleFunc("GET /api/catalog/categories", s.catalogH.Categories)
	mux.HandleFunc("GET /api/catalog/classify", s.catalogH.Classify)
	mux.HandleFunc("POST /api/catalog/products/{id}/favorite", s.catalogH.ToggleFavorite)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
