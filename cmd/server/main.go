package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mbrekalo/trellis/internal/access"
	"github.com/mbrekalo/trellis/internal/audit"
	"github.com/mbrekalo/trellis/internal/cache"
	"github.com/mbrekalo/trellis/internal/config"
	"github.com/mbrekalo/trellis/internal/database"
	"github.com/mbrekalo/trellis/internal/repository"
	postgresrepo "github.com/mbrekalo/trellis/internal/repository/postgres"
	"github.com/mbrekalo/trellis/internal/service"
	"github.com/mbrekalo/trellis/internal/transport/http/handlers"
	"github.com/mbrekalo/trellis/internal/transport/http/middleware"
	"github.com/mbrekalo/trellis/internal/transport/ws"
	"github.com/mbrekalo/trellis/pkg/logger"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogPretty)

	// Database
	pool, err := database.Connect(cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("database connection failed")
	}
	defer pool.Close()
	logger.Log.Info().Msg("connected to database")

	// Repositories
	orgRepo := postgresrepo.NewOrganizationRepo(pool)
	userRepo := postgresrepo.NewUserRepo(pool)
	groupRepo := postgresrepo.NewGroupRepo(pool)
	spaceRepo := postgresrepo.NewSpaceRepo(pool)
	areaRepo := postgresrepo.NewAreaRepo(pool)
	documentRepo := postgresrepo.NewDocumentRepo(pool)
	pageRepo := postgresrepo.NewPageRepo(pool)
	auditRepo := postgresrepo.NewAuditRepo(pool)
	cascadeStore := postgresrepo.NewCascadeStore(pool)

	// Optional redis identity cache
	var groupLister repository.GroupLister = groupRepo
	var invalidator service.GroupInvalidator
	if cfg.RedisURL != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
		identityCache := cache.NewIdentityCache(rdb, groupRepo, logger.Log)
		groupLister = identityCache
		invalidator = identityCache
		logger.Log.Info().Str("addr", cfg.RedisURL).Msg("identity cache enabled")
	}

	// Access engine
	identity := access.NewIdentityGraph(userRepo, groupLister)
	spaceResolver := access.NewSpaceResolver(spaceRepo, identity)
	areaResolver := access.NewAreaResolver(areaRepo, spaceResolver, identity)
	resourceResolver := access.NewResourceResolver(documentRepo, pageRepo, areaResolver, spaceResolver, identity)
	builder := access.NewSetBuilder(spaceRepo, areaRepo, documentRepo, pageRepo, spaceResolver)

	// WebSocket audit feed
	hub := ws.NewHub(func(ctx context.Context, userID, spaceID uuid.UUID) (bool, error) {
		d, err := spaceResolver.Resolve(ctx, userID, spaceID)
		if err != nil {
			if errors.Is(err, access.ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		return d.Granted, nil
	})
	go hub.Run()

	recorder := audit.NewRecorder(auditRepo, ws.NewAuditNotifier(hub), logger.Log)

	// Services
	authService := service.NewAuthService(userRepo, orgRepo, spaceRepo, cfg.JWTSecret)
	spaceService := service.NewSpaceService(spaceRepo, userRepo, groupRepo, spaceResolver, builder, recorder)
	areaService := service.NewAreaService(areaRepo, userRepo, groupRepo, spaceResolver, areaResolver, builder, recorder)
	documentService := service.NewDocumentService(documentRepo, areaRepo, spaceResolver, resourceResolver, builder, recorder)
	pageService := service.NewPageService(pageRepo, areaRepo, userRepo, groupRepo, areaResolver, resourceResolver, builder, recorder)
	groupService := service.NewGroupService(groupRepo, userRepo, invalidator, recorder)
	cascadeService := service.NewCascadeService(cascadeStore, spaceRepo, areaRepo, documentRepo, pageRepo, spaceResolver, areaResolver, resourceResolver, recorder)
	auditService := service.NewAuditService(auditRepo, userRepo, groupRepo, spaceResolver, areaResolver, resourceResolver)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	spaceHandler := handlers.NewSpaceHandler(spaceService, cascadeService)
	areaHandler := handlers.NewAreaHandler(areaService, cascadeService)
	documentHandler := handlers.NewDocumentHandler(documentService, cascadeService)
	pageHandler := handlers.NewPageHandler(pageService, cascadeService)
	groupHandler := handlers.NewGroupHandler(groupService)
	auditHandler := handlers.NewAuditHandler(auditService)

	// Auth middleware
	auth := middleware.Auth(cfg.JWTSecret)

	// Routes
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	// WebSocket audit feed
	mux.Handle("GET /api/v1/ws", ws.ServeWS(hub, cfg.JWTSecret))

	// Protected - Spaces
	mux.Handle("POST /api/v1/spaces", auth(http.HandlerFunc(spaceHandler.Create)))
	mux.Handle("GET /api/v1/spaces", auth(http.HandlerFunc(spaceHandler.List)))
	mux.Handle("GET /api/v1/spaces/{id}", auth(http.HandlerFunc(spaceHandler.Get)))
	mux.Handle("PATCH /api/v1/spaces/{id}", auth(http.HandlerFunc(spaceHandler.Update)))
	mux.Handle("DELETE /api/v1/spaces/{id}", auth(http.HandlerFunc(spaceHandler.Delete)))
	mux.Handle("POST /api/v1/spaces/{id}/grants", auth(http.HandlerFunc(spaceHandler.Grant)))
	mux.Handle("DELETE /api/v1/spaces/{id}/grants", auth(http.HandlerFunc(spaceHandler.Revoke)))
	mux.Handle("GET /api/v1/spaces/{id}/members", auth(http.HandlerFunc(spaceHandler.ListMembers)))

	// Protected - Areas
	mux.Handle("POST /api/v1/spaces/{id}/areas", auth(http.HandlerFunc(areaHandler.Create)))
	mux.Handle("GET /api/v1/spaces/{id}/areas", auth(http.HandlerFunc(areaHandler.List)))
	mux.Handle("GET /api/v1/areas/{id}", auth(http.HandlerFunc(areaHandler.Get)))
	mux.Handle("PATCH /api/v1/areas/{id}", auth(http.HandlerFunc(areaHandler.Update)))
	mux.Handle("DELETE /api/v1/areas/{id}", auth(http.HandlerFunc(areaHandler.Delete)))
	mux.Handle("POST /api/v1/areas/{id}/grants", auth(http.HandlerFunc(areaHandler.Grant)))
	mux.Handle("DELETE /api/v1/areas/{id}/grants", auth(http.HandlerFunc(areaHandler.Revoke)))
	mux.Handle("GET /api/v1/areas/{id}/members", auth(http.HandlerFunc(areaHandler.ListMembers)))

	// Protected - Documents
	mux.Handle("POST /api/v1/spaces/{id}/documents", auth(http.HandlerFunc(documentHandler.Create)))
	mux.Handle("GET /api/v1/spaces/{id}/documents", auth(http.HandlerFunc(documentHandler.List)))
	mux.Handle("GET /api/v1/documents/{id}", auth(http.HandlerFunc(documentHandler.Get)))
	mux.Handle("PATCH /api/v1/documents/{id}", auth(http.HandlerFunc(documentHandler.Update)))
	mux.Handle("DELETE /api/v1/documents/{id}", auth(http.HandlerFunc(documentHandler.Delete)))
	mux.Handle("PUT /api/v1/documents/{id}/visibility", auth(http.HandlerFunc(documentHandler.ChangeVisibility)))
	mux.Handle("POST /api/v1/documents/{id}/shares", auth(http.HandlerFunc(documentHandler.ShareToArea)))
	mux.Handle("GET /api/v1/documents/{id}/shares", auth(http.HandlerFunc(documentHandler.ListAreaShares)))
	mux.Handle("DELETE /api/v1/documents/{id}/shares/{aid}", auth(http.HandlerFunc(documentHandler.UnshareFromArea)))

	// Protected - Pages
	mux.Handle("POST /api/v1/areas/{id}/pages", auth(http.HandlerFunc(pageHandler.Create)))
	mux.Handle("GET /api/v1/areas/{id}/pages", auth(http.HandlerFunc(pageHandler.List)))
	mux.Handle("GET /api/v1/pages/{id}", auth(http.HandlerFunc(pageHandler.Get)))
	mux.Handle("PATCH /api/v1/pages/{id}", auth(http.HandlerFunc(pageHandler.Update)))
	mux.Handle("DELETE /api/v1/pages/{id}", auth(http.HandlerFunc(pageHandler.Delete)))
	mux.Handle("PUT /api/v1/pages/{id}/visibility", auth(http.HandlerFunc(pageHandler.ChangeVisibility)))
	mux.Handle("POST /api/v1/pages/{id}/shares", auth(http.HandlerFunc(pageHandler.Share)))
	mux.Handle("GET /api/v1/pages/{id}/shares", auth(http.HandlerFunc(pageHandler.ListShares)))
	mux.Handle("DELETE /api/v1/pages/{id}/shares", auth(http.HandlerFunc(pageHandler.Unshare)))

	// Protected - Groups
	mux.Handle("POST /api/v1/groups", auth(http.HandlerFunc(groupHandler.Create)))
	mux.Handle("GET /api/v1/groups/{id}", auth(http.HandlerFunc(groupHandler.Get)))
	mux.Handle("POST /api/v1/groups/{id}/members", auth(http.HandlerFunc(groupHandler.AddMember)))
	mux.Handle("DELETE /api/v1/groups/{id}/members/{uid}", auth(http.HandlerFunc(groupHandler.RemoveMember)))
	mux.Handle("GET /api/v1/groups/{id}/members", auth(http.HandlerFunc(groupHandler.ListMembers)))

	// Protected - Audit trail
	mux.Handle("GET /api/v1/audit/{type}/{id}", auth(http.HandlerFunc(auditHandler.ListByResource)))

	// Start server with CORS
	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	logger.Log.Info().Str("addr", addr).Msg("starting server")
	if err := http.ListenAndServe(addr, middleware.CORS(mux)); err != nil {
		logger.Log.Fatal().Err(err).Msg("server stopped")
	}
}
