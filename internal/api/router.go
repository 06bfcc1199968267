package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/chamada/internal/admin"
	"github.com/saturnino-fabrica-de-software/chamada/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/chamada/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/chamada/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/chamada/internal/audit"
	"github.com/saturnino-fabrica-de-software/chamada/internal/provider"
	"github.com/saturnino-fabrica-de-software/chamada/internal/service"
	"github.com/saturnino-fabrica-de-software/chamada/internal/store"
	"github.com/saturnino-fabrica-de-software/chamada/internal/ws"
)

type Dependencies struct {
	Store        store.Store
	FaceProvider provider.FaceProvider
	// QualityGate é opcional; nil desliga a triagem de fotos.
	QualityGate provider.QualityChecker

	Credentials  admin.Credentials
	JWTService   *admin.JWTService
	SecureCookie bool

	NodeName           string
	CameraNode         string
	UploadDir          string
	StatusPollInterval time.Duration

	// Audit defaults to structured log lines.
	Audit audit.Logger
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	loginLimit  *middleware.RateLimiter
	wsHub       *ws.Hub
	cancelHub   context.CancelFunc
	cancelWatch context.CancelFunc
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Chamada Dashboard",
		BodyLimit:    12 * 1024 * 1024,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Swagger documentation (no auth required)
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	var pinger handler.Pinger
	if r.deps != nil && r.deps.Store != nil {
		pinger = r.deps.Store
	}
	healthHandler := handler.NewHealthHandler(pinger)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps == nil {
		return
	}

	r.wsHub = ws.NewHub(r.logger)
	hubCtx, hubCancel := context.WithCancel(context.Background())
	r.cancelHub = hubCancel
	go r.wsHub.Run(hubCtx)

	enrollment := service.NewEnrollmentService(r.deps.Store, r.deps.FaceProvider, r.deps.UploadDir, r.logger).
		WithPublisher(r.wsHub)
	if r.deps.QualityGate != nil {
		enrollment.WithQualityGate(r.deps.QualityGate, service.DefaultMinQuality)
	}
	reports := service.NewReportService(r.deps.Store)
	status := service.NewStatusService(r.deps.Store, r.deps.NodeName, r.deps.CameraNode, r.logger)

	watcher := ws.NewStatusWatcher(status, r.wsHub, r.logger, r.deps.StatusPollInterval)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	r.cancelWatch = watchCancel
	go watcher.Run(watchCtx)

	auditLogger := r.deps.Audit
	if auditLogger == nil {
		auditLogger = audit.NewSlogLogger(r.logger)
	}

	// Login
	authHandler := handler.NewAuthHandler(r.deps.Credentials, r.deps.JWTService, r.deps.SecureCookie, auditLogger, r.logger)
	r.loginLimit = middleware.NewRateLimiter(middleware.LoginRateLimiterConfig())
	r.app.Post("/login", r.loginLimit.Handler(), authHandler.Login)
	r.app.Get("/logout", authHandler.Logout)

	requireSession := middleware.RequireSession(middleware.SessionDependencies{
		JWTService: r.deps.JWTService,
		Logger:     r.logger,
		Secure:     r.deps.SecureCookie,
	})

	apiGroup := r.app.Group("/api", requireSession)

	studentHandler := handler.NewStudentHandler(enrollment, auditLogger, r.logger)
	apiGroup.Get("/students", studentHandler.List)
	apiGroup.Post("/students", studentHandler.Create)
	apiGroup.Get("/students/:id", studentHandler.Get)
	apiGroup.Delete("/students/:id", studentHandler.Delete)

	attendanceHandler := handler.NewAttendanceHandler(reports, r.logger)
	apiGroup.Get("/attendance", attendanceHandler.Sheet)
	apiGroup.Get("/attendance/report", attendanceHandler.Report)
	apiGroup.Get("/attendance/logs", attendanceHandler.Logs)
	apiGroup.Get("/festivals", attendanceHandler.Festivals)

	systemHandler := handler.NewSystemHandler(status)
	apiGroup.Get("/system-status", systemHandler.Status)

	// Fotos cadastradas
	r.app.Use("/uploads", requireSession)
	r.app.Static("/uploads", r.deps.UploadDir, fiber.Static{Browse: false})

	// WebSocket endpoint
	r.app.Get("/ws", requireSession, ws.UpgradeMiddleware(), ws.Handler(r.wsHub))
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	if r.cancelWatch != nil {
		r.cancelWatch()
	}
	if r.cancelHub != nil {
		r.cancelHub()
	}
	if r.loginLimit != nil {
		r.loginLimit.Stop()
	}

	return r.app.Shutdown()
}
