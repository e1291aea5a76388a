package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/senator-investech/access-api/internal/handler"
	"github.com/senator-investech/access-api/internal/middleware"
	"github.com/senator-investech/access-api/internal/models"
	"github.com/senator-investech/access-api/internal/repository"
	"github.com/senator-investech/access-api/internal/service"
	"github.com/senator-investech/access-api/pkg/cache"
	"github.com/senator-investech/access-api/pkg/config"
	"github.com/senator-investech/access-api/pkg/database"
	"github.com/senator-investech/access-api/pkg/jobs"
	"github.com/senator-investech/access-api/pkg/logger"
	corsmiddleware "github.com/senator-investech/access-api/pkg/middleware/cors"
	reqidmiddleware "github.com/senator-investech/access-api/pkg/middleware/requestid"
	"github.com/senator-investech/access-api/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsService := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Presence.CacheTTL, logr, redisClient != nil)

	accessLogRepo := repository.NewAccessLogRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	securityRepo := repository.NewSecurityRepository(db)
	userRepo := repository.NewUserRepository(db)
	reportRepo := repository.NewReportRepository(db)

	calendarService := service.NewCalendarService(calendarRepo, settingsRepo, cacheService, validate, logr, cfg.Attendance.ContinuousDays)
	presenceService := service.NewPresenceService(accessLogRepo, calendarService, cacheService, metricsService, logr, cfg.Presence.CacheTTL, cfg.Presence.DefaultWindowDays)
	anomalyService := service.NewAnomalyService(accessLogRepo, presenceService, calendarService, cacheService, metricsService, logr, cfg.Anomalies.CacheTTL, cfg.Anomalies.DefaultWindowDays)

	attendanceDefaults := models.AttendanceParams{
		WorkStartHour:     cfg.Attendance.WorkStartHour,
		WorkEndHour:       cfg.Attendance.WorkEndHour,
		LunchBreakEnabled: cfg.Attendance.LunchBreakEnabled,
		LunchStartHour:    cfg.Attendance.LunchStartHour,
		LunchEndHour:      cfg.Attendance.LunchEndHour,
		LunchDurationMin:  cfg.Attendance.LunchDurationMin,
		ContinuousDays:    cfg.Attendance.ContinuousDays,
	}
	attendanceService := service.NewAttendanceService(accessLogRepo, calendarService, settingsRepo, employeeRepo, cacheService, metricsService, validate, logr, attendanceDefaults)

	securityDefaults := models.DefaultSecuritySettings(cfg.Security.PasswordMinLength, cfg.Security.PreventReuse)
	securityService := service.NewSecurityService(securityRepo, settingsRepo, logr, securityDefaults)

	authService := service.NewAuthService(userRepo, securityService, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "access-api",
		SingleSession:      cfg.Security.SingleSession,
	})
	userService := service.NewUserService(userRepo, securityService, validate, logr)
	employeeService := service.NewEmployeeService(employeeRepo, logr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reportService *service.ReportService
	var reportQueue *jobs.Queue
	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init report storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		exportService := service.NewExportService(presenceService, anomalyService, attendanceService, store, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Reports.SignedURLTTL,
		}, logr)

		worker := service.NewReportWorker(reportRepo, exportService, cfg.Reports.WorkerRetries, logr)
		reportQueue = jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		reportQueue.Start(ctx)
		defer reportQueue.Stop()

		reportService = service.NewReportService(reportRepo, reportQueue, exportService, validate, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
			MaxRetries:      cfg.Reports.WorkerRetries,
		})
		reportService.RecoverPendingJobs(ctx)
		reportService.StartCleanup(ctx)
	}

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	presenceHandler := handler.NewPresenceHandler(presenceService, anomalyService)
	anomalyHandler := handler.NewAnomalyHandler(anomalyService)
	attendanceHandler := handler.NewAttendanceHandler(attendanceService)
	holidayHandler := handler.NewHolidayHandler(calendarService)
	employeeHandler := handler.NewEmployeeHandler(employeeService)
	securityHandler := handler.NewSecurityHandler(securityService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)

		protected := auth.Group("", middleware.JWT(authService))
		protected.POST("/logout", authHandler.Logout)
		protected.POST("/change-password", authHandler.ChangePassword)
		protected.GET("/me", authHandler.Me)
		protected.POST("/reset-password",
			middleware.RequireRoles(models.RoleAdmin),
			middleware.Audit(userRepo, "password_reset", "users"),
			authHandler.AdminResetPassword)
	}

	if reportService != nil {
		// Download is token-authenticated, not session-authenticated.
		reportHandler := handler.NewReportHandler(reportService, logr)
		api.GET("/export/:token", reportHandler.DownloadReport)

		reports := api.Group("/reports", middleware.JWT(authService))
		reports.POST("/generate",
			middleware.RequireRoles(models.RoleAdmin, models.RoleOperator),
			middleware.Audit(userRepo, "report_generate", "reports"),
			reportHandler.GenerateReport)
		reports.GET("", reportHandler.ListJobs)
		reports.GET("/status/:id", reportHandler.ReportStatus)
	}

	secured := api.Group("", middleware.JWT(authService))

	if cfg.Presence.Enabled {
		presence := secured.Group("/presence")
		presence.GET("/summary", presenceHandler.Summary)
		presence.GET("/anomalies", presenceHandler.Anomalies)
	}

	if cfg.Anomalies.Enabled {
		secured.GET("/anomalies", anomalyHandler.Report)
	}

	attendance := secured.Group("/attendance")
	{
		attendance.GET("/records", attendanceHandler.Records)
		attendance.GET("/params", attendanceHandler.Params)
		attendance.PUT("/params",
			middleware.RequireRoles(models.RoleAdmin),
			middleware.Audit(userRepo, "params_update", "attendance"),
			attendanceHandler.UpdateParams)
		attendance.POST("/manual",
			middleware.RequireRoles(models.RoleAdmin, models.RoleOperator),
			middleware.Audit(userRepo, "manual_entry", "attendance"),
			attendanceHandler.ManualEntry)
	}

	holidays := secured.Group("/calendar/holidays")
	{
		holidays.GET("", holidayHandler.List)
		admin := holidays.Group("", middleware.RequireRoles(models.RoleAdmin))
		admin.POST("", middleware.Audit(userRepo, "holiday_create", "holidays"), holidayHandler.Create)
		admin.PUT("/:id", middleware.Audit(userRepo, "holiday_update", "holidays"), holidayHandler.Update)
		admin.DELETE("/:id", middleware.Audit(userRepo, "holiday_delete", "holidays"), holidayHandler.Delete)
	}

	employees := secured.Group("/employees")
	{
		employees.GET("", employeeHandler.List)
		employees.GET("/departments", employeeHandler.Departments)
		employees.GET("/:badge", employeeHandler.Get)
	}
	secured.GET("/visitors", employeeHandler.Visitors)

	security := secured.Group("/security", middleware.RequireRoles(models.RoleAdmin))
	{
		security.GET("/settings", securityHandler.Settings)
		security.PUT("/settings",
			middleware.Audit(userRepo, "security_settings_update", "security"),
			securityHandler.UpdateSettings)
		security.GET("/incidents", securityHandler.Incidents)
	}

	users := secured.Group("/users")
	{
		users.GET("", middleware.RequireRoles(models.RoleAdmin), userHandler.List)
		users.GET("/:id", middleware.RBAC(string(models.RoleAdmin), "SELF"), userHandler.Get)
		admin := users.Group("", middleware.RequireRoles(models.RoleAdmin))
		admin.POST("", userHandler.Create)
		admin.PUT("/:id", userHandler.Update)
		admin.DELETE("/:id", userHandler.Delete)
	}

	secured.GET("/system/metrics", middleware.RequireRoles(models.RoleAdmin), metricsHandler.Snapshot)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logr.Sugar().Infow("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("forced shutdown", "error", err)
	}

	cancel()
	if reportQueue != nil {
		reportQueue.Stop()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	logr.Sugar().Infow("server stopped")
}
