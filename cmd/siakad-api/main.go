package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/syauqi357/siakad-madrasah-sub000/api/swagger"
	"github.com/syauqi357/siakad-madrasah-sub000/internal/handler"
	"github.com/syauqi357/siakad-madrasah-sub000/internal/middleware"
	"github.com/syauqi357/siakad-madrasah-sub000/internal/models"
	"github.com/syauqi357/siakad-madrasah-sub000/internal/repository"
	"github.com/syauqi357/siakad-madrasah-sub000/internal/service"
	"github.com/syauqi357/siakad-madrasah-sub000/pkg/cache"
	"github.com/syauqi357/siakad-madrasah-sub000/pkg/config"
	"github.com/syauqi357/siakad-madrasah-sub000/pkg/database"
	"github.com/syauqi357/siakad-madrasah-sub000/pkg/logger"
	corsmiddleware "github.com/syauqi357/siakad-madrasah-sub000/pkg/middleware/cors"
	reqidmiddleware "github.com/syauqi357/siakad-madrasah-sub000/pkg/middleware/requestid"
)

// @title SIAKAD Madrasah API
// @version 1.0.0
// @description School administration backend: student lifecycle, rombel management and score reporting
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Promotion.TargetCacheTTL, logr, true)
	}

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	rombelRepo := repository.NewRombelRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	classRepo := repository.NewClassRepository(db)
	yearRepo := repository.NewAcademicYearRepository(db)
	curriculumRepo := repository.NewCurriculumRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	buildingRepo := repository.NewBuildingRepository(db)

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "siakad-madrasah",
	})
	studentSvc := service.NewStudentService(studentRepo, historyRepo, nil, logr)
	enrollmentSvc := service.NewEnrollmentService(studentRepo, rombelRepo, historyRepo, db, nil, logr)
	rombelSvc := service.NewRombelService(rombelRepo, studentRepo, classRepo, yearRepo, historyRepo, attendanceRepo, cacheSvc, metricsSvc, db, nil, logr, service.RombelServiceConfig{
		DefaultYearName: cfg.Academic.DefaultYearName,
		TargetCacheTTL:  cfg.Promotion.TargetCacheTTL,
	})
	scoreSvc := service.NewScoreService(scoreRepo, subjectRepo, nil, logr)
	yearSvc := service.NewAcademicYearService(yearRepo, nil, logr)
	curriculumSvc := service.NewCurriculumService(curriculumRepo, nil, logr)
	classSvc := service.NewClassService(classRepo, nil, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, rombelRepo, teacherRepo, nil, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, nil, logr)
	buildingSvc := service.NewBuildingService(buildingRepo, nil, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, rombelRepo, nil, logr)
	exportSvc := service.NewExportService(rombelRepo, studentRepo, scoreSvc, nil, nil, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	rombelHandler := handler.NewRombelHandler(rombelSvc)
	scoreHandler := handler.NewScoreHandler(scoreSvc)
	yearHandler := handler.NewAcademicYearHandler(yearSvc)
	curriculumHandler := handler.NewCurriculumHandler(curriculumSvc)
	classHandler := handler.NewClassHandler(classSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	buildingHandler := handler.NewBuildingHandler(buildingSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db, redisClient)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.POST("/auth/logout", authHandler.Logout)
	authed.POST("/auth/change-password", authHandler.ChangePassword)
	authed.GET("/auth/me", authHandler.Me)

	authed.GET("/metrics/snapshot", metricsHandler.Snapshot)

	// Read endpoints are open to every authenticated role.
	authed.GET("/students", studentHandler.List)
	authed.GET("/students/:id", studentHandler.Get)
	authed.GET("/students/:id/history", studentHandler.History)
	authed.GET("/rombels", rombelHandler.List)
	authed.GET("/rombels/:id", rombelHandler.Get)
	authed.GET("/rombels/:id/students", rombelHandler.Members)
	authed.GET("/rombels/:id/subjects", subjectHandler.ListByRombel)
	authed.GET("/rombels/:id/attendance", attendanceHandler.ListByDate)
	authed.GET("/rombels/promotion-targets", rombelHandler.Targets)
	authed.GET("/classes", classHandler.List)
	authed.GET("/classes/:id", classHandler.Get)
	authed.GET("/subjects", subjectHandler.List)
	authed.GET("/subjects/:id", subjectHandler.Get)
	authed.GET("/teachers", teacherHandler.List)
	authed.GET("/teachers/:id", teacherHandler.Get)
	authed.GET("/curricula", curriculumHandler.List)
	authed.GET("/academic-years", yearHandler.List)
	authed.GET("/academic-years/active", yearHandler.Active)
	authed.GET("/buildings", buildingHandler.List)
	authed.GET("/buildings/:id", buildingHandler.Get)
	authed.GET("/assessment-types", scoreHandler.ListAssessmentTypes)
	authed.GET("/students/:id/scores/:class_subject_id", scoreHandler.SubjectReport)
	authed.GET("/rombels/:id/export/roster", exportHandler.RosterCSV)
	authed.GET("/students/:id/scores/:class_subject_id/export", exportHandler.ScoreReportPDF)

	// Score entry and attendance are open to teaching staff.
	staff := authed.Group("")
	staff.Use(middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher))
	staff.PUT("/scores", scoreHandler.UpsertScore)
	staff.POST("/rombels/:id/attendance", attendanceHandler.Record)

	// Mutations on master data and the student lifecycle are admin-only.
	admin := authed.Group("")
	admin.Use(middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin))

	admin.POST("/students", studentHandler.Create)
	admin.PUT("/students/:id", studentHandler.Update)
	admin.DELETE("/students/:id", studentHandler.Delete)

	lifecycle := admin.Group("")
	lifecycle.POST("/students/:id/graduate", middleware.Audit(userRepo, "GRADUATE", "student"), enrollmentHandler.Graduate)
	lifecycle.POST("/students/graduate", middleware.Audit(userRepo, "BULK_GRADUATE", "student"), enrollmentHandler.BulkGraduate)
	lifecycle.POST("/students/:id/mutasi", middleware.Audit(userRepo, "MUTASI", "student"), enrollmentHandler.Withdraw)
	lifecycle.PUT("/students/:id/history", middleware.Audit(userRepo, "UPDATE_HISTORY", "student_history"), enrollmentHandler.UpdateHistory)

	admin.POST("/rombels", middleware.Audit(userRepo, "REGISTER", "rombel"), rombelHandler.Register)
	admin.POST("/rombels/:id/students", middleware.Audit(userRepo, "ADD_STUDENTS", "rombel"), rombelHandler.AddStudents)
	admin.POST("/rombels/promote", middleware.Audit(userRepo, "PROMOTE", "rombel"), rombelHandler.Promote)
	admin.DELETE("/rombels/:id", middleware.Audit(userRepo, "DELETE", "rombel"), rombelHandler.Delete)
	admin.POST("/rombels/:id/subjects", subjectHandler.Assign)
	admin.DELETE("/class-subjects/:id", subjectHandler.Unassign)

	admin.POST("/classes", classHandler.Create)
	admin.PUT("/classes/:id", classHandler.Update)
	admin.DELETE("/classes/:id", classHandler.Delete)
	admin.POST("/subjects", subjectHandler.Create)
	admin.PUT("/subjects/:id", subjectHandler.Update)
	admin.DELETE("/subjects/:id", subjectHandler.Delete)
	admin.POST("/teachers", teacherHandler.Create)
	admin.PUT("/teachers/:id", teacherHandler.Update)
	admin.DELETE("/teachers/:id", teacherHandler.Delete)
	admin.POST("/curricula", curriculumHandler.Create)
	admin.PUT("/curricula/:id", curriculumHandler.Update)
	admin.POST("/curricula/:id/activate", curriculumHandler.SetActive)
	admin.DELETE("/curricula/:id", curriculumHandler.Delete)
	admin.POST("/academic-years", yearHandler.Create)
	admin.POST("/academic-years/:id/activate", yearHandler.SetActive)
	admin.DELETE("/academic-years/:id", yearHandler.Delete)
	admin.POST("/buildings", buildingHandler.Create)
	admin.PUT("/buildings/:id", buildingHandler.Update)
	admin.DELETE("/buildings/:id", buildingHandler.Delete)
	admin.POST("/assessment-types", scoreHandler.CreateAssessmentType)
	admin.PUT("/assessment-types/:id", scoreHandler.UpdateAssessmentType)
	admin.DELETE("/assessment-types/:id", scoreHandler.DeleteAssessmentType)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
