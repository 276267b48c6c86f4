package router

import (
	"github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/api/handlers"
	"github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/api/middleware"
	"github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/config"
	"github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/infrastructure/cache"
	"github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/infrastructure/database"
	"github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/infrastructure/queue"
	"github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/infrastructure/repository"
	"github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/infrastructure/storage"
	interfaces "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/interfaces/infrastructure"
	"github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/service"
	"github.com/XwcdX/MANPRO-SKRIPSI-sub000/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RouterComponents bundles the engine with the background collaborators the
// server command must stop on shutdown.
type RouterComponents struct {
	Router   *gin.Engine
	Notifier interfaces.NotificationService
}

func NewRouter(db *gorm.DB) *RouterComponents {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Logger())
	r.Use(cors.Default())
	r.Use(gin.Recovery())

	cfg := config.Get()

	studentRepo := repository.NewStudentRepository(db)
	lecturerRepo := repository.NewLecturerRepository(db)
	venueRepo := repository.NewVenueRepository(db)
	periodRepo := repository.NewPeriodRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	quotaRepo := repository.NewQuotaRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	supervisionAppRepo := repository.NewSupervisionApplicationRepository(db)
	topicRepo := repository.NewTopicRepository(db)
	topicAppRepo := repository.NewTopicApplicationRepository(db)
	presentationRepo := repository.NewPresentationRepository(db)
	historyRepo := repository.NewHistoryRepository(db)

	txManager := database.NewTxManager(db)

	var capacityCache interfaces.CapacityCache
	if cfg.Cache.Enabled {
		capacityCache = cache.NewRedisCacheWithConfig(&cfg.Cache)
		logger.Info("Capacity cache enabled at %s:%d", cfg.Cache.Host, cfg.Cache.Port)
	} else {
		logger.Info("Capacity cache disabled, reads go straight to the database")
	}

	fileStore := storage.NewLocalFileStore(cfg.Storage.BasePath)
	notifier := queue.NewInMemoryQueue(cfg.Queue.BufferSize, cfg.Queue.Workers, nil)
	notifier.StartWorkers()

	defaults := service.AcademicDefaults{
		DefaultQuota:        cfg.Academic.DefaultQuota,
		ProposalSlotMinutes: cfg.Academic.ProposalSlotMinutes,
		ThesisSlotMinutes:   cfg.Academic.ThesisSlotMinutes,
		DayStart:            cfg.Academic.DayStart,
		DayEnd:              cfg.Academic.DayEnd,
		BreakStart:          cfg.Academic.BreakStart,
		BreakEnd:            cfg.Academic.BreakEnd,
	}

	periodService := service.NewPeriodService(
		periodRepo, scheduleRepo, availabilityRepo, presentationRepo,
		studentRepo, historyRepo, txManager, notifier, defaults,
	)
	availabilityService := service.NewAvailabilityService(availabilityRepo, scheduleRepo, presentationRepo)
	quotaService := service.NewQuotaService(quotaRepo, assignmentRepo, periodRepo, capacityCache)
	supervisionService := service.NewSupervisionService(
		supervisionAppRepo, assignmentRepo, studentRepo, lecturerRepo, periodRepo,
		historyRepo, quotaService, txManager, capacityCache, fileStore, notifier,
	)
	topicService := service.NewTopicService(
		topicRepo, topicAppRepo, supervisionAppRepo, assignmentRepo, studentRepo,
		lecturerRepo, periodRepo, historyRepo, quotaService, txManager,
		capacityCache, fileStore, notifier,
	)
	presentationService := service.NewPresentationService(
		presentationRepo, scheduleRepo, studentRepo, lecturerRepo, venueRepo,
		historyRepo, txManager, fileStore, notifier,
	)

	periodHandler := handlers.NewPeriodHandler(periodService, periodRepo, scheduleRepo)
	availabilityHandler := handlers.NewAvailabilityHandler(availabilityService)
	quotaHandler := handlers.NewQuotaHandler(quotaService)
	supervisionHandler := handlers.NewSupervisionHandler(supervisionService, supervisionAppRepo)
	topicHandler := handlers.NewTopicHandler(topicService, topicRepo, topicAppRepo)
	presentationHandler := handlers.NewPresentationHandler(presentationService, presentationRepo)
	studentHandler := handlers.NewStudentHandler(studentRepo, historyRepo)
	healthHandler := handlers.NewHealthHandler(db, capacityCache)

	r.GET("/health", healthHandler.HealthCheck)
	r.GET("/ready", healthHandler.ReadinessCheck)
	r.GET("/live", healthHandler.LivenessCheck)

	v1 := r.Group("/api/v1")
	{
		periods := v1.Group("/periods")
		{
			periods.POST("", periodHandler.CreatePeriod)
			periods.GET("", periodHandler.ListPeriods)
			periods.GET("/:period_id", periodHandler.GetPeriod)
			periods.POST("/:period_id/archive", periodHandler.ArchivePeriod)
			periods.POST("/:period_id/register", periodHandler.RegisterStudent)
			periods.GET("/:period_id/schedules", periodHandler.ListSchedules)
			periods.GET("/:period_id/proposal-hearings/upcoming", periodHandler.UpcomingProposalHearings)
		}

		schedules := v1.Group("/schedules")
		{
			schedules.POST("", periodHandler.CreateSchedule)
			schedules.PUT("/:schedule_id", periodHandler.UpdateSchedule)
			schedules.DELETE("/:schedule_id", periodHandler.DeleteSchedule)
			schedules.GET("/:schedule_id/availability", availabilityHandler.GetAvailability)
			schedules.GET("/:schedule_id/presentations", presentationHandler.ListBySchedule)
		}

		v1.PUT("/availability", availabilityHandler.SaveAvailability)

		lecturers := v1.Group("/lecturers")
		{
			lecturers.GET("/:lecturer_id/periods/:period_id/quota", quotaHandler.GetQuota)
			lecturers.PUT("/:lecturer_id/periods/:period_id/quota", quotaHandler.SetQuota)
		}

		supervision := v1.Group("/supervision-applications")
		{
			supervision.POST("", supervisionHandler.Apply)
			supervision.GET("", supervisionHandler.ListByLecturer)
			supervision.POST("/:application_id/accept", supervisionHandler.Accept)
			supervision.POST("/:application_id/decline", supervisionHandler.Decline)
		}

		topics := v1.Group("/topics")
		{
			topics.POST("", topicHandler.CreateTopic)
			topics.GET("", topicHandler.ListTopics)
		}

		topicApps := v1.Group("/topic-applications")
		{
			topicApps.POST("", topicHandler.Apply)
			topicApps.GET("", topicHandler.ListApplications)
			topicApps.POST("/:application_id/accept", topicHandler.Accept)
			topicApps.POST("/:application_id/decline", topicHandler.Decline)
			topicApps.POST("/:application_id/release", topicHandler.Release)
			topicApps.POST("/:application_id/reopen", topicHandler.Reopen)
		}

		presentations := v1.Group("/presentations")
		{
			presentations.GET("/available-lecturers", presentationHandler.AvailableLecturers)
			presentations.POST("", presentationHandler.Create)
			presentations.PUT("/:presentation_id", presentationHandler.Update)
			presentations.DELETE("/:presentation_id", presentationHandler.Delete)
			presentations.POST("/:presentation_id/decision", presentationHandler.RecordDecision)
		}

		students := v1.Group("/students")
		{
			students.GET("/:student_id", studentHandler.GetStudent)
			students.GET("/:student_id/history", studentHandler.GetHistory)
		}
	}

	return &RouterComponents{
		Router:   r,
		Notifier: notifier,
	}
}
