package app

import (
	"database/sql"
	"fmt"
	"log"

	"lexflow/internal/config"
	"lexflow/internal/handlers"
	"lexflow/internal/pdf"
	"lexflow/internal/repositories"
	"lexflow/internal/routes"
	"lexflow/internal/services"
	"lexflow/internal/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
)

func Run() {
	cfg := config.LoadConfig()

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("failed to connect to database: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("failed to close database: %v", err)
		}
	}()

	// === Repos ===
	taskRepo := repositories.NewTaskRepository(db)
	deadlineRepo := repositories.NewDeadlineRepository(db)
	workflowRepo := repositories.NewWorkflowRepository(db)
	userRepo := repositories.NewUserRepository(db)
	caseRepo := repositories.NewCaseRepository(db)

	// === Services ===
	tgService := services.NewTelegramService(cfg.Telegram.BotToken)
	smsClient := utils.NewSMSClient(cfg.SMS.APIKey, cfg.SMS.SenderID, cfg.SMS.DryRun)
	notifier := services.NewNotificationService(
		userRepo,
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
		tgService,
		smsClient,
	)

	taskService := services.NewTaskService(taskRepo)
	lifecycleService := services.NewTaskLifecycleService(taskRepo, userRepo, notifier)
	workflowService := services.NewWorkflowService(workflowRepo, taskRepo, caseRepo, userRepo, notifier)
	deadlineService := services.NewDeadlineService(deadlineRepo, caseRepo, notifier)
	summaryService := services.NewSummaryService(deadlineService, taskRepo, userRepo, notifier)

	schedulerService := services.NewSchedulerService(
		services.JobIntervals{
			OverdueTaskCheck:  cfg.Scheduler.OverdueTaskCheck,
			UpcomingTaskCheck: cfg.Scheduler.UpcomingTaskCheck,
			RecurringTasks:    cfg.Scheduler.RecurringTasks,
			UpcomingDeadlines: cfg.Scheduler.UpcomingDeadlines,
			OverdueDeadlines:  cfg.Scheduler.OverdueDeadlines,
			DailySummary:      cfg.Scheduler.DailySummary,
		},
		lifecycleService,
		deadlineService,
		summaryService,
	)
	if err := schedulerService.Initialize(); err != nil {
		log.Fatal("failed to start scheduler: ", err)
	}
	defer schedulerService.Stop()

	reportGen := pdf.NewReportGenerator()

	// === Handlers ===
	jwtSecret := []byte(cfg.Auth.JWTSecret)
	authHandler := handlers.NewAuthHandler(userRepo, jwtSecret)
	taskHandler := handlers.NewTaskHandler(taskService, lifecycleService)
	workflowHandler := handlers.NewWorkflowHandler(workflowService)
	deadlineHandler := handlers.NewDeadlineHandler(deadlineService)
	schedulerHandler := handlers.NewSchedulerHandler(schedulerService)
	reportHandler := handlers.NewReportHandler(deadlineService, reportGen)

	// === Gin ===
	router := gin.Default()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	routes.SetupRoutes(
		router,
		jwtSecret,
		authHandler,
		taskHandler,
		workflowHandler,
		deadlineHandler,
		schedulerHandler,
		reportHandler,
	)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("server listening on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("failed to start server: ", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
