package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "studyplan/docs"
	"studyplan/internal/calendar"
	"studyplan/internal/config"
	"studyplan/internal/db"
	"studyplan/internal/handlers"
	"studyplan/internal/pdf"
	"studyplan/internal/realtime"
	"studyplan/internal/repositories"
	"studyplan/internal/routes"
	"studyplan/internal/services"
	"studyplan/internal/urgency"
)

const shutdownTimeout = 10 * time.Second

// Run serves the HTTP API until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	// === DB ===
	conn, err := db.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Printf("[app][db][close][err] %v", err)
		}
	}()

	// === Repos ===
	taskRepo := repositories.NewTaskRepository(conn)
	examRepo := repositories.NewExamRepository(conn)
	linkRepo := repositories.NewTelegramLinkRepository(conn)

	// === Notifications ===
	hub := realtime.NewHub()
	notifiers := services.Notifiers{services.LogNotifier{}, hub}
	var linkIssuer handlers.LinkIssuer
	bot, err := services.NewTelegramBot(cfg.Telegram.Token)
	if err != nil {
		log.Printf("[app][tg][err] telegram disabled: %v", err)
	} else if bot != nil {
		telegram := services.NewQueuedNotifier(services.NewTelegramNotifier(bot, cfg.Telegram.Chats, linkRepo), 64)
		go telegram.Run(ctx)
		notifiers = append(notifiers, telegram)

		linker := services.NewTelegramLinker(linkRepo, taskRepo, bot)
		linkIssuer = linker
		u := tgbotapi.NewUpdate(0)
		u.Timeout = services.TelegramPollTimeout
		go linker.Listen(ctx, bot.GetUpdatesChan(u))
		defer bot.StopReceivingUpdates()
	}

	// === Services ===
	settings, err := ExamSettings(cfg)
	if err != nil {
		return err
	}
	workspace := services.NewWorkspace(taskRepo, examRepo, notifiers, settings)

	var mailer services.Mailer
	if cfg.Email.Enabled() {
		mailer = services.NewMailService(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.SMTPUser, cfg.Email.SMTPPassword, cfg.Email.FromEmail)
	}

	var publisher handlers.ExamPublisher
	if cfg.Calendar.Enabled {
		creds := calendar.Credentials{ClientSecretsFile: cfg.Calendar.ClientSecretsFile, TokenFile: cfg.Calendar.TokenFile}
		srv, err := creds.NewService(ctx)
		if err != nil {
			log.Printf("[app][calendar][err] calendar sync disabled: %v", err)
		} else {
			publisher = calendar.NewPublisher(calendar.NewEventStore(srv, cfg.Calendar.CalendarID))
		}
	}

	pdfGen := pdf.NewDocumentGenerator(cfg.Export.PDFFontPath)

	// === Handlers ===
	clock := handlers.Clock(time.Now)
	router := NewRouter([]byte(cfg.Auth.JWTSecret), routes.Handlers{
		Session:       handlers.NewSessionHandler(workspace),
		Tasks:         handlers.NewTaskHandler(workspace, clock),
		Exams:         handlers.NewExamHandler(workspace, clock, publisher),
		Exports:       handlers.NewExportHandler(workspace, clock, pdfGen, mailer),
		Notifications: handlers.NewNotificationHandler(hub),
		Integrations:  handlers.NewIntegrationsHandler(linkIssuer),
	})

	// === Run ===
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errs := make(chan error, 1)
	go func() {
		log.Printf("[app] listening on %s", server.Addr)
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		log.Printf("[app] shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[app][shutdown][err] %v", err)
			return server.Close()
		}
		return nil
	}
}

// NewRouter builds the gin engine with middleware, swagger and routes.
func NewRouter(jwtSecret []byte, h routes.Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	routes.SetupRoutes(router, jwtSecret, h)
	return router
}

// ExamSettings turns the planner section of cfg into collection settings.
func ExamSettings(cfg *config.Config) (services.ExamSettings, error) {
	start, err := urgency.ParseWeekday(cfg.Planner.WeekStartsOn)
	if err != nil {
		return services.ExamSettings{}, fmt.Errorf("planner.week_starts_on: %w", err)
	}
	return services.ExamSettings{WeekStartsOn: start, DefaultMinutes: cfg.Planner.DefaultExamMinutes}, nil
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
