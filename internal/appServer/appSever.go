package appServer

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/shutterdesk/shutterdesk/config"
	repository "github.com/shutterdesk/shutterdesk/internal/database/postgres"
	"github.com/shutterdesk/shutterdesk/internal/service"
	"github.com/shutterdesk/shutterdesk/internal/transport"
	"github.com/shutterdesk/shutterdesk/internal/worker"

	"github.com/shutterdesk/shutterdesk/pkg/mailer"
	"github.com/shutterdesk/shutterdesk/pkg/payments"
	"github.com/shutterdesk/shutterdesk/pkg/postgres"
	"github.com/shutterdesk/shutterdesk/pkg/queue"
	"github.com/shutterdesk/shutterdesk/pkg/redis"
	"github.com/shutterdesk/shutterdesk/pkg/scheduler"
	"github.com/shutterdesk/shutterdesk/pkg/telegram"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12}, // ban on outdated TLS
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func NewServer(cfg *config.Config) {

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)

	// Initialize database
	db, err := postgres.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run database migrations
	if err := postgres.RunMigrations(db); err != nil {
		logrus.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories
	bookingRepo := repository.NewBookingRepository(db)
	clientRepo := repository.NewClientRepository(db)

	// Initialize Stripe client
	stripeClient := payments.NewClient(&cfg.Stripe)
	logrus.Info("Stripe client initialized")

	// Initialize email delivery
	smtpMailer := mailer.NewMailer(&cfg.Email)
	if !cfg.Email.Enabled {
		logrus.Warn("Email delivery disabled, outgoing mail will be dropped")
	}

	// Initialize Telegram bot
	var telegramBot *telegram.Bot
	if cfg.Telegram.Enabled && cfg.Telegram.BotToken != "" {
		telegramBot = telegram.NewBot(cfg.Telegram.BotToken)
		logrus.Info("Telegram bot initialized")
	} else {
		logrus.Warn("Telegram bot not configured, owner notifications fall back to email")
	}

	var redisQueue queue.Queue
	var taskPublisher service.TaskPublisher

	redisClient := redis.NewRedisClient(&cfg.Redis)
	defer redisClient.Close()

	retryManager := queue.NewRetryManager(3, 5*time.Second)
	queueCfg := queue.DefaultRedisQueueConfig()
	dlqHandler := queue.NewDefaultDLQHandler(redisClient, queueCfg.DLQ, queueCfg.MainQueue)

	redisQueue, err = queue.NewRedisQueue(redisClient, queueCfg, retryManager, dlqHandler)
	if err != nil {
		logrus.Errorf("Failed to initialize Redis queue: %v. Continuing without queue...", err)
		redisQueue = nil
	} else {
		logrus.Info("Redis queue initialized")
		taskPublisher = service.NewQueueAdapter(redisQueue)
	}

	// Initialize services
	bookingService := service.NewBookingService(bookingRepo, clientRepo, taskPublisher,
		cfg.Booking.FollowUpAfterDays, cfg.Booking.ReminderGraceDays)
	clientService := service.NewClientService(clientRepo, bookingRepo)
	paymentService := service.NewPaymentService(bookingRepo, clientRepo, stripeClient, taskPublisher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start queue consumer if the queue is available
	if redisQueue != nil {
		var bot queue.TelegramBot
		if telegramBot != nil {
			bot = telegramBot
		}
		taskHandler := queue.NewTaskHandler(smtpMailer, bot,
			cfg.Telegram.ChatID, cfg.Booking.PhotographerName,
			cfg.Booking.PhotographerEmail, cfg.Booking.PortalBaseURL)

		go func() {
			if err := redisQueue.Subscribe(ctx, taskHandler.HandleTask); err != nil {
				logrus.Errorf("Queue subscriber error: %v", err)
			}
		}()
		logrus.Info("Queue subscriber started")
	}

	// Start payment reminder scheduler
	reminderScheduler := scheduler.NewScheduler(bookingService, cfg.Worker.ReminderInterval)
	go reminderScheduler.Start(ctx)
	logrus.Info("Payment reminder scheduler started")

	// Start proposal follow-up worker
	followUpWorker := worker.NewProposalFollowUpWorker(bookingService, cfg.Worker.FollowUpInterval)
	go followUpWorker.Start(ctx)
	logrus.Info("Proposal follow-up worker started")

	// Initialize handlers
	clientHandler := transport.NewClientHandler(clientService)
	bookingHandler := transport.NewBookingHandler(bookingService)
	paymentHandler := transport.NewPaymentHandler(paymentService, stripeClient)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, transport.InitRoutes(clientHandler, bookingHandler, paymentHandler)); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	if err := srv.Shutdown(context.Background()); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}

	if redisQueue != nil {
		if err := redisQueue.Close(); err != nil {
			logrus.Errorf("error occured on queue shutting down: %s", err.Error())
		}
	}
}
