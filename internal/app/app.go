package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/aidar/taskflow/internal/config"
	"github.com/aidar/taskflow/internal/handler"
	"github.com/aidar/taskflow/internal/middleware"
	"github.com/aidar/taskflow/internal/ratelimit"
	"github.com/aidar/taskflow/internal/repository"
	"github.com/aidar/taskflow/internal/worker"
)

// pruneInterval период удаления истекших приглашений
const pruneInterval = time.Hour

// App представляет приложение со всеми зависимостями
type App struct {
	config   *config.Config
	store    repository.Store
	limiter  *ratelimit.RedisLimiter
	services *Services
	worker   *worker.TrackerWorker
	server   *http.Server
	logger   *slog.Logger

	stopWorker context.CancelFunc
	workerDone chan struct{}
}

// New создает новый экземпляр приложения
func New(cfg *config.Config) (*App, error) {
	// Инициализируем структурированный логгер (JSON формат)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	app := &App{
		config: cfg,
		logger: logger,
	}

	return app, nil
}

// Initialize инициализирует все компоненты приложения
func (a *App) Initialize(ctx context.Context) error {
	if err := a.initSentry(); err != nil {
		return fmt.Errorf("failed to init sentry: %w", err)
	}

	store, err := OpenStore(ctx, a.config.Storage, a.logger)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	a.store = store

	// Redis нужен только для rate limit прокси маршрутов
	if a.config.Redis.URL != "" {
		limiter, err := ratelimit.NewRedisLimiter(ctx, a.config.Redis.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.limiter = limiter
		a.logger.Info("Connected to redis")
	}

	services, err := NewServices(a.config, a.store, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create services: %w", err)
	}
	a.services = services

	a.worker = worker.NewTrackerWorker(services.Tasks, services.Teams, worker.Intervals{
		Notifications: a.config.Tracker.NotificationInterval,
		Idle:          a.config.Tracker.IdleInterval,
		Prune:         pruneInterval,
	}, a.logger)

	// Настраиваем HTTP сервер и роутинг
	a.setupServer()

	a.logger.Info("Application initialized successfully")
	return nil
}

// initSentry включает отправку ошибок, если задан DSN
func (a *App) initSentry() error {
	if a.config.Sentry.DSN == "" {
		return nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         a.config.Sentry.DSN,
		Environment: a.config.Sentry.Environment,
	}); err != nil {
		return err
	}
	a.logger.Info("Sentry enabled", "environment", a.config.Sentry.Environment)
	return nil
}

// rateLimiter возвращает nil интерфейс, если Redis не настроен
func (a *App) rateLimiter() ratelimit.Limiter {
	if a.limiter == nil {
		return nil
	}
	return a.limiter
}

// setupServer инициализирует HTTP роутер и обработчики
func (a *App) setupServer() {
	s := a.services

	// Инициализируем HTTP обработчики
	authHandler := handler.NewAuthHandler(s.Auth)
	taskHandler := handler.NewTaskHandler(s.Tasks)
	teamHandler := handler.NewTeamHandler(s.Teams)
	subscriptionHandler := handler.NewSubscriptionHandler(s.Subscription)
	settingsHandler := handler.NewSettingsHandler(s.Credentials)
	aiHandler := handler.NewAIHandler(s.Assistant)
	proxyHandler := handler.NewProxyHandler(s.Assistant, a.logger)
	calendarHandler := handler.NewCalendarHandler(s.Calendar)
	statsHandler := handler.NewStatsHandler(s.Stats)
	staticHandler := handler.NewStaticHandler(a.config.Server.StaticDir, a.config.Server.LandingPage, a.logger)

	// Инициализируем middleware для JWT авторизации
	authMiddleware := middleware.AuthMiddleware(s.Auth)
	proxyLimit := middleware.RateLimit(a.rateLimiter(), "proxy", a.config.Redis.ProxyPerMinute, time.Minute, a.logger)

	// Настраиваем роутер
	r := chi.NewRouter()

	// Глобальные middleware (применяются ко всем запросам)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// Публичные эндпоинты (без авторизации)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.With(authMiddleware).Get("/me", authHandler.Me)
	})

	// Health check для мониторинга
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			a.logger.Error("Failed to write health check response", "error", err)
		}
	})

	r.Get("/subscription/plans", subscriptionHandler.Plans)
	r.Post("/subscription/webhook", subscriptionHandler.Webhook)
	r.Get("/stats", statsHandler.GetStats)

	// Прокси OpenAI: ключ в теле запроса, метод проверяет обработчик
	r.Route("/api", func(r chi.Router) {
		r.Use(proxyLimit)
		r.HandleFunc("/translate", proxyHandler.Translate)
		r.HandleFunc("/ocr", proxyHandler.OCR)
		r.HandleFunc("/analyze", proxyHandler.Analyze)
		r.HandleFunc("/calendar", proxyHandler.Calendar)
	})

	// Защищенные эндпоинты (требуют JWT токен в заголовке Authorization)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		// Эндпоинты задач
		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.ListTasks)
			r.Post("/", taskHandler.CreateTask)
			r.Delete("/", taskHandler.ClearTasks)
			r.Get("/stats", taskHandler.Stats)
			r.Get("/calendar", taskHandler.Calendar)
			r.Get("/export", taskHandler.Export)

			r.Route("/{taskID}", func(r chi.Router) {
				r.Get("/", taskHandler.GetTask)
				r.Delete("/", taskHandler.DeleteTask)
				r.Post("/start", taskHandler.StartTimer)
				r.Post("/stop", taskHandler.StopTimer)
				r.Post("/toggle", taskHandler.ToggleComplete)
				r.Post("/comments", taskHandler.AddComment)
				r.Post("/reminder", taskHandler.SetReminder)
				r.Delete("/reminder", taskHandler.ClearReminder)
			})
		})

		r.Get("/analytics", taskHandler.Analytics)
		r.Get("/notifications", taskHandler.Notifications)
		r.Delete("/notifications/{notificationID}", taskHandler.AckNotification)
		r.Post("/activity", taskHandler.Activity)
		r.Get("/stats/me", statsHandler.GetUserStats)

		// Эндпоинты команд и приглашений
		r.Route("/teams", func(r chi.Router) {
			r.Get("/", teamHandler.ListTeams)
			r.Post("/", teamHandler.CreateTeam)
			r.Get("/{teamID}", teamHandler.GetTeam)
			r.Post("/{teamID}/invitations", teamHandler.Invite)
		})
		r.Get("/invitations", teamHandler.ListInvitations)
		r.Post("/invitations/{invitationID}/accept", teamHandler.AcceptInvitation)

		// Подписка
		r.Get("/subscription", subscriptionHandler.Current)
		r.Post("/subscription/checkout", subscriptionHandler.Checkout)

		// Ключи сторонних API
		r.Get("/settings/credentials", settingsHandler.GetCredentials)
		r.Put("/settings/credentials", settingsHandler.UpdateCredentials)

		// AI помощник с ключом из настроек
		r.Route("/ai", func(r chi.Router) {
			r.Get("/languages", aiHandler.Languages)
			r.Post("/translate", aiHandler.Translate)
			r.Post("/enhance", aiHandler.Enhance)
			r.Post("/extract", aiHandler.ExtractTasks)
			r.Post("/suggest", aiHandler.Suggest)
			r.Post("/calendar-event", aiHandler.CalendarEvent)
			r.Post("/analyze", aiHandler.Analyze)
			r.Post("/ocr", aiHandler.OCR)
		})

		// Google Calendar
		r.Route("/calendar", func(r chi.Router) {
			r.Get("/connect", calendarHandler.ConnectURL)
			r.Post("/connect", calendarHandler.Connect)
			r.Post("/events", calendarHandler.CreateEvent)
			r.Post("/meetings", calendarHandler.CreateMeeting)
		})
	})

	// Все остальное отдается как статика фронтенда
	r.NotFound(staticHandler.ServeHTTP)

	// Создаем HTTP сервер с настройками таймаутов
	addr := fmt.Sprintf("%s:%s", a.config.Server.Host, a.config.Server.Port)
	a.server = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	a.logger.Info("HTTP server configured", "addr", addr)
}

// Run запускает фоновые проверки и HTTP сервер
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	a.stopWorker = cancel
	a.workerDone = make(chan struct{})
	go func() {
		defer close(a.workerDone)
		a.worker.Start(ctx)
	}()

	a.logger.Info("Starting HTTP server", "addr", a.server.Addr)
	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown корректно останавливает приложение
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application")

	// Останавливаем HTTP сервер (ждем завершения текущих запросов)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	if a.stopWorker != nil {
		a.stopWorker()
		<-a.workerDone
	}

	if a.limiter != nil {
		if err := a.limiter.Close(); err != nil {
			a.logger.Error("Failed to close redis", "error", err)
		}
	}

	// Закрываем хранилище
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}

	sentry.Flush(2 * time.Second)

	a.logger.Info("Application stopped gracefully")
	return nil
}
