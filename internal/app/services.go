package app

import (
	"fmt"
	"log/slog"

	"github.com/aidar/taskflow/internal/ai"
	"github.com/aidar/taskflow/internal/calendar"
	"github.com/aidar/taskflow/internal/config"
	"github.com/aidar/taskflow/internal/payment"
	"github.com/aidar/taskflow/internal/repository"
	"github.com/aidar/taskflow/internal/repository/kv"
	"github.com/aidar/taskflow/internal/service"
)

// Services содержит слой бизнес-логики поверх одного хранилища
type Services struct {
	Auth         *service.AuthService
	Teams        *service.TeamService
	Tasks        *service.TaskService
	Subscription *service.SubscriptionService
	Credentials  *service.CredentialService
	Assistant    *service.AssistantService
	Calendar     *service.CalendarService
	Stats        *service.StatsService
}

// NewServices собирает репозитории и сервисы
func NewServices(cfg *config.Config, store repository.Store, logger *slog.Logger) (*Services, error) {
	loc, err := cfg.Tracker.Location()
	if err != nil {
		return nil, err
	}

	// Инициализируем слой репозиториев
	userRepo := kv.NewUserRepository(store, logger)
	teamRepo := kv.NewTeamRepository(store, logger)
	invitationRepo := kv.NewInvitationRepository(store, logger)
	stateRepo := kv.NewStateRepository(store, logger)
	subscriptionRepo := kv.NewSubscriptionRepository(store, logger)
	credentialRepo := kv.NewCredentialRepository(store, logger)

	// Без ключа Stripe подписка активируется сразу
	var checkout service.CheckoutProvider
	if cfg.Stripe.StripeEnabled() {
		checkout = payment.NewStripe(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, cfg.Stripe.SuccessURL, cfg.Stripe.CancelURL)
		logger.Info("Stripe checkout enabled")
	}

	if cfg.Tracker.FreeTaskLimit <= 0 {
		return nil, fmt.Errorf("free task limit must be positive, got %d", cfg.Tracker.FreeTaskLimit)
	}
	plans := service.DefaultPlans(cfg.Tracker.FreeTaskLimit, cfg.Stripe.ProPriceID, cfg.Stripe.EnterprisePriceID)

	subscriptions := service.NewSubscriptionService(subscriptionRepo, checkout, plans, logger)
	tasks := service.NewTaskService(stateRepo, subscriptions, logger, loc, cfg.Tracker.DeadlineWarning, cfg.Tracker.IdleThreshold)
	credentials := service.NewCredentialService(credentialRepo, logger)

	openai := ai.NewClient(cfg.OpenAI.BaseURL, cfg.OpenAI.ChatModel, cfg.OpenAI.VisionModel, cfg.OpenAI.Timeout)
	calendarClient := calendar.NewClient(cfg.Calendar.BaseURL, cfg.Calendar.ClientID, cfg.Calendar.ClientSecret, cfg.Calendar.RedirectURL)

	return &Services{
		Auth:         service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.GetExpiration()),
		Teams:        service.NewTeamService(teamRepo, userRepo, invitationRepo, logger),
		Tasks:        tasks,
		Subscription: subscriptions,
		Credentials:  credentials,
		Assistant:    service.NewAssistantService(openai, credentials),
		Calendar:     service.NewCalendarService(calendarClient, credentials, tasks, logger),
		Stats:        service.NewStatsService(userRepo, teamRepo, stateRepo, subscriptionRepo),
	}, nil
}
