package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aidar/taskflow/internal/domain"
	"github.com/aidar/taskflow/internal/payment"
	"github.com/aidar/taskflow/internal/repository"
)

// CheckoutProvider creates paid checkout sessions and verifies their webhooks
type CheckoutProvider interface {
	CreateCheckout(ctx context.Context, email string, plan domain.Plan) (*payment.Session, error)
	ParseWebhook(payload []byte, signature string) (*payment.Completed, error)
}

// DefaultPlans returns the free, pro and enterprise plans in display order
func DefaultPlans(freeTaskLimit int, proPriceID, enterprisePriceID string) []domain.Plan {
	return []domain.Plan{
		{
			ID:    domain.PlanFree,
			Name:  "Free",
			Price: 0,
			Features: []string{
				fmt.Sprintf("Up to %d tasks", freeTaskLimit),
				"Basic time tracking",
				"Local storage only",
				"Email support",
			},
			TaskLimit: freeTaskLimit,
		},
		{
			ID:      domain.PlanPro,
			Name:    "Pro",
			Price:   9.99,
			PriceID: proPriceID,
			Features: []string{
				"Unlimited tasks",
				"Advanced analytics",
				"Cloud sync",
				"Priority support",
				"Team collaboration",
				"Custom integrations",
			},
		},
		{
			ID:      domain.PlanEnterprise,
			Name:    "Enterprise",
			Price:   29.99,
			PriceID: enterprisePriceID,
			Features: []string{
				"Everything in Pro",
				"Dedicated account manager",
				"Custom branding",
				"API access",
				"SLA guarantee",
				"Advanced security",
			},
		},
	}
}

// SubscriptionService handles plans, checkout and the plan task limit
type SubscriptionService struct {
	repo     repository.SubscriptionRepository
	provider CheckoutProvider
	plans    []domain.Plan
	logger   *slog.Logger
	now      func() time.Time
}

// NewSubscriptionService creates a new SubscriptionService.
// A nil provider activates paid plans immediately without payment.
func NewSubscriptionService(
	repo repository.SubscriptionRepository,
	provider CheckoutProvider,
	plans []domain.Plan,
	logger *slog.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		repo:     repo,
		provider: provider,
		plans:    plans,
		logger:   logger,
		now:      time.Now,
	}
}

// Plans returns all plans
func (s *SubscriptionService) Plans() []domain.Plan {
	return s.plans
}

// Plan looks a plan up by id
func (s *SubscriptionService) Plan(id domain.PlanID) (domain.Plan, error) {
	for _, p := range s.plans {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Plan{}, domain.ErrUnknownPlan
}

// Current returns the user's subscription, free and active by default
func (s *SubscriptionService) Current(ctx context.Context, email string) (*domain.Subscription, error) {
	return s.repo.Get(ctx, email)
}

// TaskLimit returns the task limit of the user's plan (0 means unlimited)
func (s *SubscriptionService) TaskLimit(ctx context.Context, email string) (int, error) {
	sub, err := s.repo.Get(ctx, email)
	if err != nil {
		return 0, err
	}

	plan, err := s.Plan(sub.Plan)
	if err != nil {
		// Unknown stored plan falls back to free
		s.logger.Warn("Unknown plan in subscription", "user", email, "plan", sub.Plan)
		plan, err = s.Plan(domain.PlanFree)
		if err != nil {
			return 0, err
		}
	}
	return plan.TaskLimit, nil
}

func (s *SubscriptionService) activate(ctx context.Context, email string, plan domain.PlanID, customerID, sessionID string) (*domain.Subscription, error) {
	now := s.now()
	next := now.Add(domain.BillingPeriod)
	sub := &domain.Subscription{
		Plan:             plan,
		Status:           "active",
		StartDate:        &now,
		NextBilling:      &next,
		StripeCustomerID: customerID,
		StripeSessionID:  sessionID,
	}
	if err := s.repo.Save(ctx, email, sub); err != nil {
		return nil, err
	}

	s.logger.Info("Subscription activated", "user", email, "plan", plan)
	return sub, nil
}

// Checkout starts an upgrade to a paid plan
func (s *SubscriptionService) Checkout(ctx context.Context, email string, planID domain.PlanID) (*domain.Checkout, error) {
	plan, err := s.Plan(planID)
	if err != nil {
		return nil, err
	}
	if plan.ID == domain.PlanFree {
		return nil, fmt.Errorf("%w: free plan needs no checkout", domain.ErrValidation)
	}

	if s.provider == nil {
		sub, err := s.activate(ctx, email, plan.ID, "", "")
		if err != nil {
			return nil, err
		}
		return &domain.Checkout{Plan: plan.ID, Simulated: true, Subscription: sub}, nil
	}

	session, err := s.provider.CreateCheckout(ctx, email, plan)
	if err != nil {
		return nil, err
	}

	// Keep the current plan until the webhook confirms payment
	sub, err := s.repo.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	sub.StripeSessionID = session.ID
	if err := s.repo.Save(ctx, email, sub); err != nil {
		return nil, err
	}

	s.logger.Info("Checkout session created", "user", email, "plan", plan.ID, "session_id", session.ID)
	return &domain.Checkout{Plan: plan.ID, SessionID: session.ID, URL: session.URL}, nil
}

// HandleWebhook verifies a Stripe webhook and activates the paid plan.
// Events other than a completed checkout are ignored.
func (s *SubscriptionService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.provider == nil {
		return domain.ErrNotConfigured
	}

	completed, err := s.provider.ParseWebhook(payload, signature)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if completed == nil {
		return nil
	}

	if completed.Email == "" {
		return fmt.Errorf("%w: checkout session has no customer email", domain.ErrValidation)
	}
	if _, err := s.Plan(completed.Plan); err != nil {
		return err
	}

	_, err = s.activate(ctx, NormalizeEmail(completed.Email), completed.Plan, completed.CustomerID, completed.SessionID)
	return err
}
