// Package payment creates Stripe Checkout sessions and verifies Stripe webhooks.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/aidar/taskflow/internal/domain"
)

// webhookTolerance допустимый сдвиг часов при проверке подписи
const webhookTolerance = 5 * time.Minute

// ErrInvalidSignature возвращается при неверной подписи webhook
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Session представляет созданную сессию Stripe Checkout
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Completed представляет оплаченную сессию из webhook checkout.session.completed
type Completed struct {
	SessionID  string
	CustomerID string
	Email      string
	Plan       domain.PlanID
}

// Stripe реализует оформление подписки через Stripe Checkout
type Stripe struct {
	webhookSecret string
	successURL    string
	cancelURL     string
}

// NewStripe создает новый экземпляр Stripe и устанавливает ключ API
func NewStripe(secretKey, webhookSecret, successURL, cancelURL string) *Stripe {
	stripe.Key = secretKey
	return &Stripe{
		webhookSecret: webhookSecret,
		successURL:    successURL,
		cancelURL:     cancelURL,
	}
}

// CreateCheckout создает сессию оплаты подписки для пользователя
func (s *Stripe) CreateCheckout(ctx context.Context, email string, plan domain.Plan) (*Session, error) {
	if plan.PriceID == "" {
		return nil, fmt.Errorf("plan %s has no stripe price: %w", plan.ID, domain.ErrNotConfigured)
	}

	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
		Mode:   stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(plan.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(s.successURL),
		CancelURL:         stripe.String(s.cancelURL),
		CustomerEmail:     stripe.String(email),
		ClientReferenceID: stripe.String(email),
	}
	params.AddMetadata("email", email)
	params.AddMetadata("plan", string(plan.ID))

	cs, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &Session{ID: cs.ID, URL: cs.URL}, nil
}

// ParseWebhook проверяет подпись и возвращает оплаченную сессию.
// Для событий других типов возвращает nil без ошибки.
func (s *Stripe) ParseWebhook(payload []byte, signature string) (*Completed, error) {
	event, err := webhook.ConstructEventWithTolerance(payload, signature, s.webhookSecret, webhookTolerance)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	if event.Type != "checkout.session.completed" {
		return nil, nil
	}

	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		return nil, fmt.Errorf("failed to parse checkout session: %w", err)
	}

	completed := &Completed{
		SessionID: cs.ID,
		Email:     cs.Metadata["email"],
		Plan:      domain.PlanID(cs.Metadata["plan"]),
	}
	if completed.Email == "" {
		completed.Email = cs.ClientReferenceID
	}
	if cs.Customer != nil {
		completed.CustomerID = cs.Customer.ID
	}

	return completed, nil
}
