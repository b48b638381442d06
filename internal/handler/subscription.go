package handler

import (
	"io"
	"net/http"

	"github.com/aidar/taskflow/internal/domain"
	"github.com/aidar/taskflow/internal/service"
)

// maxWebhookSize ограничивает тело webhook Stripe
const maxWebhookSize = 64 << 10

// SubscriptionHandler обрабатывает эндпоинты подписки
type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
}

// NewSubscriptionHandler создает новый SubscriptionHandler
func NewSubscriptionHandler(subscriptionService *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
	}
}

// CheckoutRequest представляет тело запроса на оформление подписки
type CheckoutRequest struct {
	Plan domain.PlanID `json:"plan" validate:"required"`
}

// SubscriptionResponse представляет текущую подписку и тарифы
type SubscriptionResponse struct {
	Subscription *domain.Subscription `json:"subscription"`
	Plan         domain.Plan          `json:"plan"`
	Plans        []domain.Plan        `json:"plans"`
}

// Plans обрабатывает GET /subscription/plans
func (h *SubscriptionHandler) Plans(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, r, http.StatusOK, h.subscriptionService.Plans())
}

// Current обрабатывает GET /subscription
func (h *SubscriptionHandler) Current(w http.ResponseWriter, r *http.Request) {
	sub, err := h.subscriptionService.Current(r.Context(), currentEmail(r))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	plan, err := h.subscriptionService.Plan(sub.Plan)
	if err != nil {
		plan, _ = h.subscriptionService.Plan(domain.PlanFree)
	}

	RespondWithJSON(w, r, http.StatusOK, SubscriptionResponse{
		Subscription: sub,
		Plan:         plan,
		Plans:        h.subscriptionService.Plans(),
	})
}

// Checkout обрабатывает POST /subscription/checkout
func (h *SubscriptionHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	checkout, err := h.subscriptionService.Checkout(r.Context(), currentEmail(r), req.Plan)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, checkout)
}

// Webhook обрабатывает POST /subscription/webhook от Stripe
func (h *SubscriptionHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookSize))
	if err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "failed to read body")
		return
	}

	if err := h.subscriptionService.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, map[string]bool{"received": true})
}
