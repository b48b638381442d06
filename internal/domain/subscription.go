package domain

import "time"

// PlanID представляет идентификатор тарифа
type PlanID string

// Доступные тарифы
const (
	PlanFree       PlanID = "free"
	PlanPro        PlanID = "pro"
	PlanEnterprise PlanID = "enterprise"
)

// BillingPeriod период продления подписки
const BillingPeriod = 30 * 24 * time.Hour

// Plan описывает тариф
type Plan struct {
	ID       PlanID   `json:"id"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	PriceID  string   `json:"price_id,omitempty"` // Stripe Price ID
	Features []string `json:"features"`
	// TaskLimit 0 означает отсутствие лимита
	TaskLimit int `json:"task_limit"`
}

// Subscription представляет подписку пользователя (ключ taskflow:subscription:<email>)
type Subscription struct {
	Plan             PlanID     `json:"plan"`
	Status           string     `json:"status"`
	StartDate        *time.Time `json:"start_date,omitempty"`
	NextBilling      *time.Time `json:"next_billing,omitempty"`
	StripeCustomerID string     `json:"stripe_customer_id,omitempty"`
	StripeSessionID  string     `json:"stripe_session_id,omitempty"`
}

// DefaultSubscription возвращает подписку по умолчанию
func DefaultSubscription() *Subscription {
	return &Subscription{Plan: PlanFree, Status: "active"}
}

// Checkout представляет результат оформления подписки
type Checkout struct {
	Plan         PlanID        `json:"plan"`
	SessionID    string        `json:"session_id,omitempty"`
	URL          string        `json:"url,omitempty"`
	Simulated    bool          `json:"simulated"`
	Subscription *Subscription `json:"subscription,omitempty"`
}

// Credentials содержит ключи сторонних API пользователя
type Credentials struct {
	OpenAIKey        string `json:"openai_api_key,omitempty"`
	CalendarAPIKey   string `json:"calendar_api_key,omitempty"`
	CalendarClientID string `json:"calendar_client_id,omitempty"`
	CalendarToken    string `json:"calendar_access_token,omitempty"`

	// Остальные поля OAuth токена нужны для его обновления
	CalendarRefreshToken string     `json:"calendar_refresh_token,omitempty"`
	CalendarTokenType    string     `json:"calendar_token_type,omitempty"`
	CalendarTokenExpiry  *time.Time `json:"calendar_token_expiry,omitempty"`

	// CalendarOAuthState ожидаемый state незавершенного подключения календаря
	CalendarOAuthState string `json:"calendar_oauth_state,omitempty"`
}
