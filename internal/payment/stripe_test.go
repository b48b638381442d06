package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"

	"github.com/aidar/taskflow/internal/domain"
)

const testSecret = "whsec_test"

func sign(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts.Unix(), payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func eventPayload(eventType string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_1",
		"object": "event",
		"api_version": %q,
		"type": %q,
		"data": {"object": {
			"id": "cs_test_1",
			"object": "checkout.session",
			"customer": "cus_1",
			"client_reference_id": "a@x.io",
			"metadata": {"email": "a@x.io", "plan": "pro"}
		}}
	}`, stripe.APIVersion, eventType))
}

func TestParseWebhook(t *testing.T) {
	s := NewStripe("", testSecret, "", "")
	payload := eventPayload("checkout.session.completed")

	completed, err := s.ParseWebhook(payload, sign(payload, testSecret, time.Now()))
	require.NoError(t, err)
	require.NotNil(t, completed)
	assert.Equal(t, "cs_test_1", completed.SessionID)
	assert.Equal(t, "cus_1", completed.CustomerID)
	assert.Equal(t, "a@x.io", completed.Email)
	assert.Equal(t, domain.PlanPro, completed.Plan)
}

func TestParseWebhook_OtherEvent(t *testing.T) {
	s := NewStripe("", testSecret, "", "")
	payload := eventPayload("invoice.paid")

	completed, err := s.ParseWebhook(payload, sign(payload, testSecret, time.Now()))
	require.NoError(t, err)
	assert.Nil(t, completed)
}

func TestParseWebhook_BadSignature(t *testing.T) {
	s := NewStripe("", testSecret, "", "")
	payload := eventPayload("checkout.session.completed")

	_, err := s.ParseWebhook(payload, sign(payload, "whsec_other", time.Now()))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = s.ParseWebhook(payload, sign(payload, testSecret, time.Now().Add(-time.Hour)))
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestCreateCheckout_NoPrice(t *testing.T) {
	s := NewStripe("", testSecret, "", "")
	_, err := s.CreateCheckout(context.Background(), "a@x.io", domain.Plan{ID: domain.PlanPro})
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}
