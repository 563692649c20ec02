package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"sbs/src/middlewares"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/stripe/stripe-go/v82"
	"github.com/tidwall/gjson"
)

const whsecret = "whsec_test_secret"

type TestSuite struct {
	suite.Suite
}

func (s *TestSuite) SetupSuite() {
	os.Setenv("STRIPE_WEBHOOK_SECRET", whsecret)
	registerValidators()
}

// signPayload builds a Stripe-Signature header the same way the processor
// does: hex hmac-sha256 of "<timestamp>.<payload>" keyed with the endpoint
// secret.
func signPayload(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func (s *TestSuite) TestPingRoute() {
	router := setupRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
	assert.Equal(s.T(), "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func (s *TestSuite) TestMaintenanceMode() {
	os.Setenv("MAINTENANCE_MODE", "true")
	defer os.Setenv("MAINTENANCE_MODE", "false")

	router := setupRouter()
	router = maintenanceModeMiddleware(router)
	apiv1Group(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 503, w.Code)
}

func (s *TestSuite) TestAuthRequired() {
	router := setupRouter()
	authorized := apiv1Group(router)
	authorized.Use(middlewares.AuthMiddleware)
	reservationHandlers(authorized)
	paymentHandlers(authorized)

	for _, route := range []struct {
		method string
		path   string
	}{
		{"GET", "/api/v1/reservas/mine"},
		{"GET", "/api/v1/reservas/1"},
		{"PATCH", "/api/v1/reservas/1/cancel"},
		{"POST", "/api/v1/pagos/checkout-session"},
		{"GET", "/api/v1/pagos/history"},
	} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(route.method, route.path, strings.NewReader("{}"))
		router.ServeHTTP(w, req)
		assert.Equalf(s.T(), 401, w.Code, "%s %s should require a token", route.method, route.path)
	}
}

func (s *TestSuite) TestWebhookBadSignature() {
	router := setupRouter()
	stripeWebhookRoute(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/webhook/stripe", strings.NewReader(`{"type":"checkout.session.completed"}`))
	req.Header.Set("Stripe-Signature", "t=12345,v1=deadbeef")
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 400, w.Code)
}

func (s *TestSuite) TestWebhookIgnoredEventType() {
	router := setupRouter()
	stripeWebhookRoute(router)

	payload := fmt.Sprintf(`{"id":"evt_test_1","object":"event","api_version":"%s","type":"payment_intent.created","data":{"object":{}}}`, stripe.APIVersion)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/webhook/stripe", strings.NewReader(payload))
	req.Header.Set("Stripe-Signature", signPayload([]byte(payload), whsecret, time.Now()))
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
	rbytes, err := io.ReadAll(w.Body)
	assert.Nil(s.T(), err)
	assert.True(s.T(), gjson.GetBytes(rbytes, "received").Bool())
}

func TestSuiteRun(t *testing.T) {
	suite.Run(t, new(TestSuite))
}
