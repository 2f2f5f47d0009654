package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/entity"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/gateway"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/valueobject"
	gatewayinfra "github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/infrastructure/gateway"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/infrastructure/memory"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/interface/http/handler"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/service"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/usecase/checkout"
)

// fixedGateway подтверждает любой токен на фиксированную сумму.
type fixedGateway struct {
	name   valueobject.Gateway
	amount float64
	calls  int
}

func (g *fixedGateway) Name() valueobject.Gateway { return g.name }

func (g *fixedGateway) Initiate(_ context.Context, req gateway.InitiateRequest) (*gateway.InitiateResult, error) {
	return &gateway.InitiateResult{CorrelationToken: "tok-" + req.PaymentID.String(), ClientSecret: "secret"}, nil
}

func (g *fixedGateway) Verify(context.Context, string) (*gateway.VerifyResult, error) {
	g.calls++
	return &gateway.VerifyResult{Status: gateway.VerifySucceeded, Amount: g.amount, TransactionID: "txn", Raw: json.RawMessage(`{}`)}, nil
}

type mockParser struct {
	mock.Mock
}

func (m *mockParser) ParseWebhook(payload []byte, signature string) (gatewayinfra.WebhookEvent, bool, error) {
	args := m.Called(payload, signature)
	return args.Get(0).(gatewayinfra.WebhookEvent), args.Bool(1), args.Error(2)
}

type paymentEnv struct {
	deps  checkout.Deps
	gw    *fixedGateway
	token string
	order uuid.UUID
}

func newPaymentEnv(t *testing.T, name valueobject.Gateway) *paymentEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	gig := entity.Gig{ID: uuid.New(), SellerID: uuid.New(), Title: "Logo", Price: 250}
	store.PutGig(gig)

	gw := &fixedGateway{name: name, amount: gig.Price}
	deps := checkout.Deps{UoW: store, Gateways: gatewayinfra.NewRegistry(gw)}

	buyer := uuid.New()
	ctx := context.Background()
	order, err := checkout.NewCreateGigOrderUseCase(deps).Execute(ctx, checkout.CreateGigOrderInput{
		BuyerID: buyer, GigID: gig.ID, PaymentMethod: string(name),
	})
	require.NoError(t, err)
	initiated, err := checkout.NewInitiatePaymentUseCase(deps).Execute(ctx, checkout.InitiatePaymentInput{
		OrderID: order.ID, BuyerID: buyer, Gateway: string(name),
	})
	require.NoError(t, err)

	return &paymentEnv{deps: deps, gw: gw, token: initiated.Payment.CorrelationToken, order: order.ID}
}

func postWebhook(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Stripe-Signature", "t=1,v1=sig")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStripeWebhook_ConfirmsOnceAndDeduplicates(t *testing.T) {
	env := newPaymentEnv(t, valueobject.GatewayStripe)
	parser := &mockParser{}
	parser.On("ParseWebhook", []byte(`{"id":"evt_1"}`), "t=1,v1=sig").
		Return(gatewayinfra.WebhookEvent{ID: "evt_1", Type: "payment_intent.succeeded", CorrelationToken: env.token}, true, nil)

	h := handler.NewPaymentHandler(env.deps, parser, service.NewCacheService(), "")
	r := gin.New()
	r.POST("/webhook", h.StripeWebhook)

	w := postWebhook(r, `{"id":"evt_1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"payment_status":"success"`)

	w = postWebhook(r, `{"id":"evt_1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"duplicate":true`)
	assert.Equal(t, 1, env.gw.calls, "повторная доставка не обращается к шлюзу")
}

func TestStripeWebhook_FailedConfirmationIsRetried(t *testing.T) {
	env := newPaymentEnv(t, valueobject.GatewayStripe)
	parser := &mockParser{}
	parser.On("ParseWebhook", mock.Anything, mock.Anything).
		Return(gatewayinfra.WebhookEvent{ID: "evt_2", Type: "payment_intent.succeeded", CorrelationToken: "pi_unknown"}, true, nil)

	cache := service.NewCacheService()
	h := handler.NewPaymentHandler(env.deps, parser, cache, "")
	r := gin.New()
	r.POST("/webhook", h.StripeWebhook)

	w := postWebhook(r, `{}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 0, cache.Len(), "событие забыто и будет принято повторно")
}

func TestStripeWebhook_RejectsBadSignatureAndIgnoresOtherEvents(t *testing.T) {
	env := newPaymentEnv(t, valueobject.GatewayStripe)
	parser := &mockParser{}
	parser.On("ParseWebhook", []byte("bad"), mock.Anything).
		Return(gatewayinfra.WebhookEvent{}, false, apperror.New(apperror.ErrCodeUnauthorized, "invalid webhook signature"))
	parser.On("ParseWebhook", []byte("other"), mock.Anything).
		Return(gatewayinfra.WebhookEvent{ID: "evt_3", Type: "charge.refunded"}, false, nil)

	h := handler.NewPaymentHandler(env.deps, parser, nil, "")
	r := gin.New()
	r.POST("/webhook", h.StripeWebhook)

	assert.Equal(t, http.StatusUnauthorized, postWebhook(r, "bad").Code)

	w := postWebhook(r, "other")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, env.gw.calls)
}

func TestStripeWebhook_Disabled(t *testing.T) {
	env := newPaymentEnv(t, valueobject.GatewayStripe)
	h := handler.NewPaymentHandler(env.deps, nil, nil, "")
	r := gin.New()
	r.POST("/webhook", h.StripeWebhook)

	assert.Equal(t, http.StatusNotFound, postWebhook(r, "{}").Code)
}

func TestKhaltiReturn_RedirectsToFrontend(t *testing.T) {
	env := newPaymentEnv(t, valueobject.GatewayKhalti)
	h := handler.NewPaymentHandler(env.deps, nil, nil, "https://app.test")
	r := gin.New()
	r.GET("/return", h.KhaltiReturn)

	req := httptest.NewRequest(http.MethodGet, "/return?pidx="+url.QueryEscape(env.token), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/payment/result", loc.Path)
	assert.Equal(t, "success", loc.Query().Get("status"))
	assert.Equal(t, env.order.String(), loc.Query().Get("order_id"))

	req = httptest.NewRequest(http.MethodGet, "/return?pidx=unknown", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "status=error")
}

func TestKhaltiReturn_JSONWithoutFrontend(t *testing.T) {
	env := newPaymentEnv(t, valueobject.GatewayKhalti)
	h := handler.NewPaymentHandler(env.deps, nil, nil, "")
	r := gin.New()
	r.GET("/return", h.KhaltiReturn)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/return", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/return?pidx="+url.QueryEscape(env.token), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"success"`)
	assert.Contains(t, w.Body.String(), `"escrow"`)
}

func TestCheckout_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := handler.NewPaymentHandler(checkout.Deps{}, nil, nil, "")
	r := gin.New()
	r.POST("/orders/:id/checkout", h.Checkout)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/orders/"+uuid.NewString()+"/checkout", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
