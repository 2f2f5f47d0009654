package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/config"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/gateway"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/valueobject"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/http/router"
	gatewayinfra "github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/infrastructure/gateway"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/infrastructure/memory"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/interface/http/handler"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/service"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/usecase/bidding"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/usecase/checkout"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/usecase/settlement"
)

// stubGateway всегда подтверждает оплату на запомненную сумму.
type stubGateway struct {
	mu      sync.Mutex
	amounts map[string]float64
}

func (g *stubGateway) Name() valueobject.Gateway { return valueobject.GatewayKhalti }

func (g *stubGateway) Initiate(_ context.Context, req gateway.InitiateRequest) (*gateway.InitiateResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	token := "pidx-" + req.PaymentID.String()
	g.amounts[token] = req.Amount
	return &gateway.InitiateResult{CorrelationToken: token, RedirectURL: "https://pay.test/" + token}, nil
}

func (g *stubGateway) Verify(_ context.Context, token string) (*gateway.VerifyResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return &gateway.VerifyResult{
		Status:        gateway.VerifySucceeded,
		Amount:        g.amounts[token],
		TransactionID: "txn-" + token,
		Raw:           json.RawMessage(`{}`),
	}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testServer struct {
	engine *gin.Engine
	tokens *service.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Env:             "test",
		AllowedOrigins:  []string{"http://localhost:3000"},
		RateLimitLimit:  1000,
		RateLimitPeriod: time.Minute,
	}

	store := memory.NewStore()
	notifications := memory.NewNotificationRepository()
	tokens := service.NewTokenManager("router-test-secret", time.Hour)
	gateways := gatewayinfra.NewRegistry(&stubGateway{amounts: map[string]float64{}})

	biddingDeps := bidding.Deps{UoW: store}
	settlementDeps := settlement.Deps{UoW: store}
	checkoutDeps := checkout.Deps{UoW: store, Gateways: gateways}

	engine := router.SetupRouter(cfg, router.Handlers{
		Health:       handler.NewHealthHandler(nil),
		Projects:     handler.NewProjectHandler(biddingDeps),
		Orders:       handler.NewOrderHandler(checkoutDeps, settlementDeps),
		Payments:     handler.NewPaymentHandler(checkoutDeps, nil, nil, ""),
		Admin:        handler.NewAdminHandler(settlementDeps, checkoutDeps),
		Notification: handler.NewNotificationHandler(notifications),
	}, tokens)

	return &testServer{engine: engine, tokens: tokens}
}

func (s *testServer) token(t *testing.T, userID uuid.UUID, role valueobject.Role) string {
	t.Helper()
	token, err := s.tokens.Issue(userID, role)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"storage":"memory"`)
}

func TestRouter_RequiresAuthentication(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodGet, "/api/notifications", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	code, _ = s.do(t, http.MethodGet, "/api/notifications", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRouter_AdminRoutesRequireAdminRole(t *testing.T) {
	s := newTestServer(t)
	seller := s.token(t, uuid.New(), valueobject.RoleSeller)

	code, env := s.do(t, http.MethodGet, "/api/admin/escrows/releasable", seller, nil)
	assert.Equal(t, http.StatusForbidden, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	admin := s.token(t, uuid.New(), valueobject.RoleAdmin)
	code, env = s.do(t, http.MethodGet, "/api/admin/escrows/releasable", admin, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestRouter_Validation(t *testing.T) {
	s := newTestServer(t)
	buyer := s.token(t, uuid.New(), valueobject.RoleBuyer)

	code, _ := s.do(t, http.MethodGet, "/api/orders/not-a-uuid", buyer, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/api/projects", buyer, map[string]any{"title": "no budget"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPut, "/api/orders/"+uuid.NewString()+"/work-status", buyer, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code, "work_status обязателен")

	code, env := s.do(t, http.MethodGet, "/api/orders/"+uuid.NewString(), buyer, nil)
	assert.Equal(t, http.StatusNotFound, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestRouter_BidToPayoutFlow(t *testing.T) {
	s := newTestServer(t)
	buyerID, sellerID, adminID := uuid.New(), uuid.New(), uuid.New()
	buyer := s.token(t, buyerID, valueobject.RoleBuyer)
	seller := s.token(t, sellerID, valueobject.RoleSeller)
	admin := s.token(t, adminID, valueobject.RoleAdmin)

	code, env := s.do(t, http.MethodPost, "/api/projects", buyer, map[string]any{
		"title":       "Landing page",
		"description": "Responsive landing page",
		"budget_min":  100,
		"budget_max":  1000,
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	project := decode[struct {
		ID     uuid.UUID `json:"id"`
		Status string    `json:"status"`
	}](t, env)
	assert.Equal(t, "open", project.Status)

	code, _ = s.do(t, http.MethodPost, "/api/projects/"+project.ID.String()+"/bids", buyer, map[string]any{
		"amount": 500, "proposal": "me", "delivery_days": 3,
	})
	assert.Equal(t, http.StatusForbidden, code, "покупатель не может делать ставки")

	code, env = s.do(t, http.MethodPost, "/api/projects/"+project.ID.String()+"/bids", seller, map[string]any{
		"amount": 500, "proposal": "I can do it", "delivery_days": 7,
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	bid := decode[struct {
		ID uuid.UUID `json:"id"`
	}](t, env)

	code, env = s.do(t, http.MethodPost, "/api/projects/"+project.ID.String()+"/bids", seller, map[string]any{
		"amount": 450, "proposal": "again", "delivery_days": 7,
	})
	assert.Equal(t, http.StatusConflict, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "You have already submitted a bid for this project", env.Error.Message)

	code, _ = s.do(t, http.MethodPost, "/api/bids/"+bid.ID.String()+"/award", seller, nil)
	assert.Equal(t, http.StatusForbidden, code, "выбирать ставку может только владелец проекта")

	code, env = s.do(t, http.MethodPost, "/api/bids/"+bid.ID.String()+"/award", buyer, nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	award := decode[struct {
		Order struct {
			ID uuid.UUID `json:"id"`
		} `json:"order"`
		Escrow struct {
			ID     uuid.UUID `json:"id"`
			Status string    `json:"status"`
			Amount float64   `json:"amount"`
		} `json:"escrow"`
	}](t, env)
	assert.Equal(t, 500.0, award.Escrow.Amount)
	orderPath := "/api/orders/" + award.Order.ID.String()

	code, _ = s.do(t, http.MethodPut, orderPath+"/work-status", buyer, map[string]any{"work_status": true})
	assert.Equal(t, http.StatusConflict, code, "подтверждение до оплаты запрещено")

	code, env = s.do(t, http.MethodPost, orderPath+"/checkout", buyer, map[string]any{"gateway": "khalti"})
	require.Equal(t, http.StatusCreated, code, env.Error)
	checkoutResp := decode[struct {
		CorrelationToken string `json:"correlation_token"`
		RedirectURL      string `json:"redirect_url"`
	}](t, env)
	assert.NotEmpty(t, checkoutResp.RedirectURL)

	verifyBody := map[string]any{"gateway": "khalti", "correlation_token": checkoutResp.CorrelationToken}
	code, _ = s.do(t, http.MethodPost, "/api/payments/verify", seller, verifyBody)
	assert.Equal(t, http.StatusForbidden, code, "подтверждает только покупатель")

	code, env = s.do(t, http.MethodPost, "/api/payments/verify", buyer, verifyBody)
	require.Equal(t, http.StatusOK, code, env.Error)
	verified := decode[struct {
		Payment struct {
			Status string `json:"status"`
		} `json:"payment"`
		Escrow struct {
			ID     uuid.UUID `json:"id"`
			Status string    `json:"status"`
		} `json:"escrow"`
		AlreadyProcessed bool `json:"already_processed"`
	}](t, env)
	assert.Equal(t, "success", verified.Payment.Status)
	assert.Equal(t, "holding", verified.Escrow.Status)
	assert.Equal(t, award.Escrow.ID, verified.Escrow.ID)
	assert.False(t, verified.AlreadyProcessed)

	code, env = s.do(t, http.MethodPost, "/api/payments/verify", buyer, verifyBody)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decode[struct {
		AlreadyProcessed bool `json:"already_processed"`
	}](t, env).AlreadyProcessed)

	code, _ = s.do(t, http.MethodPost, "/api/admin/escrows/"+award.Escrow.ID.String()+"/release", admin, nil)
	assert.Equal(t, http.StatusConflict, code, "выплата до подтверждения сторон")

	code, _ = s.do(t, http.MethodPut, orderPath+"/work-status", seller, map[string]any{"work_status": true})
	require.Equal(t, http.StatusOK, code)
	code, env = s.do(t, http.MethodPut, orderPath+"/work-status", buyer, map[string]any{"work_status": true})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "waitingToRelease", decode[struct {
		Escrow struct {
			Status string `json:"status"`
		} `json:"escrow"`
	}](t, env).Escrow.Status)

	code, _ = s.do(t, http.MethodGet, orderPath+"/escrow", s.token(t, uuid.New(), valueobject.RoleBuyer), nil)
	assert.Equal(t, http.StatusForbidden, code, "посторонний пользователь")

	code, env = s.do(t, http.MethodGet, "/api/admin/escrows/releasable", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]json.RawMessage](t, env), 1)

	code, env = s.do(t, http.MethodGet, "/api/admin/payments/refund-due", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decode[[]json.RawMessage](t, env))

	code, env = s.do(t, http.MethodPost, "/api/admin/escrows/"+award.Escrow.ID.String()+"/release", admin, nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	released := decode[struct {
		Escrow struct {
			Status string `json:"status"`
		} `json:"escrow"`
		Order struct {
			OrderStatus string `json:"order_status"`
		} `json:"order"`
		Payout struct {
			Amount   float64   `json:"amount"`
			SellerID uuid.UUID `json:"seller_id"`
		} `json:"payout"`
	}](t, env)
	assert.Equal(t, "released", released.Escrow.Status)
	assert.Equal(t, "completed", released.Order.OrderStatus)
	assert.Equal(t, 500.0, released.Payout.Amount)
	assert.Equal(t, sellerID, released.Payout.SellerID)

	code, env = s.do(t, http.MethodPost, "/api/admin/escrows/"+award.Escrow.ID.String()+"/release", admin, nil)
	assert.Equal(t, http.StatusConflict, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Escrow is not in waitingToRelease state", env.Error.Message)
}
