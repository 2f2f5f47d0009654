package handler

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/valueobject"
	gatewayinfra "github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/infrastructure/gateway"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/interface/http/dto"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/interface/http/response"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/logger"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/service"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/usecase/checkout"
)

const webhookDedupeTTL = 24 * time.Hour

// WebhookParser проверяет подпись webhook провайдера и извлекает событие.
type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (gatewayinfra.WebhookEvent, bool, error)
}

type PaymentHandler struct {
	initiateUC *checkout.InitiatePaymentUseCase
	confirmUC  *checkout.ConfirmPaymentUseCase
	webhooks   WebhookParser
	seen       *service.CacheService
	// frontendURL — куда вернуть пользователя после оплаты через Khalti. Пусто: ответ JSON.
	frontendURL string
}

func NewPaymentHandler(deps checkout.Deps, webhooks WebhookParser, seen *service.CacheService, frontendURL string) *PaymentHandler {
	if seen == nil {
		seen = service.NewCacheService()
	}
	return &PaymentHandler{
		initiateUC:  checkout.NewInitiatePaymentUseCase(deps),
		confirmUC:   checkout.NewConfirmPaymentUseCase(deps),
		webhooks:    webhooks,
		seen:        seen,
		frontendURL: frontendURL,
	}
}

// Checkout создаёт платёж у выбранного шлюза.
func (h *PaymentHandler) Checkout(c *gin.Context) {
	userID, _, ok := actor(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id", "некорректный ID заказа")
	if !ok {
		return
	}

	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "поле gateway обязательно")
		return
	}

	result, err := h.initiateUC.Execute(c.Request.Context(), checkout.InitiatePaymentInput{
		OrderID: orderID,
		BuyerID: userID,
		Gateway: req.Gateway,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.CheckoutResponse{
		PaymentID:        result.Payment.ID,
		CorrelationToken: result.Payment.CorrelationToken,
		RedirectURL:      result.RedirectURL,
		ClientSecret:     result.ClientSecret,
	})
}

// Verify подтверждает платёж по инициативе покупателя.
func (h *PaymentHandler) Verify(c *gin.Context) {
	userID, role, ok := actor(c)
	if !ok {
		return
	}

	var req dto.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "поля gateway и correlation_token обязательны")
		return
	}

	result, err := h.confirmUC.Execute(c.Request.Context(), checkout.ConfirmPaymentInput{
		Gateway:          req.Gateway,
		CorrelationToken: req.CorrelationToken,
		ActorID:          userID,
		Role:             role,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToVerifyPaymentResponse(result.Payment, result.Escrow, result.AlreadyProcessed))
}

// KhaltiReturn обслуживает GET /api/payments/khalti/return?pidx=...
// Khalti перенаправляет сюда пользователя после оплаты.
func (h *PaymentHandler) KhaltiReturn(c *gin.Context) {
	pidx := c.Query("pidx")
	if pidx == "" {
		response.BadRequest(c, "параметр pidx обязателен")
		return
	}

	result, err := h.confirmUC.Execute(c.Request.Context(), checkout.ConfirmPaymentInput{
		Gateway:          string(valueobject.GatewayKhalti),
		CorrelationToken: pidx,
	})
	if err != nil {
		if h.frontendURL != "" {
			logger.Log.WithError(err).WithField("pidx", pidx).Warn("khalti return: платёж не подтверждён")
			c.Redirect(http.StatusFound, h.resultURL("", "error"))
			return
		}
		response.Error(c, err)
		return
	}

	if h.frontendURL != "" {
		c.Redirect(http.StatusFound, h.resultURL(result.Payment.OrderID.String(), string(result.Payment.Status)))
		return
	}
	response.Success(c, dto.ToVerifyPaymentResponse(result.Payment, result.Escrow, result.AlreadyProcessed))
}

func (h *PaymentHandler) resultURL(orderID, status string) string {
	q := url.Values{}
	q.Set("status", status)
	if orderID != "" {
		q.Set("order_id", orderID)
	}
	return h.frontendURL + "/payment/result?" + q.Encode()
}

// StripeWebhook обслуживает POST /api/payments/stripe/webhook.
// Повторные доставки одного события отсекаются кэшем; при ошибке событие забывается,
// чтобы повтор от Stripe был обработан.
func (h *PaymentHandler) StripeWebhook(c *gin.Context) {
	if h.webhooks == nil {
		response.Error(c, gatewayinfra.ErrWebhookDisabled)
		return
	}

	payload, err := c.GetRawData()
	if err != nil {
		response.BadRequest(c, "не удалось прочитать тело запроса")
		return
	}

	evt, relevant, err := h.webhooks.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !relevant {
		response.Success(c, gin.H{"received": true})
		return
	}

	if h.seen.Seen("stripe:"+evt.ID, webhookDedupeTTL) {
		response.Success(c, gin.H{"received": true, "duplicate": true})
		return
	}

	result, err := h.confirmUC.Execute(c.Request.Context(), checkout.ConfirmPaymentInput{
		Gateway:          string(valueobject.GatewayStripe),
		CorrelationToken: evt.CorrelationToken,
	})
	if err != nil {
		h.seen.Forget("stripe:" + evt.ID)
		logger.Log.WithError(err).WithFields(logrus.Fields{
			"event_id":  evt.ID,
			"event":     evt.Type,
			"intent_id": evt.CorrelationToken,
		}).Warn("stripe webhook: подтверждение платежа не удалось")
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{
		"received":          true,
		"payment_status":    string(result.Payment.Status),
		"already_processed": result.AlreadyProcessed,
	})
}
