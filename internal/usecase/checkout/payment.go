package checkout

import (
	"context"
	"math"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/entity"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/event"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/gateway"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/repository"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/valueobject"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/logger"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/metrics"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/usecase/settlement"
)

type InitiatePaymentInput struct {
	OrderID uuid.UUID
	BuyerID uuid.UUID
	Gateway string
}

type InitiatePaymentResult struct {
	Payment      *entity.Payment
	RedirectURL  string
	ClientSecret string
}

type InitiatePaymentUseCase struct {
	deps Deps
}

func NewInitiatePaymentUseCase(deps Deps) *InitiatePaymentUseCase {
	return &InitiatePaymentUseCase{deps: deps.withDefaults()}
}

func (uc *InitiatePaymentUseCase) Execute(ctx context.Context, input InitiatePaymentInput) (*InitiatePaymentResult, error) {
	name, err := valueobject.NewGateway(input.Gateway)
	if err != nil {
		return nil, err
	}
	gw, err := uc.deps.Gateways.Get(name)
	if err != nil {
		return nil, err
	}

	order, err := uc.loadPayableOrder(ctx, input.OrderID, input.BuyerID)
	if err != nil {
		return nil, err
	}

	payment, err := entity.NewPayment(order, name, uc.deps.Clock())
	if err != nil {
		return nil, err
	}

	// Запрос к провайдеру выполняется вне транзакции.
	initiated, err := gw.Initiate(ctx, gateway.InitiateRequest{
		PaymentID:   payment.ID,
		OrderID:     order.ID,
		Amount:      payment.Amount,
		Description: "Order " + order.ID.String(),
	})
	if err != nil {
		return nil, gatewayError(err, "не удалось инициировать платёж")
	}
	if err := payment.BindCorrelationToken(initiated.CorrelationToken); err != nil {
		return nil, err
	}

	err = uc.deps.UoW.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		locked, err := tx.Orders().LockByID(ctx, order.ID)
		if err != nil {
			return err
		}
		if err := locked.ChoosePaymentMethod(name, uc.deps.Clock()); err != nil {
			return err
		}
		if err := tx.Orders().Update(ctx, locked); err != nil {
			return err
		}
		return tx.Payments().Create(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"order_id":          order.ID,
		"payment_id":        payment.ID,
		"gateway":           name,
		"correlation_token": payment.CorrelationToken,
		"amount":            payment.Amount,
	}).Info("платёж инициирован")

	return &InitiatePaymentResult{
		Payment:      payment,
		RedirectURL:  initiated.RedirectURL,
		ClientSecret: initiated.ClientSecret,
	}, nil
}

func (uc *InitiatePaymentUseCase) loadPayableOrder(ctx context.Context, orderID, buyerID uuid.UUID) (*entity.Order, error) {
	var order *entity.Order
	err := uc.deps.UoW.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		order, err = tx.Orders().GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.BuyerID != buyerID {
			return apperror.ErrNotOrderBuyer
		}
		if order.IsPaid != valueobject.PaidStatusPending {
			return apperror.ErrOrderAlreadyPaid
		}
		return nil
	})
	return order, err
}

type ConfirmPaymentInput struct {
	Gateway          string
	CorrelationToken string
	// ActorID пуст для обратных вызовов шлюза. Иначе подтверждать может покупатель или администратор.
	ActorID uuid.UUID
	Role    valueobject.Role
}

func (in ConfirmPaymentInput) allowed(payment *entity.Payment) bool {
	return in.ActorID == uuid.Nil || in.Role.IsAdmin() || payment.BuyerID == in.ActorID
}

type ConfirmPaymentResult struct {
	Payment *entity.Payment
	Escrow  *entity.Escrow
	// AlreadyProcessed — платёж был завершён раньше, повторное подтверждение ничего не изменило.
	AlreadyProcessed bool
}

type ConfirmPaymentUseCase struct {
	deps Deps
}

func NewConfirmPaymentUseCase(deps Deps) *ConfirmPaymentUseCase {
	return &ConfirmPaymentUseCase{deps: deps.withDefaults()}
}

// Execute сверяет платёж с провайдером. Успех переводит платёж в success и открывает escrow
// в одной транзакции; повторные подтверждения того же токена escrow не создают.
func (uc *ConfirmPaymentUseCase) Execute(ctx context.Context, input ConfirmPaymentInput) (*ConfirmPaymentResult, error) {
	name, err := valueobject.NewGateway(input.Gateway)
	if err != nil {
		return nil, err
	}
	if input.CorrelationToken == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "correlation_token обязателен")
	}
	gw, err := uc.deps.Gateways.Get(name)
	if err != nil {
		return nil, err
	}

	current, err := uc.currentState(ctx, name, input)
	if err != nil {
		return nil, err
	}
	if current.Payment.Status.IsTerminal() {
		return current, nil
	}

	verified, err := gw.Verify(ctx, input.CorrelationToken)
	if err != nil {
		metrics.Settlement().ObservePaymentConfirmed(string(name), "error")
		return nil, gatewayError(err, "не удалось проверить платёж")
	}

	var (
		result   ConfirmPaymentResult
		messages []event.Message
	)
	err = uc.deps.UoW.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		payment, err := tx.Payments().LockByCorrelationToken(ctx, name, input.CorrelationToken)
		if err != nil {
			return err
		}
		result = ConfirmPaymentResult{Payment: payment}

		// Параллельный вызов успел завершить платёж.
		if payment.Status.IsTerminal() {
			result.AlreadyProcessed = true
			if payment.IsSuccess() {
				result.Escrow, err = tx.Escrows().GetByOrderID(ctx, payment.OrderID)
				return err
			}
			return nil
		}

		now := uc.deps.Clock()
		switch verified.Status {
		case gateway.VerifySucceeded:
			if !amountsMatch(payment.Amount, verified.Amount) {
				logger.Log.WithFields(logrus.Fields{
					"payment_id": payment.ID,
					"expected":   payment.Amount,
					"received":   verified.Amount,
				}).Warn("сумма платежа не совпадает")
				if err := payment.MarkFailed(verified.Raw, now); err != nil {
					return err
				}
				messages = failedMessages(payment)
				return tx.Payments().Update(ctx, payment)
			}

			order, err := tx.Orders().LockByID(ctx, payment.OrderID)
			if err != nil {
				return err
			}
			// Заказ уже оплачен другим платежом: списание фиксируется для возврата, escrow не трогаем.
			if order.IsPaid != valueobject.PaidStatusPending {
				if err := payment.MarkRefundDue(verified.TransactionID, verified.Raw, now); err != nil {
					return err
				}
				if err := tx.Payments().Update(ctx, payment); err != nil {
					return err
				}
				logger.Log.WithFields(logrus.Fields{
					"payment_id": payment.ID,
					"order_id":   order.ID,
					"paid":       order.IsPaid,
				}).Warn("повторная оплата заказа, платёж помечен к возврату")
				messages = refundDueMessages(payment)
				result.Escrow, err = tx.Escrows().GetByOrderID(ctx, order.ID)
				if apperror.IsNotFound(err) {
					return nil
				}
				return err
			}

			if err := payment.MarkSuccess(verified.TransactionID, verified.Raw, now); err != nil {
				return err
			}
			if err := tx.Payments().Update(ctx, payment); err != nil {
				return err
			}
			opened, err := settlement.OpenEscrow(ctx, tx, payment, now)
			if err != nil {
				return err
			}
			result.Escrow = opened.Escrow
			messages = opened.Events
			return nil

		case gateway.VerifyFailed:
			if err := payment.MarkFailed(verified.Raw, now); err != nil {
				return err
			}
			messages = failedMessages(payment)
			return tx.Payments().Update(ctx, payment)

		default:
			return nil
		}
	})
	if err != nil {
		return nil, err
	}

	metrics.Settlement().ObservePaymentConfirmed(string(name), string(result.Payment.Status))
	logger.Log.WithFields(logrus.Fields{
		"payment_id":     result.Payment.ID,
		"order_id":       result.Payment.OrderID,
		"gateway":        name,
		"gateway_status": verified.Status,
		"status":         result.Payment.Status,
	}).Info("платёж проверен")

	event.PublishAll(uc.deps.Publisher, messages)
	return &result, nil
}

func (uc *ConfirmPaymentUseCase) currentState(ctx context.Context, name valueobject.Gateway, input ConfirmPaymentInput) (*ConfirmPaymentResult, error) {
	var result ConfirmPaymentResult
	err := uc.deps.UoW.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		payment, err := tx.Payments().LockByCorrelationToken(ctx, name, input.CorrelationToken)
		if err != nil {
			return err
		}
		if !input.allowed(payment) {
			return apperror.ErrNotPaymentBuyer
		}
		result.Payment = payment
		if payment.IsSuccess() {
			result.AlreadyProcessed = true
			result.Escrow, err = tx.Escrows().GetByOrderID(ctx, payment.OrderID)
			return err
		}
		if payment.Status.IsTerminal() {
			result.AlreadyProcessed = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func amountsMatch(expected, received float64) bool {
	return math.Abs(expected-received) < 0.005
}

func refundDueMessages(payment *entity.Payment) []event.Message {
	return []event.Message{{
		UserID: payment.BuyerID,
		Name:   event.PaymentRefundDue,
		Data:   map[string]any{"order_id": payment.OrderID, "payment_id": payment.ID, "amount": payment.Amount},
	}}
}

func failedMessages(payment *entity.Payment) []event.Message {
	return []event.Message{{
		UserID: payment.BuyerID,
		Name:   event.PaymentFailed,
		Data:   map[string]any{"order_id": payment.OrderID, "payment_id": payment.ID},
	}}
}

type ListRefundDueUseCase struct {
	deps Deps
}

func NewListRefundDueUseCase(deps Deps) *ListRefundDueUseCase {
	return &ListRefundDueUseCase{deps: deps.withDefaults()}
}

// Execute возвращает платежи, списанные сверх оплаты заказа. Только для администратора.
func (uc *ListRefundDueUseCase) Execute(ctx context.Context, role valueobject.Role) ([]*entity.Payment, error) {
	if !role.IsAdmin() {
		return nil, apperror.ErrAdminOnly
	}

	var payments []*entity.Payment
	err := uc.deps.UoW.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		payments, err = tx.Payments().ListByStatus(ctx, valueobject.PaymentStatusRefundDue)
		return err
	})
	return payments, err
}
