package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/interface/http/dto"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/interface/http/response"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/usecase/checkout"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/usecase/settlement"
)

// AdminHandler — выплаты продавцам из escrow и платежи к возврату.
type AdminHandler struct {
	listReleasableUC *settlement.ListReleasableUseCase
	releaseUC        *settlement.ReleaseEscrowUseCase
	listRefundDueUC  *checkout.ListRefundDueUseCase
}

func NewAdminHandler(deps settlement.Deps, checkoutDeps checkout.Deps) *AdminHandler {
	return &AdminHandler{
		listReleasableUC: settlement.NewListReleasableUseCase(deps),
		releaseUC:        settlement.NewReleaseEscrowUseCase(deps),
		listRefundDueUC:  checkout.NewListRefundDueUseCase(checkoutDeps),
	}
}

func (h *AdminHandler) ListReleasable(c *gin.Context) {
	_, role, ok := actor(c)
	if !ok {
		return
	}

	escrows, err := h.listReleasableUC.Execute(c.Request.Context(), role)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToEscrowResponses(escrows))
}

func (h *AdminHandler) Release(c *gin.Context) {
	userID, role, ok := actor(c)
	if !ok {
		return
	}
	escrowID, ok := pathID(c, "escrowId", "некорректный ID escrow")
	if !ok {
		return
	}

	result, err := h.releaseUC.Execute(c.Request.Context(), settlement.ReleaseInput{
		EscrowID: escrowID,
		AdminID:  userID,
		Role:     role,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ReleaseResponse{
		Escrow: dto.ToEscrowResponse(result.Escrow),
		Order:  dto.ToOrderResponse(result.Order),
		Payout: dto.ToPayoutResponse(result.Payout),
	})
}

// ListRefundDue — платежи, списанные по уже оплаченным заказам.
func (h *AdminHandler) ListRefundDue(c *gin.Context) {
	_, role, ok := actor(c)
	if !ok {
		return
	}

	payments, err := h.listRefundDueUC.Execute(c.Request.Context(), role)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToPaymentResponses(payments))
}
