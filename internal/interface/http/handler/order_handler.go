package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/interface/http/dto"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/interface/http/response"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/usecase/checkout"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/usecase/settlement"
)

type OrderHandler struct {
	createOrderUC *checkout.CreateGigOrderUseCase
	getOrderUC    *checkout.GetOrderUseCase
	deleteOrderUC *checkout.DeleteOrderUseCase
	confirmWorkUC *settlement.ConfirmWorkUseCase
	getEscrowUC   *settlement.GetEscrowUseCase
}

func NewOrderHandler(checkoutDeps checkout.Deps, settlementDeps settlement.Deps) *OrderHandler {
	return &OrderHandler{
		createOrderUC: checkout.NewCreateGigOrderUseCase(checkoutDeps),
		getOrderUC:    checkout.NewGetOrderUseCase(checkoutDeps),
		deleteOrderUC: checkout.NewDeleteOrderUseCase(checkoutDeps),
		confirmWorkUC: settlement.NewConfirmWorkUseCase(settlementDeps),
		getEscrowUC:   settlement.NewGetEscrowUseCase(settlementDeps),
	}
}

// CreateOrder оформляет покупку гига.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, _, ok := actor(c)
	if !ok {
		return
	}

	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	order, err := h.createOrderUC.Execute(c.Request.Context(), checkout.CreateGigOrderInput{
		BuyerID:       userID,
		GigID:         uuid.MustParse(req.GigID),
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToOrderResponse(order))
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, role, ok := actor(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id", "некорректный ID заказа")
	if !ok {
		return
	}

	order, err := h.getOrderUC.Execute(c.Request.Context(), orderID, userID, role)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToOrderResponse(order))
}

func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	userID, _, ok := actor(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id", "некорректный ID заказа")
	if !ok {
		return
	}

	if err := h.deleteOrderUC.Execute(c.Request.Context(), orderID, userID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": true})
}

// UpdateWorkStatus фиксирует подтверждение работы продавцом или покупателем.
func (h *OrderHandler) UpdateWorkStatus(c *gin.Context) {
	userID, _, ok := actor(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id", "некорректный ID заказа")
	if !ok {
		return
	}

	var req dto.WorkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "поле work_status обязательно")
		return
	}

	result, err := h.confirmWorkUC.Execute(c.Request.Context(), settlement.ConfirmWorkInput{
		OrderID: orderID,
		ActorID: userID,
		Done:    *req.WorkStatus,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.WorkStatusResponse{
		Order:  dto.ToOrderResponse(result.Order),
		Escrow: dto.ToEscrowResponse(result.Escrow),
	})
}

func (h *OrderHandler) GetEscrow(c *gin.Context) {
	userID, role, ok := actor(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id", "некорректный ID заказа")
	if !ok {
		return
	}

	escrow, err := h.getEscrowUC.Execute(c.Request.Context(), orderID, userID, role)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToEscrowResponse(escrow))
}
