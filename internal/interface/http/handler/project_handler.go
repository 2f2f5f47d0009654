package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/interface/http/dto"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/interface/http/response"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/usecase/bidding"
)

// ProjectHandler обслуживает проекты и ставки по ним.
type ProjectHandler struct {
	createProjectUC *bidding.CreateProjectUseCase
	getProjectUC    *bidding.GetProjectUseCase
	cancelProjectUC *bidding.CancelProjectUseCase
	submitBidUC     *bidding.SubmitBidUseCase
	withdrawBidUC   *bidding.WithdrawBidUseCase
	listBidsUC      *bidding.ListProjectBidsUseCase
	awardBidUC      *bidding.AwardBidUseCase
}

func NewProjectHandler(deps bidding.Deps) *ProjectHandler {
	return &ProjectHandler{
		createProjectUC: bidding.NewCreateProjectUseCase(deps),
		getProjectUC:    bidding.NewGetProjectUseCase(deps),
		cancelProjectUC: bidding.NewCancelProjectUseCase(deps),
		submitBidUC:     bidding.NewSubmitBidUseCase(deps),
		withdrawBidUC:   bidding.NewWithdrawBidUseCase(deps),
		listBidsUC:      bidding.NewListProjectBidsUseCase(deps),
		awardBidUC:      bidding.NewAwardBidUseCase(deps),
	}
}

func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, _, ok := actor(c)
	if !ok {
		return
	}

	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	expiresAt, err := dto.ParseTime(req.ExpiresAt)
	if err != nil {
		response.BadRequest(c, "некорректный формат expires_at")
		return
	}

	project, err := h.createProjectUC.Execute(c.Request.Context(), bidding.CreateProjectInput{
		ClientID:             userID,
		Title:                req.Title,
		Description:          req.Description,
		BudgetMin:            req.BudgetMin,
		BudgetMax:            req.BudgetMax,
		Category:             req.Category,
		ExpectedDurationDays: req.ExpectedDurationDays,
		Attachments:          req.Attachments,
		ExpiresAt:            expiresAt,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToProjectResponse(project))
}

func (h *ProjectHandler) GetProject(c *gin.Context) {
	projectID, ok := pathID(c, "id", "некорректный ID проекта")
	if !ok {
		return
	}

	project, err := h.getProjectUC.Execute(c.Request.Context(), projectID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToProjectResponse(project))
}

func (h *ProjectHandler) CancelProject(c *gin.Context) {
	userID, _, ok := actor(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id", "некорректный ID проекта")
	if !ok {
		return
	}

	project, err := h.cancelProjectUC.Execute(c.Request.Context(), projectID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToProjectResponse(project))
}

func (h *ProjectHandler) SubmitBid(c *gin.Context) {
	userID, role, ok := actor(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id", "некорректный ID проекта")
	if !ok {
		return
	}

	var req dto.SubmitBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	bid, err := h.submitBidUC.Execute(c.Request.Context(), bidding.SubmitBidInput{
		ProjectID:    projectID,
		BidderID:     userID,
		Role:         role,
		Amount:       req.Amount,
		Proposal:     req.Proposal,
		DeliveryDays: req.DeliveryDays,
		Attachments:  req.Attachments,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToBidResponse(bid))
}

func (h *ProjectHandler) ListBids(c *gin.Context) {
	userID, role, ok := actor(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id", "некорректный ID проекта")
	if !ok {
		return
	}

	bids, err := h.listBidsUC.Execute(c.Request.Context(), projectID, userID, role)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToBidResponses(bids))
}

func (h *ProjectHandler) WithdrawBid(c *gin.Context) {
	userID, _, ok := actor(c)
	if !ok {
		return
	}
	bidID, ok := pathID(c, "bidId", "некорректный ID ставки")
	if !ok {
		return
	}

	bid, err := h.withdrawBidUC.Execute(c.Request.Context(), bidID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToBidResponse(bid))
}

// AwardBid выбирает ставку и возвращает созданный заказ вместе с escrow.
func (h *ProjectHandler) AwardBid(c *gin.Context) {
	userID, _, ok := actor(c)
	if !ok {
		return
	}
	bidID, ok := pathID(c, "bidId", "некорректный ID ставки")
	if !ok {
		return
	}

	result, err := h.awardBidUC.Execute(c.Request.Context(), bidID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.AwardResponse{
		Project: dto.ToProjectResponse(result.Project),
		Bid:     dto.ToBidResponse(result.Bid),
		Order:   dto.ToOrderResponse(result.Order),
		Escrow:  dto.ToEscrowResponse(result.Escrow),
	})
}
