package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainErrors "github.com/vendara/marketplace/internal/domain/errors"
	"github.com/vendara/marketplace/internal/domain/model"
	"github.com/vendara/marketplace/internal/server/http/dto"
	"github.com/vendara/marketplace/internal/usecase"
)

// OrderHandler manages order status endpoints.
type OrderHandler struct {
	facade MarketplaceFacade
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade MarketplaceFacade) *OrderHandler {
	return &OrderHandler{facade: facade}
}

// ChangeStatus handles POST /api/orders/:id/status.
func (h *OrderHandler) ChangeStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid order id"})
		return
	}

	var req dto.StatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.facade.ChangeStatus(c.Request.Context(), id, req.Status, req.Actor, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.StatusChangeResponse{
		Previous: string(result.Previous),
		Status:   string(result.New),
	})
}

// Cancel handles POST /api/orders/cancel.
func (h *OrderHandler) Cancel(c *gin.Context) {
	var req dto.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.facade.Cancel(c.Request.Context(), req.Order, req.Email, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CancelResponse{
		Status:             string(result.NewStatus),
		CommissionReversed: result.CommissionReversed,
	})
}

// Status handles GET /api/orders/:id/status.
func (h *OrderHandler) Status(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid order id"})
		return
	}

	res, err := h.facade.Status(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toStatusResponse(res))
}

// Split handles POST /api/orders/:id/split.
func (h *OrderHandler) Split(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid order id"})
		return
	}

	parts, err := h.facade.Split(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	response := dto.SplitResponse{Parts: make([]dto.PartResponse, 0, len(parts))}
	for _, p := range parts {
		response.Parts = append(response.Parts, toPartResponse(p))
	}

	c.JSON(http.StatusCreated, response)
}

func toStatusResponse(res *usecase.Resolution) dto.StatusResponse {
	sub := make([]string, 0, len(res.SubStatuses))
	for _, s := range res.SubStatuses {
		sub = append(sub, string(s))
	}
	return dto.StatusResponse{
		Status:            string(res.Status),
		SubStatuses:       sub,
		CustomerMayCancel: res.CustomerMayCancel,
		AdminMayChange:    res.AdminMayChange,
	}
}

func toPartResponse(p model.OrderPart) dto.PartResponse {
	var vendorID *string
	if p.VendorID != nil {
		s := p.VendorID.String()
		vendorID = &s
	}
	return dto.PartResponse{
		ID:               p.ID.String(),
		Family:           string(p.Family),
		VendorID:         vendorID,
		Number:           p.Number,
		Status:           string(p.Status),
		TotalAmount:      p.TotalAmount.StringFixed(2),
		CommissionAmount: p.CommissionAmount.StringFixed(2),
	}
}

// writeError maps domain errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	var transitionErr *usecase.TransitionError
	if errors.As(err, &transitionErr) {
		allowed := make([]string, 0, len(transitionErr.Allowed))
		for _, s := range transitionErr.Allowed {
			allowed = append(allowed, string(s))
		}
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: transitionErr.Error(), Allowed: allowed})
		return
	}

	switch {
	case errors.Is(err, domainErrors.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "order not found"})
	case errors.Is(err, domainErrors.ErrNotOwner):
		c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "order belongs to another customer"})
	case errors.Is(err, domainErrors.ErrOrderTerminal):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "order is in a terminal status"})
	case errors.Is(err, domainErrors.ErrOrderAlreadySplit):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "order is already split"})
	case errors.Is(err, domainErrors.ErrUnknownStatus):
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: "unknown status"})
	case errors.Is(err, domainErrors.ErrUnknownActor):
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: "unknown actor"})
	case errors.Is(err, domainErrors.ErrNotRoot):
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: "order is not a root order"})
	case errors.Is(err, domainErrors.ErrInvalidIdentifier):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid order identifier"})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
	}
}
