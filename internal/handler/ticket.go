package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pmn-helpdesk/backend/internal/db"
	"github.com/pmn-helpdesk/backend/internal/model"
)

// ticketRepo - DB 인터페이스
type ticketRepo interface {
	ListTickets(ctx context.Context, status, chatID string) ([]model.Ticket, error)
	GetTicketByNumber(ctx context.Context, ticketNumber string) (*model.Ticket, error)
	ResolveTicket(ctx context.Context, ticketNumber, notes string) error
}

// TicketHandler - 관리자용 티켓 조회/해결 핸들러
type TicketHandler struct {
	repo ticketRepo
}

func NewTicketHandler(repo ticketRepo) *TicketHandler {
	return &TicketHandler{repo: repo}
}

// ListTickets godoc
// @Summary List support tickets
// @Tags tickets
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status (open|resolved)"
// @Param chat_id query string false "Filter by chat"
// @Success 200 {object} model.TicketListResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/tickets [get]
func (h *TicketHandler) ListTickets(c *gin.Context) {
	tickets, err := h.repo.ListTickets(c.Request.Context(), c.Query("status"), c.Query("chat_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, model.TicketListResponse{Status: "success", Data: tickets})
}

// GetTicket godoc
// @Summary Get a ticket by number
// @Tags tickets
// @Produce json
// @Security BearerAuth
// @Param number path string true "Ticket number (PMN-20240101-0001)"
// @Success 200 {object} model.TicketDetailResponse
// @Failure 404,500 {object} model.ErrorResponse
// @Router /api/v1/tickets/{number} [get]
func (h *TicketHandler) GetTicket(c *gin.Context) {
	ticket, err := h.repo.GetTicketByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		if errors.Is(err, db.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "ticket not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, model.TicketDetailResponse{Status: "success", Data: ticket})
}

// ResolveTicket godoc
// @Summary Mark a ticket resolved
// @Tags tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param number path string true "Ticket number"
// @Param request body model.ResolveTicketRequest true "Resolution notes"
// @Success 200 {object} model.TicketMutationResponse
// @Failure 404,500 {object} model.ErrorResponse
// @Router /api/v1/tickets/{number}/resolve [patch]
func (h *TicketHandler) ResolveTicket(c *gin.Context) {
	var req model.ResolveTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}

	number := c.Param("number")
	if err := h.repo.ResolveTicket(c.Request.Context(), number, req.ResolutionNotes); err != nil {
		if errors.Is(err, db.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "ticket not found or already resolved"})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, model.TicketMutationResponse{
		Status:       "success",
		Message:      "Ticket marked resolved.",
		TicketNumber: number,
	})
}
