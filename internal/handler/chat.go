package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pmn-helpdesk/backend/internal/model"
	"github.com/pmn-helpdesk/backend/internal/service"
)

type ChatHandler struct {
	svc *service.ChatService
}

func NewChatHandler(svc *service.ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// Chat godoc
// @Summary Ask the support bot directly
// @Tags chat
// @Accept json
// @Produce json
// @Param request body model.ChatRequest true "Chat request"
// @Success 200 {object} model.ChatResponse
// @Failure 400,500 {object} model.ErrorResponse
// @Router /api/v1/chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}

	resp, err := h.svc.Chat(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidChatRequest) {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}
