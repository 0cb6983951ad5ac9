package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pmn-helpdesk/backend/internal/db"
	"github.com/pmn-helpdesk/backend/internal/model"
)

// knowledgeAdminRepo - DB 인터페이스
type knowledgeAdminRepo interface {
	GetActiveKnowledgeEntries(ctx context.Context) ([]model.KnowledgeEntry, error)
	InsertKnowledgeEntry(ctx context.Context, e model.KnowledgeEntry) (int64, error)
	DeactivateKnowledgeEntry(ctx context.Context, id int64) error
}

// knowledgeReloader - 변경 후 제공 문서 재빌드 인터페이스
type knowledgeReloader interface {
	Reload(ctx context.Context) error
}

// KnowledgeHandler - 관리자용 지식 항목 핸들러
type KnowledgeHandler struct {
	repo     knowledgeAdminRepo
	reloader knowledgeReloader
}

func NewKnowledgeHandler(repo knowledgeAdminRepo, reloader knowledgeReloader) *KnowledgeHandler {
	return &KnowledgeHandler{repo: repo, reloader: reloader}
}

// ListEntries godoc
// @Summary List active knowledge entries
// @Tags knowledge
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.KnowledgeListResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/knowledge [get]
func (h *KnowledgeHandler) ListEntries(c *gin.Context) {
	entries, err := h.repo.GetActiveKnowledgeEntries(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, model.KnowledgeListResponse{Status: "success", Data: entries})
}

// CreateEntry godoc
// @Summary Create a knowledge entry
// @Tags knowledge
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.KnowledgeEntryRequest true "Knowledge entry"
// @Success 201 {object} model.KnowledgeMutationResponse
// @Failure 400,500 {object} model.ErrorResponse
// @Router /api/v1/knowledge [post]
func (h *KnowledgeHandler) CreateEntry(c *gin.Context) {
	var req model.KnowledgeEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}

	category := req.Category
	if category == "" {
		category = "general"
	}

	id, err := h.repo.InsertKnowledgeEntry(c.Request.Context(), model.KnowledgeEntry{
		Question: req.Question,
		Answer:   req.Answer,
		Category: category,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
		return
	}

	h.reload(c)
	c.JSON(http.StatusCreated, model.KnowledgeMutationResponse{
		Status:  "success",
		Message: "Knowledge entry created.",
		ID:      id,
	})
}

// DeactivateEntry godoc
// @Summary Deactivate a knowledge entry
// @Tags knowledge
// @Produce json
// @Security BearerAuth
// @Param id path int true "Entry ID"
// @Success 200 {object} model.KnowledgeMutationResponse
// @Failure 400,404,500 {object} model.ErrorResponse
// @Router /api/v1/knowledge/{id} [delete]
func (h *KnowledgeHandler) DeactivateEntry(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid id"})
		return
	}

	if err := h.repo.DeactivateKnowledgeEntry(c.Request.Context(), id); err != nil {
		if errors.Is(err, db.ErrKnowledgeEntryNotFound) {
			c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "knowledge entry not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
		return
	}

	h.reload(c)
	c.JSON(http.StatusOK, model.KnowledgeMutationResponse{
		Status:  "success",
		Message: "Knowledge entry deactivated.",
		ID:      id,
	})
}

func (h *KnowledgeHandler) reload(c *gin.Context) {
	if err := h.reloader.Reload(c.Request.Context()); err != nil {
		// 재적재 실패는 다음 주기 리로드가 따라잡는다
		c.Header("X-Knowledge-Reload", "deferred")
	}
}
