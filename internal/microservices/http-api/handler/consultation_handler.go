package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"schooladmin/internal/ingestion/consultations"
	"schooladmin/internal/microservices/http-api/dto"
	"schooladmin/internal/microservices/http-api/middleware"
	"schooladmin/internal/microservices/http-api/repository"
	"schooladmin/internal/microservices/http-api/service"
)

// Refresher forces an out-of-schedule consultation fetch.
type Refresher interface {
	Refresh(ctx context.Context) (int, error)
}

type ConsultationHandler struct {
	svc       service.ConsultationService
	refresher Refresher
}

func NewConsultationHandler(svc service.ConsultationService, refresher Refresher) *ConsultationHandler {
	return &ConsultationHandler{svc: svc, refresher: refresher}
}

func (h *ConsultationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("/refresh", middleware.RequireScopes(service.ScopeConsultationsWrite), h.Refresh)
	rg.GET("/:id", h.Get)
}

// List serves one page of the consultation table
func (h *ConsultationHandler) List(c *gin.Context) {
	var params dto.ListQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
		return
	}
	query, err := params.ToListQuery()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if query.Sorted() && !repository.SortableColumn(query.SortBy) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "column is not sortable", "sort_by": query.SortBy})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	page, err := h.svc.List(ctx, query)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidSortColumn) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list consultations"})
		return
	}

	rows := make([]dto.ConsultationRow, 0, len(page.Rows))
	for _, m := range page.Rows {
		rows = append(rows, dto.NewConsultationRow(m))
	}

	c.JSON(http.StatusOK, dto.ConsultationListResponse{
		Data:       rows,
		Pagination: dto.NewPaginationMeta(query.Page, query.PageSize, page.TotalCount),
	})
}

func (h *ConsultationHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid consultation id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	consultation, err := h.svc.Get(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrConsultationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load consultation"})
		return
	}
	c.JSON(http.StatusOK, dto.NewConsultationRow(*consultation))
}

// Refresh re-fetches the consultation feed into the notification list
func (h *ConsultationHandler) Refresh(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	added, err := h.refresher.Refresh(ctx)
	if err != nil {
		if errors.Is(err, consultations.ErrRefreshThrottled) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to refresh consultations"})
		return
	}
	c.JSON(http.StatusAccepted, dto.RefreshResponse{Added: added})
}
