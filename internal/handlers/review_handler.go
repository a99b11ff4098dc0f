package handlers

import (
	"net/http"

	"taskmarket_backend/internal/services"
	"taskmarket_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	*BaseHandler
	reviewService     services.ReviewService
	reputationService services.ReputationService
}

func NewReviewHandler(base *BaseHandler, reviewService services.ReviewService, reputationService services.ReputationService) *ReviewHandler {
	return &ReviewHandler{
		BaseHandler:       base,
		reviewService:     reviewService,
		reputationService: reputationService,
	}
}

func (h *ReviewHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("/users/:id/reviews", h.ListForUser)
	public.GET("/users/:id/reputation", h.GetReputation)
	protected.POST("/tasks/:id/reviews", h.Create)
}

func (h *ReviewHandler) Create(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateReviewRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	review, err := h.reviewService.Create(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, review)
}

func (h *ReviewHandler) ListForUser(c *gin.Context) {
	limit, offset := ParsePagination(c)

	reviews, err := h.reviewService.ListForUser(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": reviews, "count": len(reviews)})
}

func (h *ReviewHandler) GetReputation(c *gin.Context) {
	summary, err := h.reputationService.GetSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
