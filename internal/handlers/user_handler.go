package handlers

import (
	"net/http"

	"taskmarket_backend/internal/services"
	"taskmarket_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	*BaseHandler
	userService services.UserService
}

func NewUserHandler(base *BaseHandler, userService services.UserService) *UserHandler {
	return &UserHandler{
		BaseHandler: base,
		userService: userService,
	}
}

func (h *UserHandler) RegisterRoutes(public, protected, admin *gin.RouterGroup) {
	public.GET("/users/:id", h.GetPublicProfile)

	protected.GET("/users/me", h.GetProfile)

	admin.GET("/users", h.ListUsers)
	admin.PUT("/users/:id/status", h.SetStatus)
	admin.PUT("/users/:id/tier3-approval", h.SetTier3Approval)
}

// GetProfile returns the caller's own account, private fields included.
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) GetPublicProfile(c *gin.Context) {
	profile, err := h.userService.GetPublicProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	limit, offset := ParsePagination(c)

	users, err := h.userService.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}

func (h *UserHandler) SetStatus(c *gin.Context) {
	adminID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.SetUserStatusRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	if err := h.userService.SetStatus(c.Request.Context(), adminID, c.Param("id"), &req); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user status updated"})
}

func (h *UserHandler) SetTier3Approval(c *gin.Context) {
	adminID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.SetTier3ApprovalRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	if err := h.userService.SetTier3Approval(c.Request.Context(), adminID, c.Param("id"), req.Approved); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "tier 3 approval updated"})
}
