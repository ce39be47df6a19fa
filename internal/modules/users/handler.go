package users

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"identity/internal/domain"
	"identity/internal/middleware"
	"identity/internal/pkg/response"
	"identity/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts /users. Every route needs an authenticated caller.
func (h *Handler) RegisterRoutes(v1 *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	usersGroup := v1.Group("/users")
	usersGroup.Use(requireAuth)
	{
		usersGroup.GET("/me", middleware.RequirePrivilege(domain.PrivilegeReadProfile), h.GetMe)
		usersGroup.GET("", middleware.RequirePrivilege(domain.PrivilegeReadUsers), h.List)
		usersGroup.PUT("/:id/role", middleware.RequirePrivilege(domain.PrivilegeUpdateUserRole), h.UpdateRole)
		usersGroup.PUT("/:id/enabled", middleware.RequirePrivilege(domain.PrivilegeEnableUser, domain.PrivilegeDisableUser), h.SetEnabled)
	}
}

// GetMe returns the caller's account.
// @Summary		Current user
// @Tags		Users
// @Security	BearerAuth
// @Success		200	{object}	UserResponse
// @Router		/users/me [GET]
func (h *Handler) GetMe(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	user, err := h.service.GetMe(c.Request.Context(), principal)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, NewUserResponse(user))
}

// List pages through all accounts.
// @Summary		List users
// @Tags		Users
// @Security	BearerAuth
// @Param		limit	query	int	false	"page size (max 100)"
// @Param		offset	query	int	false	"offset"
// @Success		200	{object}	ListResponse
// @Router		/users [GET]
func (h *Handler) List(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}
	if fields := validator.Validate(q); fields != nil {
		response.ValidationError(c, fields)
		return
	}

	list, total, err := h.service.List(c.Request.Context(), q.Limit, q.Offset)
	if err != nil {
		response.FromError(c, err)
		return
	}

	out := make([]UserResponse, 0, len(list))
	for i := range list {
		out = append(out, NewUserResponse(&list[i]))
	}
	limit := q.Limit
	if limit == 0 {
		limit = defaultListLimit
	}
	response.Success(c, http.StatusOK, ListResponse{Users: out, Total: total, Limit: limit, Offset: q.Offset})
}

// UpdateRole changes a user's role.
// @Summary		Change role
// @Tags		Users
// @Security	BearerAuth
// @Param		id		path	string				true	"user id"
// @Param		request	body	UpdateRoleRequest	true	"role"
// @Success		200	{object}	UserResponse
// @Failure		400	{object}	map[string]interface{}
// @Failure		404	{object}	map[string]interface{}
// @Router		/users/{id}/role [PUT]
func (h *Handler) UpdateRole(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	var req UpdateRoleRequest
	if !bind(c, &req) {
		return
	}

	principal, _ := middleware.PrincipalFrom(c)
	user, err := h.service.ChangeRole(c.Request.Context(), principal, id, req.Role)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, NewUserResponse(user))
}

// SetEnabled enables or disables a user.
// @Summary		Enable or disable user
// @Tags		Users
// @Security	BearerAuth
// @Param		id		path	string				true	"user id"
// @Param		request	body	SetEnabledRequest	true	"enabled"
// @Success		200	{object}	UserResponse
// @Failure		403	{object}	map[string]interface{}
// @Failure		404	{object}	map[string]interface{}
// @Router		/users/{id}/enabled [PUT]
func (h *Handler) SetEnabled(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	var req SetEnabledRequest
	if !bind(c, &req) {
		return
	}

	principal, _ := middleware.PrincipalFrom(c)
	user, err := h.service.SetEnabled(c.Request.Context(), principal, id, *req.Enabled)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, NewUserResponse(user))
}

func userID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.FromError(c, ErrInvalidUserID)
		return uuid.Nil, false
	}
	return id, true
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return false
	}
	if fields := validator.Validate(req); fields != nil {
		response.ValidationError(c, fields)
		return false
	}
	return true
}
