package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"identity/internal/domain"
	"identity/internal/middleware"
	"identity/internal/pkg/response"
	"identity/internal/pkg/validator"
)

// Handler manages all HTTP interactions for authentication
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the /auth group. requireAuth guards the endpoints
// that act on the caller; limit throttles credential endpoints.
func (h *Handler) RegisterRoutes(v1 *gin.RouterGroup, requireAuth, limit gin.HandlerFunc) {
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/signup", limit, h.Signup)
		authGroup.POST("/login", limit, h.Login)
		authGroup.POST("/refresh", h.Refresh)
		authGroup.POST("/confirm", h.ConfirmMail)
		authGroup.POST("/confirm/resend", limit, h.ResendConfirmation)
		authGroup.POST("/password/forgot", limit, h.ForgotPassword)
		authGroup.POST("/password/reset", limit, h.ResetPassword)

		authGroup.POST("/logout", requireAuth, h.Logout)
		authGroup.PUT("/password", requireAuth, middleware.RequirePrivilege(domain.PrivilegeChangePassword), h.ChangePassword)
	}
}

// bind decodes and validates the JSON body, writing the error response
// itself when the body is unusable.
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

func tokenResponse(result *AuthResult) TokenResponse {
	user := NewUserPublic(result.User)
	return TokenResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    "Bearer",
		User:         &user,
	}
}

// Signup registers a password account.
// @Summary		Sign up
// @Description	Creates a password account. When mail confirmation is required the account starts disabled and a confirmation token is mailed.
// @Tags		Auth
// @Param		request	body	SignupRequest	true	"email, name, password"
// @Success		201	{object}	map[string]interface{}
// @Failure		400	{object}	map[string]interface{}
// @Failure		409	{object}	map[string]interface{}
// @Router		/auth/signup [POST]
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if !bind(c, &req) {
		return
	}

	user, err := h.service.Signup(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"user":                  NewUserPublic(user),
		"confirmation_required": !user.Enabled,
	})
}

// Login signs in with a password or a social provider token.
// @Summary		Log in
// @Tags		Auth
// @Param		request	body	LoginRequest	true	"method, email/password or provider token"
// @Success		200	{object}	TokenResponse
// @Failure		400	{object}	map[string]interface{}
// @Failure		401	{object}	map[string]interface{}
// @Failure		403	{object}	map[string]interface{}
// @Failure		502	{object}	map[string]interface{}
// @Router		/auth/login [POST]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !bind(c, &req) {
		return
	}

	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, tokenResponse(result))
}

// Refresh exchanges a refresh token for a new token pair.
// @Summary		Refresh tokens
// @Tags		Auth
// @Param		request	body	RefreshRequest	true	"refresh_token"
// @Success		200	{object}	TokenResponse
// @Failure		400	{object}	map[string]interface{}
// @Failure		401	{object}	map[string]interface{}
// @Router		/auth/refresh [POST]
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if !bind(c, &req) {
		return
	}

	result, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, tokenResponse(result))
}

// Logout revokes the caller's refresh token.
// @Summary		Log out
// @Tags		Auth
// @Security	BearerAuth
// @Success		200	{object}	map[string]interface{}
// @Router		/auth/logout [POST]
func (h *Handler) Logout(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	if err := h.service.Logout(c.Request.Context(), principal); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"logged_out": true})
}

// ConfirmMail enables an account from its confirmation token.
// @Summary		Confirm email
// @Tags		Auth
// @Param		request	body	ConfirmMailRequest	true	"token"
// @Success		200	{object}	map[string]interface{}
// @Failure		400	{object}	map[string]interface{} "SECRET_TOKEN_INVALID or SECRET_TOKEN_EXPIRED"
// @Failure		404	{object}	map[string]interface{}
// @Router		/auth/confirm [POST]
func (h *Handler) ConfirmMail(c *gin.Context) {
	var req ConfirmMailRequest
	if !bind(c, &req) {
		return
	}

	if err := h.service.ConfirmMail(c.Request.Context(), req.Token); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"confirmed": true})
}

// ResendConfirmation mails a fresh confirmation token.
// @Summary		Resend confirmation mail
// @Tags		Auth
// @Param		request	body	EmailRequest	true	"email"
// @Success		202	{object}	map[string]interface{}
// @Failure		404	{object}	map[string]interface{}
// @Failure		409	{object}	map[string]interface{}
// @Router		/auth/confirm/resend [POST]
func (h *Handler) ResendConfirmation(c *gin.Context) {
	var req EmailRequest
	if !bind(c, &req) {
		return
	}

	if err := h.service.ResendConfirmation(c.Request.Context(), req.Email); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"sent": true})
}

// ForgotPassword mails a password reset token.
// @Summary		Request password reset
// @Tags		Auth
// @Param		request	body	EmailRequest	true	"email"
// @Success		202	{object}	map[string]interface{}
// @Failure		404	{object}	map[string]interface{}
// @Router		/auth/password/forgot [POST]
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req EmailRequest
	if !bind(c, &req) {
		return
	}

	if err := h.service.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"sent": true})
}

// ResetPassword sets a new password from a reset token.
// @Summary		Reset password
// @Tags		Auth
// @Param		request	body	ResetPasswordRequest	true	"token, new_password"
// @Success		200	{object}	map[string]interface{}
// @Failure		400	{object}	map[string]interface{}
// @Failure		404	{object}	map[string]interface{}
// @Router		/auth/password/reset [POST]
func (h *Handler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !bind(c, &req) {
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), req); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"reset": true})
}

// ChangePassword replaces the caller's password.
// @Summary		Change password
// @Tags		Auth
// @Security	BearerAuth
// @Param		request	body	ChangePasswordRequest	true	"old_password, new_password"
// @Success		200	{object}	map[string]interface{}
// @Failure		400	{object}	map[string]interface{}
// @Failure		401	{object}	map[string]interface{}
// @Router		/auth/password [PUT]
func (h *Handler) ChangePassword(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req ChangePasswordRequest
	if !bind(c, &req) {
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), principal, req); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"changed": true})
}
