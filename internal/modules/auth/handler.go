package auth

import (
	"net/http"
	"strings"
	"time"

	"blogengine/internal/middleware"
	"blogengine/internal/pkg/apperror"
	"blogengine/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const refreshCookie = "refreshToken"

// CookieConfig controls the refresh-token cookie.
type CookieConfig struct {
	Secure   bool
	SameSite string
	Path     string
	MaxAge   time.Duration
}

// Handler manages all HTTP interactions for users and sessions
type Handler struct {
	service *Service
	cookie  CookieConfig
}

func NewHandler(service *Service, cookie CookieConfig) *Handler {
	if cookie.Path == "" {
		cookie.Path = "/"
	}
	return &Handler{service: service, cookie: cookie}
}

func (h *Handler) RegisterPublicRoutes(api *gin.RouterGroup) {
	users := api.Group("/users")
	{
		users.POST("/signup", h.Signup)
		users.GET("/activate/:link", h.Activate)
		users.POST("/login", h.Login)
		users.POST("/logout", h.Logout)
		users.POST("/logoutall", h.LogoutAll)
		users.GET("/refresh", h.Refresh)
	}
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	users := protected.Group("/users")
	{
		users.DELETE("/delete/me", h.DeleteMe)
		users.GET("/get/me", h.GetMe)
		users.GET("/get/all", h.GetAll)
	}
}

// Signup registers a new user.
// @Summary		Sign up
// @Description	Creates an inactive account and mails the activation link.
// @Tags		User
// @Accept		json
// @Produce		json
// @Param		request	body	SignupRequest	true	"Email and password"
// @Success		201	{object}	map[string]interface{}	"newUser: public projection"
// @Failure		400	{object}	map[string]interface{}	"Invalid data format"
// @Failure		409	{object}	map[string]interface{}	"Email already taken"
// @Router		/users/signup [post]
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, apperror.Wrap(apperror.Validation, "", err))
		return
	}

	user, err := h.service.Signup(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"newUser": user})
}

// Activate confirms the email behind an activation link.
// @Summary		Activate account
// @Tags		User
// @Produce		json
// @Param		link	path	string	true	"Activation link id"
// @Success		200	{object}	map[string]interface{}	"msg and userData token pair"
// @Failure		404	{object}	map[string]interface{}	"Activation link not found"
// @Router		/users/activate/{link} [get]
func (h *Handler) Activate(c *gin.Context) {
	pair, err := h.service.Activate(c.Request.Context(), c.Param("link"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	h.setRefreshCookie(c, pair.RefreshToken)
	response.Success(c, http.StatusOK, gin.H{
		"msg":      "You account has been successfully activated!",
		"userData": pair,
	})
}

// Login opens a session.
// @Summary		Log in
// @Tags		User
// @Accept		json
// @Produce		json
// @Param		request	body	LoginRequest	true	"Email and password"
// @Success		200	{object}	LoginResult
// @Failure		400	{object}	map[string]interface{}	"Invalid data format"
// @Failure		401	{object}	map[string]interface{}	"Incorrect email or password"
// @Failure		403	{object}	map[string]interface{}	"Email not confirmed"
// @Router		/users/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, apperror.Wrap(apperror.Validation, "", err))
		return
	}

	result, err := h.service.Login(c.Request.Context(), req, h.presentedToken(c))
	if err != nil {
		response.FromError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	response.Success(c, http.StatusOK, result)
}

// Logout ends the session of the refreshToken cookie.
// @Summary		Log out
// @Tags		User
// @Produce		json
// @Success		200	{object}	map[string]interface{}	"msg and deleted token"
// @Failure		401	{object}	map[string]interface{}	"Please authenticate"
// @Router		/users/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	token, err := h.service.Logout(c.Request.Context(), h.presentedToken(c))
	if err != nil {
		response.FromError(c, err)
		return
	}

	h.clearRefreshCookie(c)
	response.Success(c, http.StatusOK, gin.H{
		"msg":   "You have been successfully logged out from the current device.",
		"token": token,
	})
}

// LogoutAll ends every session of the cookie's owner.
// @Summary		Log out from all devices
// @Tags		User
// @Produce		json
// @Success		200	{object}	map[string]interface{}	"msg and deletedTokens count"
// @Failure		401	{object}	map[string]interface{}	"Please authenticate"
// @Router		/users/logoutall [post]
func (h *Handler) LogoutAll(c *gin.Context) {
	result, err := h.service.LogoutAll(c.Request.Context(), h.presentedToken(c))
	if err != nil {
		response.FromError(c, err)
		return
	}

	h.clearRefreshCookie(c)
	response.Success(c, http.StatusOK, gin.H{
		"msg":           "You have been successfully logged out from all devices",
		"deletedTokens": result.DeletedTokens,
	})
}

// Refresh rotates the token pair.
// @Summary		Refresh tokens
// @Tags		User
// @Produce		json
// @Success		200	{object}	RefreshResult
// @Failure		401	{object}	map[string]interface{}	"Please authenticate"
// @Failure		403	{object}	map[string]interface{}	"Token not valid"
// @Router		/users/refresh [get]
func (h *Handler) Refresh(c *gin.Context) {
	result, err := h.service.Refresh(c.Request.Context(), h.presentedToken(c))
	if err != nil {
		response.FromError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	response.Success(c, http.StatusOK, result)
}

// DeleteMe removes the caller and everything they own.
// @Summary		Delete current user
// @Tags		User
// @Security	BearerAuth
// @Success		204
// @Failure		401	{object}	map[string]interface{}	"Please authenticate"
// @Failure		404	{object}	map[string]interface{}	"User not found"
// @Router		/users/delete/me [delete]
func (h *Handler) DeleteMe(c *gin.Context) {
	if _, err := h.service.DeleteMe(c.Request.Context(), middleware.UserID(c)); err != nil {
		response.FromError(c, err)
		return
	}

	h.clearRefreshCookie(c)
	c.Status(http.StatusNoContent)
}

// GetMe returns the caller.
// @Summary		Current user
// @Tags		User
// @Security	BearerAuth
// @Produce		json
// @Success		200	{object}	MeResponse
// @Failure		401	{object}	map[string]interface{}	"Please authenticate"
// @Router		/users/get/me [get]
func (h *Handler) GetMe(c *gin.Context) {
	me, err := h.service.Me(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, me)
}

// GetAll lists every user.
// @Summary		All users
// @Tags		User
// @Security	BearerAuth
// @Produce		json
// @Success		200	{array}	domain.PublicUser
// @Failure		401	{object}	map[string]interface{}	"Please authenticate"
// @Router		/users/get/all [get]
func (h *Handler) GetAll(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, users)
}

func (h *Handler) presentedToken(c *gin.Context) string {
	token, err := c.Cookie(refreshCookie)
	if err != nil {
		return ""
	}
	return token
}

func (h *Handler) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(parseSameSite(h.cookie.SameSite))
	c.SetCookie(refreshCookie, token, int(h.cookie.MaxAge.Seconds()), h.cookie.Path, "", h.cookie.Secure, true)
}

func (h *Handler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(parseSameSite(h.cookie.SameSite))
	c.SetCookie(refreshCookie, "", -1, h.cookie.Path, "", h.cookie.Secure, true)
}

func parseSameSite(mode string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
