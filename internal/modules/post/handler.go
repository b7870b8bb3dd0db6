package post

import (
	"net/http"

	"blogengine/internal/middleware"
	"blogengine/internal/pkg/apperror"
	"blogengine/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(api *gin.RouterGroup) {
	api.GET("/posts/getbyid/:post_id", h.GetByID)
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	posts := protected.Group("/posts")
	{
		posts.POST("/create", h.Create)
		posts.PUT("/update/:post_id", h.Update)
		posts.DELETE("/delete/:post_id", h.Delete)
		posts.GET("/getbyuser/:user_id", h.GetByUser)
	}
}

// Create
// @Summary		Create a post
// @Tags		Post
// @Security	BearerAuth
// @Accept		json
// @Produce		json
// @Param		request	body	PostRequest	true	"Title (max 50) and content (max 500)"
// @Success		201	{object}	domain.Post
// @Failure		400	{object}	map[string]interface{}
// @Failure		401	{object}	map[string]interface{}
// @Router		/posts/create [post]
func (h *Handler) Create(c *gin.Context) {
	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, apperror.Wrap(apperror.Validation, "", err))
		return
	}

	p, err := h.service.Create(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, p)
}

// Update
// @Summary		Update own post
// @Tags		Post
// @Security	BearerAuth
// @Accept		json
// @Produce		json
// @Param		post_id	path	string		true	"Post id"
// @Param		request	body	PostRequest	true	"New title and content"
// @Success		200	{object}	domain.Post
// @Failure		403	{object}	map[string]interface{}
// @Failure		404	{object}	map[string]interface{}
// @Router		/posts/update/{post_id} [put]
func (h *Handler) Update(c *gin.Context) {
	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, apperror.Wrap(apperror.Validation, "", err))
		return
	}

	p, err := h.service.Update(c.Request.Context(), middleware.UserID(c), c.Param("post_id"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, p)
}

// Delete
// @Summary		Delete own post
// @Tags		Post
// @Security	BearerAuth
// @Param		post_id	path	string	true	"Post id"
// @Success		204
// @Failure		403	{object}	map[string]interface{}
// @Failure		404	{object}	map[string]interface{}
// @Router		/posts/delete/{post_id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	if _, err := h.service.Delete(c.Request.Context(), middleware.UserID(c), c.Param("post_id")); err != nil {
		response.FromError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetByID
// @Summary		Read a post
// @Tags		Post
// @Produce		json
// @Param		post_id	path	string	true	"Post id"
// @Success		200	{object}	domain.Post
// @Failure		404	{object}	map[string]interface{}
// @Router		/posts/getbyid/{post_id} [get]
func (h *Handler) GetByID(c *gin.Context) {
	p, err := h.service.Get(c.Request.Context(), c.Param("post_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, p)
}

// GetByUser
// @Summary		Read a user's posts
// @Tags		Post
// @Security	BearerAuth
// @Produce		json
// @Param		user_id	path	string	true	"User id"
// @Success		200	{array}		domain.Post
// @Failure		404	{object}	map[string]interface{}
// @Router		/posts/getbyuser/{user_id} [get]
func (h *Handler) GetByUser(c *gin.Context) {
	posts, err := h.service.ListByUser(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, posts)
}
