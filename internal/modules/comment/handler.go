package comment

import (
	"net/http"

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
	comments := api.Group("/comments")
	{
		comments.POST("/comment/:post_id", h.Add)
		comments.POST("/reply/:comment_id", h.Reply)
		comments.GET("/get/:post_id", h.ListByPost)
	}
}

// Add
// @Summary		Comment a post
// @Tags		Comment
// @Accept		json
// @Produce		json
// @Param		post_id	path	string			true	"Post id"
// @Param		request	body	CommentRequest	true	"Author (max 25) and content (max 250)"
// @Success		201	{object}	domain.Comment
// @Failure		400	{object}	map[string]interface{}
// @Failure		404	{object}	map[string]interface{}
// @Router		/comments/comment/{post_id} [post]
func (h *Handler) Add(c *gin.Context) {
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, apperror.Wrap(apperror.Validation, "", err))
		return
	}

	comment, err := h.service.Add(c.Request.Context(), c.Param("post_id"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, comment)
}

// Reply
// @Summary		Reply to a comment
// @Tags		Comment
// @Accept		json
// @Produce		json
// @Param		comment_id	path	string			true	"Parent comment id"
// @Param		request		body	CommentRequest	true	"Author and content"
// @Success		201	{object}	ReplyResult
// @Failure		404	{object}	map[string]interface{}
// @Router		/comments/reply/{comment_id} [post]
func (h *Handler) Reply(c *gin.Context) {
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, apperror.Wrap(apperror.Validation, "", err))
		return
	}

	result, err := h.service.Reply(c.Request.Context(), c.Param("comment_id"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, result)
}

// ListByPost
// @Summary		Comments of a post
// @Tags		Comment
// @Produce		json
// @Param		post_id	path	string	true	"Post id"
// @Success		200	{array}		domain.Comment
// @Failure		404	{object}	map[string]interface{}
// @Router		/comments/get/{post_id} [get]
func (h *Handler) ListByPost(c *gin.Context) {
	comments, err := h.service.ListByPost(c.Request.Context(), c.Param("post_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, comments)
}
