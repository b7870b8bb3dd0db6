package vote

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
	api.POST("/comments/rate/:comment_id", h.Rate)
}

// Rate
// @Summary		Rate a comment
// @Description	One vote per client ip and comment; value is 1 or -1.
// @Tags		Voting
// @Accept		json
// @Produce		json
// @Param		comment_id	path	string		true	"Comment id"
// @Param		request		body	RateRequest	true	"Vote value"
// @Success		201	{object}	RateResult
// @Failure		400	{object}	map[string]interface{}
// @Failure		403	{object}	map[string]interface{}	"Already voted"
// @Failure		404	{object}	map[string]interface{}
// @Router		/comments/rate/{comment_id} [post]
func (h *Handler) Rate(c *gin.Context) {
	var req RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, apperror.Wrap(apperror.Validation, "", err))
		return
	}

	result, err := h.service.Rate(c.Request.Context(), c.Param("comment_id"), req.Value, c.ClientIP())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, result)
}
