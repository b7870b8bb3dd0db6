package comment

import "blogengine/internal/domain"

type CommentRequest struct {
	Author  string `json:"author" binding:"required,max=25" example:"jane"`
	Content string `json:"content" binding:"required,max=250" example:"Nice post"`
}

type ReplyResult struct {
	ParentComment domain.Comment `json:"parentComment"`
	NewComment    domain.Comment `json:"newComment"`
}
