package vote

import "blogengine/internal/domain"

type RateRequest struct {
	Value int `json:"value" binding:"required,oneof=1 -1" example:"1"`
}

type RateResult struct {
	NewVoting      domain.Vote    `json:"newVoting"`
	UpdatedComment domain.Comment `json:"updatedComment"`
}
