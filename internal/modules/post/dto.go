package post

type PostRequest struct {
	Title   string `json:"title" binding:"required,max=50" example:"Hello"`
	Content string `json:"content" binding:"required,max=500" example:"First post"`
}
