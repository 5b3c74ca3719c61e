package entry

type CreateRequest struct {
	Date  string `json:"date" binding:"required"` // YYYY-MM-DD
	Title string `json:"title" binding:"required"`
	Body  string `json:"body"`
}

type UpdateRequest struct {
	Date  string  `json:"date"`
	Title *string `json:"title"`
	Body  *string `json:"body"`
}
