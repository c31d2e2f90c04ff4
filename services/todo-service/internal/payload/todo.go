package payload

// CreateTodoRequest is the body of POST /todos. Description is a pointer so that an
// explicit empty string is accepted while an absent field is not. Priority and Status
// may be absent but an explicit empty string is not a member of either enum.
type CreateTodoRequest struct {
	Title       string  `json:"title"       validate:"required,min=1,max=255"`
	Description *string `json:"description" validate:"required"`
	DueDate     string  `json:"dueDate"     validate:"required,isodate"`
	Priority    *string `json:"priority"    validate:"omitnil,oneof=low medium high"`
	Status      *string `json:"status"      validate:"omitnil,oneof=pending completed"`
}

// UpdateTodoRequest is the body of PUT /todos/{id}. Absent fields are left untouched.
type UpdateTodoRequest struct {
	Title       *string `json:"title"       validate:"omitnil,min=1,max=255"`
	Description *string `json:"description" validate:"omitnil"`
	DueDate     *string `json:"dueDate"     validate:"omitnil,isodate"`
	Priority    *string `json:"priority"    validate:"omitnil,oneof=low medium high"`
	Status      *string `json:"status"      validate:"omitnil,oneof=pending completed"`
}

// ListTodosQuery holds the query parameters of GET /todos.
type ListTodosQuery struct {
	Page  *int   `json:"page"  validate:"omitnil,min=1"`
	Limit *int   `json:"limit" validate:"omitnil,min=1,max=100"`
	Sort  string `json:"sort"`
	Order string `json:"order" validate:"omitempty,oneof=asc desc"`
}

// Pagination describes a page of a listing.
type Pagination struct {
	TotalTodoCount int64 `json:"totalTodoCount"`
	TotalPages     int64 `json:"totalPages"`
	CurrentPage    int   `json:"currentPage"`
	Limit          int   `json:"limit"`
	HasNextPage    bool  `json:"hasNextPage"`
	HasPrevPage    bool  `json:"hasPrevPage"`
}
