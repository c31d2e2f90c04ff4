package payload

type SignupRequest struct {
	Email        string `json:"email"        validate:"required,email"`
	FirstName    string `json:"firstName"    validate:"required"`
	LastName     string `json:"lastName"     validate:"required"`
	Password     string `json:"password"     validate:"required,min=8"`
	MobileNumber string `json:"mobileNumber" validate:"required"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginUser is the minimal user projection returned on login.
type LoginUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type LoginResponse struct {
	Token string    `json:"token"`
	User  LoginUser `json:"user"`
}
