package models

// LoginRequest is the admin login payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginData is returned on successful login
type LoginData struct {
	Token    string `json:"token"`
	UserID   string `json:"userId"`
	FullName string `json:"fullName"`
	UserType string `json:"userType"`
}
