package models

import "time"

// Role names
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User is a customer account identified by phone number
type User struct {
	ID              string    `json:"id"`
	Phone           string    `json:"phone"`
	Email           string    `json:"email,omitempty"`
	FullName        string    `json:"full_name,omitempty"`
	PasswordHash    string    `json:"-"`
	IsActive        bool      `json:"is_active"`
	IsPhoneVerified bool      `json:"is_phone_verified"`
	Roles           []string  `json:"roles"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// HasRole reports whether the user holds role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type RegisterRequest struct {
	Phone    string `json:"phone" binding:"required,min=8,max=20"`
	Email    string `json:"email" binding:"omitempty,email"`
	FullName string `json:"full_name" binding:"max=120"`
	Password string `json:"password" binding:"omitempty,min=8,max=72"`
}

type LoginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type SendOTPRequest struct {
	Phone string `json:"phone" binding:"required,min=8,max=20"`
}

type VerifyOTPRequest struct {
	Phone string `json:"phone" binding:"required,min=8,max=20"`
	Code  string `json:"code" binding:"required,numeric"`
}
