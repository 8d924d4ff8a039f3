package http

import (
	"time"

	"github.com/plp-eems/eems-api/internal/domain"
)

// ErrorResponse is the failure envelope shared by every endpoint.
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"Invalid or expired verification code"`
}

// MessageResponse is the success envelope for steps that return no data.
type MessageResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"Code verified successfully"`
}

// SendCodeResponse echoes the address the code was sent to.
type SendCodeResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"Verification code sent to your email"`
	Email   string `json:"email" example:"admin@example.com"`
}

type AccountResponse struct {
	ID        string    `json:"id" example:"9fd13fd2-63c5-4f29-a210-4a1a8e285f74"`
	Email     string    `json:"email" example:"admin@example.com"`
	FullName  *string   `json:"fullname,omitempty" example:"Jane Admin"`
	CreatedAt time.Time `json:"created_at" example:"2024-01-01T12:00:00Z"`
	UpdatedAt time.Time `json:"updated_at" example:"2024-01-02T09:30:00Z"`
}

type LoginResponse struct {
	Success   bool            `json:"success" example:"true"`
	Message   string          `json:"message" example:"Login successful"`
	User      AccountResponse `json:"user"`
	Token     string          `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ExpiresAt string          `json:"expiresAt" example:"2024-01-02T09:30:00Z"`
}

type ServerTimeResponse struct {
	Success    bool   `json:"success" example:"true"`
	ServerTime string `json:"serverTime" example:"2024-01-02T09:30:00Z"`
}

type LoginRequest struct {
	Email    string `json:"email" example:"admin@example.com"`
	Password string `json:"password" example:"StrongPass!23"`
}

type SendCodeRequest struct {
	Email string `json:"email" example:"admin@example.com"`
}

type VerifyCodeRequest struct {
	Email string `json:"email" example:"admin@example.com"`
	Code  string `json:"code" example:"482913"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" example:"admin@example.com"`
	Code        string `json:"code" example:"482913"`
	NewPassword string `json:"newPassword" example:"NewPass!45"`
}

func buildAccountResponse(account *domain.Account) AccountResponse {
	return AccountResponse{
		ID:        account.ID.String(),
		Email:     account.Email,
		FullName:  account.FullName,
		CreatedAt: account.CreatedAt,
		UpdatedAt: account.UpdatedAt,
	}
}
