package auth

import "identity/internal/domain"

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=320"`
	Name     string `json:"name" validate:"required,min=1,max=255"`
	Password string `json:"password" validate:"required,min=8,maxbytes=72"`
}

// LoginRequest covers both login kinds. PASSWORD (the default) needs email
// and password; GOOGLE and FACEBOOK need the provider token.
type LoginRequest struct {
	Method   domain.LoginMethod `json:"method" validate:"omitempty,oneof=PASSWORD GOOGLE FACEBOOK"`
	Email    string             `json:"email" validate:"omitempty,email,max=320"`
	Password string             `json:"password" validate:"omitempty,maxbytes=72"`
	Token    string             `json:"token" validate:"omitempty,max=8192"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type ConfirmMailRequest struct {
	Token string `json:"token" validate:"required"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email,max=320"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,maxbytes=72"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,maxbytes=72"`
}

type UserPublic struct {
	ID          string             `json:"id"`
	Email       string             `json:"email"`
	Name        string             `json:"name"`
	Role        domain.Role        `json:"role"`
	LoginMethod domain.LoginMethod `json:"login_method"`
	Enabled     bool               `json:"enabled"`
}

func NewUserPublic(u *domain.User) UserPublic {
	return UserPublic{
		ID:          u.ID.String(),
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		LoginMethod: u.LoginMethod,
		Enabled:     u.Enabled,
	}
}

type TokenResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	User         *UserPublic `json:"user,omitempty"`
}
