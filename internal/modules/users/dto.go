package users

import (
	"time"

	"identity/internal/domain"
)

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type SetEnabledRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type ListQuery struct {
	Limit  int `form:"limit" json:"limit" validate:"omitempty,min=1,max=100"`
	Offset int `form:"offset" json:"offset" validate:"omitempty,min=0"`
}

type UserResponse struct {
	ID          string             `json:"id"`
	Email       string             `json:"email"`
	Name        string             `json:"name"`
	Role        domain.Role        `json:"role"`
	LoginMethod domain.LoginMethod `json:"login_method"`
	Enabled     bool               `json:"enabled"`
	Privileges  []domain.Privilege `json:"privileges"`
	CreatedAt   time.Time          `json:"created_at"`
}

func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID.String(),
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		LoginMethod: u.LoginMethod,
		Enabled:     u.Enabled,
		Privileges:  domain.Privileges(u.Role),
		CreatedAt:   u.CreatedAt,
	}
}

type ListResponse struct {
	Users  []UserResponse `json:"users"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}
