package users

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"identity/internal/domain"
)

type UserRepository interface {
	DB() *gorm.DB
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, int64, error)
	SetEnabled(ctx context.Context, tx *gorm.DB, id uuid.UUID, enabled bool) error
	UpdateRole(ctx context.Context, tx *gorm.DB, id uuid.UUID, role domain.Role) error
}

// SessionRevoker drops a user's refresh token.
type SessionRevoker interface {
	DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

const defaultListLimit = 20

type Service struct {
	users    UserRepository
	sessions SessionRevoker
}

func NewService(users UserRepository, sessions SessionRevoker) *Service {
	return &Service{users: users, sessions: sessions}
}

func (s *Service) GetMe(ctx context.Context, principal *domain.Principal) (*domain.User, error) {
	return s.get(ctx, nil, principal.ID)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]domain.User, int64, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.users.List(ctx, limit, offset)
}

// ChangeRole assigns role to the target user. The new authorities reach the
// user's access tokens on the next login or refresh.
func (s *Service) ChangeRole(ctx context.Context, actor *domain.Principal, id uuid.UUID, rawRole string) (*domain.User, error) {
	role, ok := domain.ParseRole(rawRole)
	if !ok {
		return nil, ErrInvalidRole
	}
	if actor.ID == id {
		return nil, ErrSelfModification
	}

	var user *domain.User
	err := s.users.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.users.UpdateRole(ctx, tx, id, role); err != nil {
			return notFound(err)
		}
		var err error
		user, err = s.get(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("audit event=role_changed actor_id=%s user_id=%s role=%s", actor.ID, id, role)
	return user, nil
}

// SetEnabled toggles an account. Disabling also revokes its refresh token so
// the user is signed out once the current access token lapses.
func (s *Service) SetEnabled(ctx context.Context, actor *domain.Principal, id uuid.UUID, enabled bool) (*domain.User, error) {
	required := domain.PrivilegeEnableUser
	if !enabled {
		required = domain.PrivilegeDisableUser
	}
	if !actor.HasPrivilege(required) {
		return nil, ErrForbidden
	}
	if actor.ID == id {
		return nil, ErrSelfModification
	}

	var user *domain.User
	err := s.users.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.users.SetEnabled(ctx, tx, id, enabled); err != nil {
			return notFound(err)
		}
		if !enabled {
			if err := s.sessions.DeleteByUser(ctx, tx, id); err != nil {
				return err
			}
		}
		var err error
		user, err = s.get(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("audit event=user_enabled_changed actor_id=%s user_id=%s enabled=%t", actor.ID, id, enabled)
	return user, nil
}

func (s *Service) get(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, tx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}
