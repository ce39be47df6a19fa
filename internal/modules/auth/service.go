package auth

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"identity/internal/domain"
	"identity/internal/modules/mail"
	"identity/internal/repository"
)

type Options struct {
	// MailConfirmationRequired makes new password accounts start disabled
	// until the emailed token is confirmed.
	MailConfirmationRequired bool
	// RotateRefreshTokens issues a new refresh token on every refresh.
	RotateRefreshTokens bool
}

// Service contains all business logic for authentication
type Service struct {
	users         UserRepository
	codec         TokenCodec
	hasher        PasswordHasher
	refresh       *RefreshStore
	confirmations *SecretTokens
	forgotten     *SecretTokens
	social        SocialVerifier
	mailer        mail.Sender
	opts          Options
	now           func() time.Time
}

// AuthResult is returned by every flow that signs the user in.
type AuthResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

// PurgeReport counts rows removed by PurgeExpired.
type PurgeReport struct {
	RefreshTokens          int64
	MailConfirmationTokens int64
	ForgotPasswordTokens   int64
}

func NewService(
	users UserRepository,
	codec TokenCodec,
	hasher PasswordHasher,
	refresh *RefreshStore,
	confirmations *SecretTokens,
	forgotten *SecretTokens,
	socialVerifier SocialVerifier,
	mailer mail.Sender,
	opts Options,
) *Service {
	return &Service{
		users:         users,
		codec:         codec,
		hasher:        hasher,
		refresh:       refresh,
		confirmations: confirmations,
		forgotten:     forgotten,
		social:        socialVerifier,
		mailer:        mailer,
		opts:          opts,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Signup(ctx context.Context, req SignupRequest) (*domain.User, error) {
	if err := s.validateEmailUnique(ctx, req.Email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := domain.NewPasswordUser(req.Email, req.Name, hash, !s.opts.MailConfirmationRequired, s.now())

	var token uuid.UUID
	err = s.users.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.users.Create(ctx, tx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicateKey) {
				return ErrEmailAlreadyExists
			}
			return err
		}
		if !s.opts.MailConfirmationRequired {
			return nil
		}
		token, err = s.confirmations.Create(ctx, tx, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.opts.MailConfirmationRequired {
		s.mailer.SendConfirmationMail(ctx, user.Email, token)
	}
	log.Printf("audit event=signup user_id=%s enabled=%t", user.ID, user.Enabled)

	return user, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	method := req.Method
	if method == "" {
		method = domain.LoginMethodPassword
	}

	var (
		user *domain.User
		err  error
	)
	if method.IsSocial() {
		user, err = s.socialUser(ctx, method, req.Token)
	} else {
		user, err = s.passwordUser(ctx, req.Email, req.Password)
	}
	if err != nil {
		log.Printf("audit event=login_failure method=%s email=%s error=%q", method, domain.NormalizeEmail(req.Email), err.Error())
		return nil, err
	}

	if !user.Enabled {
		log.Printf("audit event=login_failure method=%s user_id=%s error=%q", method, user.ID, "account disabled")
		return nil, ErrAccountDisabled
	}

	result, err := s.signIn(ctx, nil, user)
	if err != nil {
		return nil, err
	}

	log.Printf("audit event=login_success method=%s user_id=%s", method, user.ID)
	return result, nil
}

func (s *Service) passwordUser(ctx context.Context, email, password string) (*domain.User, error) {
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	user, err := s.users.GetByEmail(ctx, nil, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if user.LoginMethod != domain.LoginMethodPassword {
		return nil, ErrInvalidLoginMethod
	}
	if !user.HasPassword() || !s.hasher.Verify(password, *user.PasswordHash) {
		return nil, ErrBadCredentials
	}
	return user, nil
}

// socialUser resolves the provider identity and registers unknown emails
// as enabled USER accounts bound to that provider.
func (s *Service) socialUser(ctx context.Context, method domain.LoginMethod, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrMissingCredentials
	}

	identity, err := s.social.Verify(ctx, method, token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, nil, identity.Email)
	if err == nil {
		if user.LoginMethod != method {
			return nil, ErrInvalidLoginMethod
		}
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = domain.NewSocialUser(identity.Email, identity.Name, method, s.now())
	if err := s.users.Create(ctx, nil, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}
	log.Printf("audit event=signup user_id=%s method=%s enabled=true", user.ID, method)
	return user, nil
}

func (s *Service) signIn(ctx context.Context, tx *gorm.DB, user *domain.User) (*AuthResult, error) {
	access, err := s.codec.GenerateAccessToken(user.Principal())
	if err != nil {
		return nil, err
	}
	refresh, err := s.refresh.Issue(ctx, tx, user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a refresh token for a new access token minted from the
// user's current state.
func (s *Service) Refresh(ctx context.Context, refreshRaw string) (*AuthResult, error) {
	userID, err := s.refresh.Resolve(ctx, refreshRaw)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := s.refresh.Revoke(ctx, nil, userID); err != nil {
				log.Printf("refresh: revoke orphaned token failed user_id=%s error=%v", userID, err)
			}
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	if !user.Enabled {
		if err := s.refresh.Revoke(ctx, nil, user.ID); err != nil {
			return nil, err
		}
		return nil, ErrAccountDisabled
	}

	if s.opts.RotateRefreshTokens {
		result, err := s.signIn(ctx, nil, user)
		if err != nil {
			return nil, err
		}
		log.Printf("audit event=refresh user_id=%s rotated=true", user.ID)
		return result, nil
	}

	access, err := s.codec.GenerateAccessToken(user.Principal())
	if err != nil {
		return nil, err
	}
	log.Printf("audit event=refresh user_id=%s rotated=false", user.ID)
	return &AuthResult{User: user, AccessToken: access, RefreshToken: refreshRaw}, nil
}

func (s *Service) Logout(ctx context.Context, principal *domain.Principal) error {
	if err := s.refresh.Revoke(ctx, nil, principal.ID); err != nil {
		return err
	}
	log.Printf("audit event=logout user_id=%s", principal.ID)
	return nil
}

// ConfirmMail enables the account owning the token and consumes the token
// in one transaction.
func (s *Service) ConfirmMail(ctx context.Context, rawToken string) error {
	token, err := ParseSecretToken(rawToken)
	if err != nil {
		return err
	}

	expired := false
	var userID uuid.UUID
	err = s.users.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := s.confirmations.Resolve(ctx, tx, token)
		if err != nil {
			return err
		}
		if s.confirmations.IsExpired(record) {
			expired = true
			return s.confirmations.Consume(ctx, tx, record)
		}

		userID = record.UserID
		if err := s.users.SetEnabled(ctx, tx, record.UserID, true); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		return s.confirmations.Consume(ctx, tx, record)
	})
	if err != nil {
		return err
	}
	if expired {
		return ErrExpiredToken
	}

	log.Printf("audit event=mail_confirmed user_id=%s", userID)
	return nil
}

// ResendConfirmation replaces the confirmation token of a pending password
// account and mails it again.
func (s *Service) ResendConfirmation(ctx context.Context, email string) error {
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.LoginMethod != domain.LoginMethodPassword {
		return ErrInvalidLoginMethod
	}
	if user.Enabled {
		return ErrAccountEnabled
	}

	token, err := s.confirmations.Create(ctx, nil, user.ID)
	if err != nil {
		return err
	}
	s.mailer.SendConfirmationMail(ctx, user.Email, token)
	return nil
}

func (s *Service) ChangePassword(ctx context.Context, principal *domain.Principal, req ChangePasswordRequest) error {
	user, err := s.users.GetByID(ctx, nil, principal.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.LoginMethod != domain.LoginMethodPassword {
		return ErrInvalidLoginMethod
	}
	if !user.HasPassword() || !s.hasher.Verify(req.OldPassword, *user.PasswordHash) {
		return ErrBadCredentials
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	err = s.users.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.users.UpdatePasswordHash(ctx, tx, user.ID, hash); err != nil {
			return err
		}
		return s.refresh.Revoke(ctx, tx, user.ID)
	})
	if err != nil {
		return err
	}

	log.Printf("audit event=password_changed user_id=%s", user.ID)
	return nil
}

func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.LoginMethod != domain.LoginMethodPassword {
		return ErrInvalidLoginMethod
	}

	token, err := s.forgotten.Create(ctx, nil, user.ID)
	if err != nil {
		return err
	}
	s.mailer.SendResetPasswordMail(ctx, user.Email, token)

	log.Printf("audit event=password_reset_requested user_id=%s", user.ID)
	return nil
}

// ResetPassword sets a new password from a forgot password token. The
// token is consumed and the user's refresh token revoked in the same
// transaction as the password update.
func (s *Service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	token, err := ParseSecretToken(req.Token)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}

	expired := false
	var userID uuid.UUID
	err = s.users.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := s.forgotten.Resolve(ctx, tx, token)
		if err != nil {
			return err
		}
		if s.forgotten.IsExpired(record) {
			expired = true
			return s.forgotten.Consume(ctx, tx, record)
		}

		userID = record.UserID
		if err := s.users.UpdatePasswordHash(ctx, tx, record.UserID, hash); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if err := s.refresh.Revoke(ctx, tx, record.UserID); err != nil {
			return err
		}
		return s.forgotten.Consume(ctx, tx, record)
	})
	if err != nil {
		return err
	}
	if expired {
		return ErrExpiredToken
	}

	log.Printf("audit event=password_reset user_id=%s", userID)
	return nil
}

// PurgeExpired deletes every token past its validity window.
func (s *Service) PurgeExpired(ctx context.Context) (*PurgeReport, error) {
	var (
		report PurgeReport
		err    error
	)
	if report.RefreshTokens, err = s.refresh.PurgeExpired(ctx); err != nil {
		return nil, err
	}
	if report.MailConfirmationTokens, err = s.confirmations.PurgeExpired(ctx); err != nil {
		return nil, err
	}
	if report.ForgotPasswordTokens, err = s.forgotten.PurgeExpired(ctx); err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *Service) userByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, nil, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) validateEmailUnique(ctx context.Context, email string) error {
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		return ErrEmailAlreadyExists
	}
	return nil
}
