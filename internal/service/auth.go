package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/query-system/internal/idgen"
	"github.com/iliyamo/query-system/internal/logging"
	"github.com/iliyamo/query-system/internal/model"
	"github.com/iliyamo/query-system/internal/otp"
	"github.com/iliyamo/query-system/internal/repository"
	"github.com/iliyamo/query-system/internal/utils"
)

// OTPNotifier delivers a freshly issued code.  Delivery failures are the
// implementation's concern.
type OTPNotifier interface {
	SendOTP(ctx context.Context, to, code string)
}

// AuthConfig parameterises an AuthService.
type AuthConfig struct {
	Role         model.Role
	AdminEmail   string // only consulted for RoleAdmin
	JWTSecret    string
	AccessTTLMin int
}

// Session is the result of a verified login.
type Session struct {
	AccountID   string
	Role        model.Role
	AccessToken string
	ExpiresAt   time.Time
}

// AuthService runs the OTP signup and login flows against one account
// directory.  Users and mentors register themselves; the single admin
// account is created on its first login.
type AuthService struct {
	cfg      AuthConfig
	accounts repository.AccountStore
	ids      idgen.Generator
	otp      *otp.Issuer
	notifier OTPNotifier
	log      logging.Logger
}

func NewAuthService(cfg AuthConfig, accounts repository.AccountStore, ids idgen.Generator,
	issuer *otp.Issuer, notifier OTPNotifier, log logging.Logger) *AuthService {
	if log == nil {
		log = logging.Discard()
	}
	cfg.AdminEmail = repository.NormalizeEmail(cfg.AdminEmail)
	return &AuthService{
		cfg:      cfg,
		accounts: accounts,
		ids:      ids,
		otp:      issuer,
		notifier: notifier,
		log:      log.With("role", string(cfg.Role)),
	}
}

// Role reports which directory this service authenticates against.
func (s *AuthService) Role() model.Role { return s.cfg.Role }

// Signup registers an unverified account and emails it a code.
func (s *AuthService) Signup(ctx context.Context, email string, profile model.Profile) (string, error) {
	if !s.cfg.Role.SelfRegistered() {
		return "", ErrUnauthorized
	}
	email = repository.NormalizeEmail(email)

	_, err := s.accounts.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return "", ErrDuplicateAccount
	case !errors.Is(err, repository.ErrNotFound):
		return "", fmt.Errorf("lookup account: %w", err)
	}

	code, expiry, err := s.otp.Issue()
	if err != nil {
		return "", err
	}
	acc := &model.Account{
		ID:      s.ids.NewID(),
		Role:    s.cfg.Role,
		Email:   email,
		Active:  false,
		Profile: profile,
	}
	acc.SetOTP(code, expiry)
	if err := s.accounts.Create(ctx, acc); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return "", ErrDuplicateAccount
		}
		return "", fmt.Errorf("create account: %w", err)
	}

	s.notifier.SendOTP(ctx, email, code)
	s.log.Info(ctx, "signup otp issued", "account_id", acc.ID)
	return acc.ID, nil
}

// VerifySignupOTP activates the account when code matches the outstanding,
// unexpired code.
func (s *AuthService) VerifySignupOTP(ctx context.Context, email, code string) error {
	acc, err := s.find(ctx, email)
	if err != nil {
		return err
	}
	if !s.otp.Validate(code, acc.OTPCode, acc.OTPExpiry) {
		return ErrInvalidOTP
	}
	acc.Active = true
	acc.ClearOTP()
	if err := s.accounts.Save(ctx, acc); err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	s.log.Info(ctx, "signup verified", "account_id", acc.ID)
	return nil
}

// Login issues a fresh code, replacing any outstanding one, and emails it.
func (s *AuthService) Login(ctx context.Context, email string) error {
	email = repository.NormalizeEmail(email)

	var (
		acc *model.Account
		err error
	)
	if s.cfg.Role == model.RoleAdmin {
		acc, err = s.adminAccount(ctx, email)
	} else {
		acc, err = s.find(ctx, email)
		if err == nil && !acc.Active {
			err = ErrNotActive
		}
	}
	if err != nil {
		return err
	}

	code, expiry, err := s.otp.Issue()
	if err != nil {
		return err
	}
	acc.SetOTP(code, expiry)
	if s.cfg.Role == model.RoleAdmin {
		// the admin session is only active between verification and the
		// next login request
		acc.Active = false
	}
	if err := s.save(ctx, acc); err != nil {
		return err
	}

	s.notifier.SendOTP(ctx, email, code)
	s.log.Info(ctx, "login otp issued", "account_id", acc.ID)
	return nil
}

// VerifyLoginOTP consumes the outstanding code and opens a session.
func (s *AuthService) VerifyLoginOTP(ctx context.Context, email, code string) (*Session, error) {
	acc, err := s.find(ctx, email)
	if err != nil {
		return nil, err
	}
	if !s.otp.Validate(code, acc.OTPCode, acc.OTPExpiry) {
		return nil, ErrInvalidOTP
	}
	acc.ClearOTP()
	if s.cfg.Role == model.RoleAdmin {
		acc.Active = true
	}
	if err := s.accounts.Save(ctx, acc); err != nil {
		return nil, fmt.Errorf("save account: %w", err)
	}

	tok, err := utils.NewAccessToken(s.cfg.JWTSecret, acc.ID, string(s.cfg.Role), s.cfg.AccessTTLMin)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	s.log.Info(ctx, "login verified", "account_id", acc.ID)
	return &Session{
		AccountID:   acc.ID,
		Role:        s.cfg.Role,
		AccessToken: tok.Token,
		ExpiresAt:   tok.Exp,
	}, nil
}

// Account returns the stored account with the given id.
func (s *AuthService) Account(ctx context.Context, id string) (*model.Account, error) {
	acc, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	return acc, nil
}

func (s *AuthService) find(ctx context.Context, email string) (*model.Account, error) {
	acc, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	return acc, nil
}

// adminAccount loads the admin record, creating it on first use.  Only the
// configured address is accepted.
func (s *AuthService) adminAccount(ctx context.Context, email string) (*model.Account, error) {
	if s.cfg.AdminEmail == "" || email != s.cfg.AdminEmail {
		return nil, ErrUnauthorized
	}
	acc, err := s.accounts.FindByEmail(ctx, email)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	s.log.Info(ctx, "creating admin account")
	return &model.Account{ID: s.ids.NewID(), Role: model.RoleAdmin, Email: email}, nil
}

// save writes acc.  A concurrent first login may have created the admin row
// under another id; the existing row then takes the new code.
func (s *AuthService) save(ctx context.Context, acc *model.Account) error {
	err := s.accounts.Save(ctx, acc)
	if errors.Is(err, repository.ErrEmailExists) {
		existing, ferr := s.accounts.FindByEmail(ctx, acc.Email)
		if ferr != nil {
			return fmt.Errorf("reload account: %w", ferr)
		}
		existing.OTPCode, existing.OTPExpiry, existing.Active = acc.OTPCode, acc.OTPExpiry, acc.Active
		*acc = *existing
		err = s.accounts.Save(ctx, acc)
	}
	if err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}
