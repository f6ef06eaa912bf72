package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/mail"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storefront/internal/auth/domain"
	"github.com/smallbiznis/storefront/internal/auth/password"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/principal"
	"github.com/smallbiznis/storefront/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	sessionTokenBytes = 32
	minPasswordLength = 8
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Cfg         config.Config
	Clock       clock.Clock
	GenID       *snowflake.Node
	Repo        domain.Repository
	SessionRepo domain.SessionRepository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	cfg         config.Config
	clock       clock.Clock
	genID       *snowflake.Node
	repo        domain.Repository
	sessionRepo domain.SessionRepository
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("auth.service"),
		cfg:         p.Cfg,
		clock:       p.Clock,
		genID:       p.GenID,
		repo:        p.Repo,
		sessionRepo: p.SessionRepo,
	}
}

func (s *Service) Signup(ctx context.Context, req domain.SignupRequest) (*domain.UserResponse, error) {
	return s.createUser(ctx, req, domain.RoleCustomer)
}

// EnsureAdmin creates the bootstrap admin unless the email is already taken.
func (s *Service) EnsureAdmin(ctx context.Context, req domain.SignupRequest) (*domain.UserResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidEmail
	}
	existing, err := s.repo.FindByEmail(ctx, s.db, email)
	if err == nil {
		if existing.Role != domain.RoleAdmin {
			if err := s.repo.UpdateFields(ctx, s.db, existing.ID, map[string]any{
				"role":       domain.RoleAdmin,
				"updated_at": s.clock.Now(),
			}); err != nil {
				return nil, err
			}
		}
		return toResponse(existing), nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}
	return s.createUser(ctx, req, domain.RoleAdmin)
}

func (s *Service) createUser(ctx context.Context, req domain.SignupRequest, role string) (*domain.UserResponse, error) {
	firstname := strings.TrimSpace(req.Firstname)
	if firstname == "" {
		return nil, domain.ErrInvalidFirstname
	}
	surname := strings.TrimSpace(req.Surname)
	if surname == "" {
		return nil, domain.ErrInvalidSurname
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidEmail
	}
	if err := validatePassword(req.Password, req.ConfirmPassword); err != nil {
		return nil, err
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	user := &domain.User{
		ID:           s.genID.Generate(),
		Firstname:    firstname,
		Surname:      surname,
		Email:        email,
		PasswordHash: hashed,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.repo.FindByEmail(ctx, tx, email); err == nil {
			return domain.ErrEmailInUse
		} else if !errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		if err := s.repo.Create(ctx, tx, user); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrEmailInUse
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user created", zap.String("user_id", user.ID.String()), zap.String("role", role))
	return toResponse(user), nil
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if req.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !password.Verify(req.Password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	rawToken, err := newSessionToken()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	session := &domain.Session{
		ID:        s.genID.Generate(),
		UserID:    user.ID,
		TokenHash: hashToken(rawToken),
		UserAgent: strings.TrimSpace(req.UserAgent),
		IPAddress: strings.TrimSpace(req.IPAddress),
		ExpiresAt: now.Add(s.cfg.AuthTokenTTL),
		CreatedAt: now,
	}
	if err := s.sessionRepo.CreateSession(ctx, s.db, session); err != nil {
		return nil, err
	}

	return &domain.LoginResult{
		Token:     rawToken,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

func (s *Service) Logout(ctx context.Context, rawToken string) error {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return domain.ErrInvalidSession
	}

	session, err := s.sessionRepo.GetSessionByTokenHash(ctx, s.db, hashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.ErrInvalidSession
		}
		return err
	}
	return s.sessionRepo.RevokeSession(ctx, s.db, session.ID, s.clock.Now())
}

// Authenticate resolves a bearer token to its user.
func (s *Service) Authenticate(ctx context.Context, rawToken string) (*domain.User, error) {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return nil, domain.ErrInvalidSession
	}

	session, err := s.sessionRepo.GetSessionByTokenHash(ctx, s.db, hashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrInvalidSession
		}
		return nil, err
	}
	if session.RevokedAt != nil {
		return nil, domain.ErrSessionRevoked
	}
	if s.clock.Now().After(session.ExpiresAt) {
		return nil, domain.ErrSessionExpired
	}

	user, err := s.repo.FindByID(ctx, s.db, session.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidSession
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return toResponse(user), nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req domain.UpdateRequest) (*domain.UserResponse, error) {
	if err := requireSelf(ctx, id); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.Firstname != nil {
		v := strings.TrimSpace(*req.Firstname)
		if v == "" {
			return nil, domain.ErrInvalidFirstname
		}
		fields["firstname"] = v
	}
	if req.Surname != nil {
		v := strings.TrimSpace(*req.Surname)
		if v == "" {
			return nil, domain.ErrInvalidSurname
		}
		fields["surname"] = v
	}
	var email string
	if req.Email != nil {
		v, err := normalizeEmail(*req.Email)
		if err != nil {
			return nil, domain.ErrInvalidEmail
		}
		email = v
		fields["email"] = v
	}
	if req.Password != nil {
		confirm := ""
		if req.ConfirmPassword != nil {
			confirm = *req.ConfirmPassword
		}
		if err := validatePassword(*req.Password, confirm); err != nil {
			return nil, err
		}
		hashed, err := password.Hash(*req.Password)
		if err != nil {
			return nil, err
		}
		fields["password_hash"] = hashed
	}

	var user *domain.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if email != "" {
			other, err := s.repo.FindByEmail(ctx, tx, email)
			if err == nil && other.ID != id {
				return domain.ErrEmailInUse
			}
			if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
				return err
			}
		}
		if len(fields) > 0 {
			fields["updated_at"] = s.clock.Now()
			if err := s.repo.UpdateFields(ctx, tx, id, fields); err != nil {
				if db.IsDuplicateKeyErr(err) {
					return domain.ErrEmailInUse
				}
				return err
			}
		}
		if _, ok := fields["password_hash"]; ok {
			if err := s.sessionRepo.RevokeUserSessions(ctx, tx, id, s.clock.Now()); err != nil {
				return err
			}
		}
		found, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		user = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toResponse(user), nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	if err := requireSelf(ctx, id); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.sessionRepo.RevokeUserSessions(ctx, tx, id, s.clock.Now()); err != nil {
			return err
		}
		return s.repo.Delete(ctx, tx, id)
	})
}

func requireSelf(ctx context.Context, id snowflake.ID) error {
	caller, ok := principal.FromContext(ctx)
	if !ok || caller.UserID != id {
		return domain.ErrNotSelf
	}
	return nil
}

func validatePassword(pw, confirm string) error {
	if len(strings.TrimSpace(pw)) < minPasswordLength {
		return domain.ErrInvalidPassword
	}
	if pw != confirm {
		return domain.ErrPasswordMismatch
	}
	return nil
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(addr.Address)), nil
}

func newSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func toResponse(u *domain.User) *domain.UserResponse {
	return &domain.UserResponse{
		ID:        u.ID.String(),
		Firstname: u.Firstname,
		Surname:   u.Surname,
		Email:     u.Email,
	}
}
