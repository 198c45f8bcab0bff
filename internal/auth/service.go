package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmfresh/farmfresh-backend/internal/users"
	pkgAuth "github.com/farmfresh/farmfresh-backend/pkg/auth"
	"github.com/farmfresh/farmfresh-backend/pkg/auth/session"
	"github.com/farmfresh/farmfresh-backend/pkg/config"
	"github.com/farmfresh/farmfresh-backend/pkg/db"
	"github.com/farmfresh/farmfresh-backend/pkg/db/models"
	"github.com/farmfresh/farmfresh-backend/pkg/enums"
	pkgerrors "github.com/farmfresh/farmfresh-backend/pkg/errors"
	"github.com/farmfresh/farmfresh-backend/pkg/logger"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*AuthResponse, error)
	Logout(ctx context.Context, accessID string) error
	Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
}

type sessionManager interface {
	Open(ctx context.Context, accessID string, userID uuid.UUID) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (session.Rotation, error)
	Revoke(ctx context.Context, accessID string) error
}

type passwordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Users          *users.Repository
	Tx             txRunner
	SessionManager sessionManager
	Hasher         passwordHasher
	JWTConfig      config.JWTConfig
	Logger         *logger.Logger
}

type service struct {
	users   *users.Repository
	tx      txRunner
	session sessionManager
	hasher  passwordHasher
	jwtCfg  config.JWTConfig
	logg    *logger.Logger
	now     func() time.Time
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Hasher == nil {
		return nil, fmt.Errorf("password hasher is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		users:   params.Users,
		tx:      params.Tx,
		session: params.SessionManager,
		hasher:  params.Hasher,
		jwtCfg:  params.JWTConfig,
		logg:    logg,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Register creates the account, and for farmers the farmer profile, in one
// transaction and signs the new user in.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if len(req.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	dto := users.CreateUserDTO{
		Email: email,
		Name:  req.Name,
		Phone: req.Phone,
		Role:  req.Role,
	}
	switch req.Role {
	case enums.RoleCustomer:
	case enums.RoleFarmer:
		if strings.TrimSpace(req.FarmName) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "farmName is required for farmers")
		}
		dto.Farm = &users.CreateFarmDTO{FarmName: req.FarmName, Region: req.Region}
	default:
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "cannot register with role %q", req.Role)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	dto.PasswordHash = hash

	var user *models.User
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)
		if _, err := repo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}
		created, err := repo.Create(ctx, dto)
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		user = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithUserID(ctx, user.ID.String())
	s.logg.Info(s.logg.WithField(logCtx, "role", string(user.Role)), "user registered")
	return s.issue(ctx, user, s.now())
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &now
	return s.issue(ctx, user, now)
}

// Refresh rotates the refresh session bound to the access token's jti and mints
// a new pair. Role and farm are re-read so changes apply on the next refresh.
func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*AuthResponse, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, req.AccessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}
	rotation, err := s.session.Rotate(ctx, claims.ID, req.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}
	newAccessID := rotation.AccessID
	if rotation.UserID != claims.UserID {
		s.revokeRotated(ctx, newAccessID)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
	}

	user, err := s.users.FindByID(ctx, rotation.UserID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound), err == nil && !user.IsActive:
		s.revokeRotated(ctx, newAccessID)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	case err != nil:
		s.revokeRotated(ctx, newAccessID)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	accessToken, err := s.mint(user, newAccessID, s.now())
	if err != nil {
		return nil, err
	}
	return &AuthResponse{AccessToken: accessToken, RefreshToken: rotation.RefreshToken, User: users.FromModel(user)}, nil
}

// revokeRotated drops a session minted for a refresh that did not complete.
func (s *service) revokeRotated(ctx context.Context, accessID string) {
	if err := s.session.Revoke(ctx, accessID); err != nil {
		s.logg.Error(ctx, "revoke rotated session", err)
	}
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session")
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return users.FromModel(user), nil
}

func (s *service) issue(ctx context.Context, user *models.User, now time.Time) (*AuthResponse, error) {
	accessID := session.NewAccessID()
	accessToken, err := s.mint(user, accessID, now)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.session.Open(ctx, accessID, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}
	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         users.FromModel(user),
	}, nil
}

func (s *service) mint(user *models.User, accessID string, now time.Time) (string, error) {
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID:          user.ID,
		Role:            user.Role,
		FarmerProfileID: user.FarmerProfileID(),
		JTI:             accessID,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return token, nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
