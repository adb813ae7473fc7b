package auth

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/sokohub/sokohub-backend/pkg/auth"
	"github.com/sokohub/sokohub-backend/pkg/config"
	"github.com/sokohub/sokohub-backend/pkg/db"
	"github.com/sokohub/sokohub-backend/pkg/db/models"
	"github.com/sokohub/sokohub-backend/pkg/enums"
	pkgerrors "github.com/sokohub/sokohub-backend/pkg/errors"
	"github.com/sokohub/sokohub-backend/pkg/logger"
	"github.com/sokohub/sokohub-backend/pkg/security"
)

// Service handles account registration and credential login for both roles.
type Service struct {
	repo        *Repository
	logg        *logger.Logger
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	now         func() time.Time
}

func NewService(repo *Repository, logg *logger.Logger, jwtCfg config.JWTConfig, passwordCfg config.PasswordConfig) *Service {
	return &Service{
		repo:        repo,
		logg:        logg,
		jwtCfg:      jwtCfg,
		passwordCfg: passwordCfg,
		now:         time.Now,
	}
}

// RegisterVendor creates a vendor account and logs it straight in.
func (s *Service) RegisterVendor(ctx context.Context, input RegisterVendorInput) (*AuthResult, error) {
	email := normalizeEmail(input.Email)
	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	vendor, err := s.repo.CreateVendor(ctx, &models.Vendor{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		Phone:        strings.TrimSpace(input.Phone),
		PasswordHash: hash,
		Location:     input.Location,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, fmt.Errorf("creating vendor: %w", err)
	}

	ctx = s.logg.WithActorID(ctx, vendor.ID.String())
	s.logg.Info(ctx, "vendor registered")
	return s.mint(vendor.ID, enums.ActorRoleVendor, vendor.Name, vendor.Email, vendor.Phone)
}

// RegisterFarmer creates a farmer account and logs it straight in.
func (s *Service) RegisterFarmer(ctx context.Context, input RegisterFarmerInput) (*AuthResult, error) {
	email := normalizeEmail(input.Email)
	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	farmer, err := s.repo.CreateFarmer(ctx, &models.Farmer{
		Name:            strings.TrimSpace(input.Name),
		Email:           email,
		Phone:           strings.TrimSpace(input.Phone),
		PasswordHash:    hash,
		WhatsappLink:    input.WhatsappLink,
		Location:        input.Location,
		KephisCertified: input.KephisCertified,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, fmt.Errorf("creating farmer: %w", err)
	}

	ctx = s.logg.WithActorID(ctx, farmer.ID.String())
	s.logg.Info(ctx, "farmer registered")
	return s.mint(farmer.ID, enums.ActorRoleFarmer, farmer.Name, farmer.Email, farmer.Phone)
}

// Login verifies credentials for the requested role. A missing account and a
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, role enums.ActorRole, input LoginInput) (*AuthResult, error) {
	email := normalizeEmail(input.Email)

	var (
		id          uuid.UUID
		name, phone string
		hash        string
	)
	switch role {
	case enums.ActorRoleVendor:
		vendor, err := s.repo.FindVendorByEmail(ctx, email)
		if err != nil {
			return nil, loginFailure(err)
		}
		id, name, phone, hash = vendor.ID, vendor.Name, vendor.Phone, vendor.PasswordHash
	case enums.ActorRoleFarmer:
		farmer, err := s.repo.FindFarmerByEmail(ctx, email)
		if err != nil {
			return nil, loginFailure(err)
		}
		id, name, phone, hash = farmer.ID, farmer.Name, farmer.Phone, farmer.PasswordHash
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown actor role")
	}

	ok, err := security.VerifyPassword(input.Password, hash)
	if err != nil {
		return nil, fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	ctx = s.logg.WithActorID(ctx, id.String())
	s.logg.Info(ctx, "login succeeded")
	return s.mint(id, role, name, email, phone)
}

func (s *Service) ensureEmailFree(ctx context.Context, email string) error {
	if _, err := s.repo.FindVendorByEmail(ctx, email); err == nil {
		return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("checking vendor email: %w", err)
	}
	if _, err := s.repo.FindFarmerByEmail(ctx, email); err == nil {
		return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("checking farmer email: %w", err)
	}
	return nil
}

func (s *Service) mint(id uuid.UUID, role enums.ActorRole, name, email, phone string) (*AuthResult, error) {
	token, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), pkgauth.AccessTokenPayload{ActorID: id, Role: role})
	if err != nil {
		return nil, fmt.Errorf("minting token: %w", err)
	}
	return &AuthResult{
		Token: token,
		Actor: ActorProfile{ID: id, Role: role, Name: name, Email: email, Phone: phone},
	}, nil
}

func loginFailure(err error) error {
	if stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	return fmt.Errorf("loading account: %w", err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
