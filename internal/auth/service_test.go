package auth

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgauth "github.com/sokohub/sokohub-backend/pkg/auth"
	"github.com/sokohub/sokohub-backend/pkg/config"
	"github.com/sokohub/sokohub-backend/pkg/db/dbtest"
	"github.com/sokohub/sokohub-backend/pkg/enums"
	pkgerrors "github.com/sokohub/sokohub-backend/pkg/errors"
	"github.com/sokohub/sokohub-backend/pkg/logger"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "sokohub-test",
	ExpirationMinutes: 15,
}

// Small argon parameters keep the hashing tests fast.
var testPasswordConfig = config.PasswordConfig{
	ArgonMemoryKB:    8192,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	client := dbtest.Open(t)
	logg := logger.New(logger.Options{ServiceName: "auth-test", Output: io.Discard})
	return NewService(NewRepository(client), logg, testJWTConfig, testPasswordConfig)
}

func TestRegisterVendorAndLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	registered, err := svc.RegisterVendor(ctx, RegisterVendorInput{
		Name:     "City Greens",
		Email:    "Buyer@Example.com",
		Phone:    "254700000001",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.ActorRoleVendor, registered.Actor.Role)
	assert.Equal(t, "buyer@example.com", registered.Actor.Email)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig, registered.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.Actor.ID, claims.ActorID)
	assert.Equal(t, enums.ActorRoleVendor, claims.Role)

	loggedIn, err := svc.Login(ctx, enums.ActorRoleVendor, LoginInput{
		Email:    "buyer@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	assert.Equal(t, registered.Actor.ID, loggedIn.Actor.ID)
}

func TestRegisterFarmer(t *testing.T) {
	svc := newTestService(t)

	result, err := svc.RegisterFarmer(context.Background(), RegisterFarmerInput{
		Name:            "Molo Farm",
		Email:           "grower@example.com",
		Phone:           "254700000002",
		Password:        "grow all the things",
		KephisCertified: true,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.ActorRoleFarmer, result.Actor.Role)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig, result.Token)
	require.NoError(t, err)
	assert.Equal(t, enums.ActorRoleFarmer, claims.Role)
}

func TestRegisterRejectsDuplicateEmailAcrossRoles(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.RegisterVendor(ctx, RegisterVendorInput{
		Name:     "City Greens",
		Email:    "shared@example.com",
		Phone:    "254700000001",
		Password: "correct horse battery",
	})
	require.NoError(t, err)

	_, err = svc.RegisterVendor(ctx, RegisterVendorInput{
		Name:     "Other Vendor",
		Email:    "shared@example.com",
		Phone:    "254700000003",
		Password: "another password",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())

	_, err = svc.RegisterFarmer(ctx, RegisterFarmerInput{
		Name:     "Shared Farm",
		Email:    "SHARED@example.com",
		Phone:    "254700000004",
		Password: "farm password",
	})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.RegisterVendor(ctx, RegisterVendorInput{
		Name:     "City Greens",
		Email:    "buyer@example.com",
		Phone:    "254700000001",
		Password: "correct horse battery",
	})
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, enums.ActorRoleVendor, LoginInput{
		Email:    "buyer@example.com",
		Password: "wrong",
	})
	_, missingAccount := svc.Login(ctx, enums.ActorRoleVendor, LoginInput{
		Email:    "nobody@example.com",
		Password: "whatever",
	})

	for _, err := range []error{wrongPassword, missingAccount} {
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
		assert.Equal(t, "invalid credentials", typed.Message())
	}
}
