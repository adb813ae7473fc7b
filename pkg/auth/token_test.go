package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sokohub/sokohub-backend/pkg/config"
	"github.com/sokohub/sokohub-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "sokohub-test",
		ExpirationMinutes: 15,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	actorID := uuid.New()

	signed, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{
		ActorID: actorID,
		Role:    enums.ActorRoleVendor,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, signed)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.ActorID != actorID {
		t.Fatalf("unexpected actor id %s", claims.ActorID)
	}
	if claims.Role != enums.ActorRoleVendor {
		t.Fatalf("unexpected role %s", claims.Role)
	}
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	cfg := testJWTConfig()

	signed, err := MintAccessToken(cfg, time.Now().Add(-time.Hour), AccessTokenPayload{
		ActorID: uuid.New(),
		Role:    enums.ActorRoleFarmer,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	if _, err := ParseAccessToken(cfg, signed); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestMintAccessTokenValidatesInputs(t *testing.T) {
	cfg := testJWTConfig()

	if _, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{Role: enums.ActorRole("admin")}); err == nil {
		t.Fatal("expected invalid role to be rejected")
	}
	if _, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{Role: enums.ActorRoleVendor}); err == nil {
		t.Fatal("expected nil actor id to be rejected")
	}
}
