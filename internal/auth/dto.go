package auth

import (
	"github.com/google/uuid"

	"github.com/sokohub/sokohub-backend/pkg/enums"
)

// RegisterVendorInput holds a new vendor account application.
type RegisterVendorInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Location *string
}

// RegisterFarmerInput holds a new farmer account application.
type RegisterFarmerInput struct {
	Name            string
	Email           string
	Phone           string
	Password        string
	WhatsappLink    *string
	Location        *string
	KephisCertified bool
}

// LoginInput carries a credential pair for either account type.
type LoginInput struct {
	Email    string
	Password string
}

// ActorProfile is the public view of an authenticated account.
type ActorProfile struct {
	ID    uuid.UUID       `json:"id"`
	Role  enums.ActorRole `json:"role"`
	Name  string          `json:"name"`
	Email string          `json:"email"`
	Phone string          `json:"phone"`
}

// AuthResult pairs an access token with the profile it was minted for.
type AuthResult struct {
	Token string       `json:"token"`
	Actor ActorProfile `json:"actor"`
}
