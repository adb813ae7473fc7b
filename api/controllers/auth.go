package controllers

import (
	"net/http"

	"github.com/sokohub/sokohub-backend/api/responses"
	"github.com/sokohub/sokohub-backend/api/validators"
	authsvc "github.com/sokohub/sokohub-backend/internal/auth"
	"github.com/sokohub/sokohub-backend/pkg/enums"
	pkgerrors "github.com/sokohub/sokohub-backend/pkg/errors"
	"github.com/sokohub/sokohub-backend/pkg/logger"
)

type registerVendorRequest struct {
	Name     string  `json:"name" validate:"required,min=2,max=120"`
	Email    string  `json:"email" validate:"required,email"`
	Phone    string  `json:"phone" validate:"required,min=9,max=15"`
	Password string  `json:"password" validate:"required,min=8,max=128"`
	Location *string `json:"location,omitempty" validate:"omitempty,max=200"`
}

type registerFarmerRequest struct {
	Name            string  `json:"name" validate:"required,min=2,max=120"`
	Email           string  `json:"email" validate:"required,email"`
	Phone           string  `json:"phone" validate:"required,min=9,max=15"`
	Password        string  `json:"password" validate:"required,min=8,max=128"`
	WhatsappLink    *string `json:"whatsapp_link,omitempty" validate:"omitempty,url"`
	Location        *string `json:"location,omitempty" validate:"omitempty,max=200"`
	KephisCertified bool    `json:"kephis_certified"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=vendor farmer"`
}

// RegisterVendor creates a vendor account.
func RegisterVendor(svc *authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload registerVendorRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.RegisterVendor(r.Context(), authsvc.RegisterVendorInput{
			Name:     payload.Name,
			Email:    payload.Email,
			Phone:    payload.Phone,
			Password: payload.Password,
			Location: payload.Location,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// RegisterFarmer creates a farmer account.
func RegisterFarmer(svc *authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload registerFarmerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.RegisterFarmer(r.Context(), authsvc.RegisterFarmerInput{
			Name:            payload.Name,
			Email:           payload.Email,
			Phone:           payload.Phone,
			Password:        payload.Password,
			WhatsappLink:    payload.WhatsappLink,
			Location:        payload.Location,
			KephisCertified: payload.KephisCertified,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// Login exchanges credentials for an access token.
func Login(svc *authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload loginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseActorRole(payload.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}

		result, err := svc.Login(r.Context(), role, authsvc.LoginInput{
			Email:    payload.Email,
			Password: payload.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
