package reviews

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sokohub/sokohub-backend/pkg/db/models"
	pkgerrors "github.com/sokohub/sokohub-backend/pkg/errors"
	"github.com/sokohub/sokohub-backend/pkg/logger"
)

// CreateInput is a vendor's rating of a farmer.
type CreateInput struct {
	FarmerID uuid.UUID
	Rating   int
	Comment  *string
}

// FarmerReviews bundles a farmer's reviews with their average rating.
type FarmerReviews struct {
	Reviews       []models.Review `json:"reviews"`
	AverageRating float64         `json:"average_rating"`
}

// Service lets vendors rate farmers they have actually traded with.
type Service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg}
}

// Create records a review. Only vendors with a confirmed order from the
// farmer may review them.
func (s *Service) Create(ctx context.Context, vendorID uuid.UUID, input CreateInput) (*models.Review, error) {
	if input.FarmerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "farmer id is required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	traded, err := s.repo.HasConfirmedOrder(ctx, vendorID, input.FarmerID)
	if err != nil {
		return nil, fmt.Errorf("checking trade history: %w", err)
	}
	if !traded {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "reviews require a confirmed order with this farmer")
	}

	comment := input.Comment
	if comment != nil && strings.TrimSpace(*comment) == "" {
		comment = nil
	}

	review, err := s.repo.Create(ctx, &models.Review{
		VendorID: vendorID,
		FarmerID: input.FarmerID,
		Rating:   input.Rating,
		Comment:  comment,
	})
	if err != nil {
		return nil, fmt.Errorf("creating review: %w", err)
	}

	s.logg.Info(s.logg.WithField(ctx, "review_id", review.ID.String()), "review recorded")
	return review, nil
}

// ListForFarmer returns the farmer's reviews and average rating.
func (s *Service) ListForFarmer(ctx context.Context, farmerID uuid.UUID) (*FarmerReviews, error) {
	if farmerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "farmer id is required")
	}

	rows, err := s.repo.ListByFarmer(ctx, farmerID)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	avg, err := s.repo.AverageRating(ctx, farmerID)
	if err != nil {
		return nil, fmt.Errorf("averaging ratings: %w", err)
	}
	return &FarmerReviews{Reviews: rows, AverageRating: avg}, nil
}
