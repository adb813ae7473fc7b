package produce

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sokohub/sokohub-backend/pkg/db/models"
	pkgerrors "github.com/sokohub/sokohub-backend/pkg/errors"
	"github.com/sokohub/sokohub-backend/pkg/logger"
	"github.com/sokohub/sokohub-backend/pkg/pagination"
)

// Page is one cursor page of catalogue listings.
type Page struct {
	Produce    []models.Produce `json:"produce"`
	NextCursor *string          `json:"next_cursor,omitempty"`
}

// Service manages the produce catalogue. Writes are farmer-scoped; browsing
// is open to any caller.
type Service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg}
}

// Create lists new produce under the farmer's account.
func (s *Service) Create(ctx context.Context, farmerID uuid.UUID, input CreateInput) (*models.Produce, error) {
	if farmerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "farmer id is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "produce name is required")
	}
	if strings.TrimSpace(input.Quality) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "produce quality is required")
	}
	if !input.UnitPrice.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must be positive")
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}

	produce, err := s.repo.Create(ctx, &models.Produce{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Category:    input.Category,
		UnitPrice:   input.UnitPrice,
		Quantity:    input.Quantity,
		Quality:     strings.TrimSpace(input.Quality),
		FarmerID:    farmerID,
	})
	if err != nil {
		return nil, fmt.Errorf("creating produce: %w", err)
	}

	s.logg.Info(s.logg.WithField(ctx, "produce_id", produce.ID.String()), "produce listed")
	return produce, nil
}

// Update applies a partial edit to the farmer's own listing.
func (s *Service) Update(ctx context.Context, farmerID, produceID uuid.UUID, input UpdateInput) (*models.Produce, error) {
	existing, err := s.repo.Find(ctx, produceID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "produce not found")
		}
		return nil, fmt.Errorf("loading produce: %w", err)
	}
	if existing.FarmerID != farmerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "produce belongs to another farmer")
	}

	updates := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "produce name must not be empty")
		}
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Category != nil {
		updates["category"] = *input.Category
	}
	if input.UnitPrice != nil {
		if !input.UnitPrice.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must be positive")
		}
		updates["unit_price"] = *input.UnitPrice
	}
	if input.Quantity != nil {
		if *input.Quantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
		}
		updates["quantity"] = *input.Quantity
	}
	if input.Quality != nil {
		if strings.TrimSpace(*input.Quality) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "produce quality must not be empty")
		}
		updates["quality"] = strings.TrimSpace(*input.Quality)
	}

	updated, err := s.repo.Update(ctx, produceID, updates)
	if err != nil {
		return nil, fmt.Errorf("updating produce: %w", err)
	}
	return updated, nil
}

// Get loads one listing.
func (s *Service) Get(ctx context.Context, produceID uuid.UUID) (*models.Produce, error) {
	produce, err := s.repo.Find(ctx, produceID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "produce not found")
		}
		return nil, fmt.Errorf("loading produce: %w", err)
	}
	return produce, nil
}

// Browse pages through the catalogue, newest listings first.
func (s *Service) Browse(ctx context.Context, filters BrowseFilters, params pagination.Params) (*Page, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.Browse(ctx, filters, cursor, limit+1)
	if err != nil {
		return nil, fmt.Errorf("browsing produce: %w", err)
	}

	page := &Page{Produce: rows}
	if len(rows) > limit {
		page.Produce = rows[:limit]
		last := page.Produce[limit-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		page.NextCursor = &next
	}
	return page, nil
}
