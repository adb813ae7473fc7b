package produce

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sokohub/sokohub-backend/pkg/db"
	"github.com/sokohub/sokohub-backend/pkg/db/models"
	"github.com/sokohub/sokohub-backend/pkg/pagination"
)

// Repository owns produce catalogue persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(client *db.Client) *Repository {
	return &Repository{db: client.DB()}
}

func (r *Repository) Create(ctx context.Context, produce *models.Produce) (*models.Produce, error) {
	if produce.ID == uuid.Nil {
		produce.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(produce).Error; err != nil {
		return nil, err
	}
	return produce, nil
}

func (r *Repository) Find(ctx context.Context, produceID uuid.UUID) (*models.Produce, error) {
	var produce models.Produce
	if err := r.db.WithContext(ctx).First(&produce, "id = ?", produceID).Error; err != nil {
		return nil, err
	}
	return &produce, nil
}

// Update applies the provided column map to one listing.
func (r *Repository) Update(ctx context.Context, produceID uuid.UUID, updates map[string]any) (*models.Produce, error) {
	if len(updates) > 0 {
		err := r.db.WithContext(ctx).
			Model(&models.Produce{}).
			Where("id = ?", produceID).
			Updates(updates).
			Error
		if err != nil {
			return nil, err
		}
	}
	return r.Find(ctx, produceID)
}

// Browse returns one cursor page of the catalogue, newest listings first.
func (r *Repository) Browse(ctx context.Context, filters BrowseFilters, cursor *pagination.Cursor, limit int) ([]models.Produce, error) {
	query := r.db.WithContext(ctx).Model(&models.Produce{})

	if filters.FarmerID != nil {
		query = query.Where("farmer_id = ?", *filters.FarmerID)
	}
	if filters.Category != nil {
		query = query.Where("category = ?", *filters.Category)
	}
	if filters.Quality != nil {
		query = query.Where("quality = ?", *filters.Quality)
	}
	if filters.InStock {
		query = query.Where("quantity > 0")
	}
	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Produce
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
