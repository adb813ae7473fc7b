package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sokohub/sokohub-backend/pkg/db"
	"github.com/sokohub/sokohub-backend/pkg/db/models"
	"github.com/sokohub/sokohub-backend/pkg/enums"
)

// Repository owns review persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(client *db.Client) *Repository {
	return &Repository{db: client.DB()}
}

func (r *Repository) Create(ctx context.Context, review *models.Review) (*models.Review, error) {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

// ListByFarmer returns a farmer's reviews, newest first.
func (r *Repository) ListByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.Review, error) {
	var rows []models.Review
	err := r.db.WithContext(ctx).
		Where("farmer_id = ?", farmerID).
		Order("created_at DESC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// HasConfirmedOrder reports whether the vendor completed at least one trade
// with the farmer.
func (r *Repository) HasConfirmedOrder(ctx context.Context, vendorID, farmerID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("vendor_id = ? AND farmer_id = ? AND status = ?", vendorID, farmerID, enums.OrderStatusConfirmed).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AverageRating computes the farmer's mean rating, zero when unreviewed.
func (r *Repository) AverageRating(ctx context.Context, farmerID uuid.UUID) (float64, error) {
	var avg *float64
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("farmer_id = ?", farmerID).
		Select("AVG(rating)").
		Scan(&avg).
		Error
	if err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}
