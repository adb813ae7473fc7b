package auth

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sokohub/sokohub-backend/pkg/db"
	"github.com/sokohub/sokohub-backend/pkg/db/models"
)

// Repository owns vendor and farmer account persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(client *db.Client) *Repository {
	return &Repository{db: client.DB()}
}

func (r *Repository) CreateVendor(ctx context.Context, vendor *models.Vendor) (*models.Vendor, error) {
	if vendor.ID == uuid.Nil {
		vendor.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(vendor).Error; err != nil {
		return nil, err
	}
	return vendor, nil
}

func (r *Repository) FindVendorByEmail(ctx context.Context, email string) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.db.WithContext(ctx).First(&vendor, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *Repository) CreateFarmer(ctx context.Context, farmer *models.Farmer) (*models.Farmer, error) {
	if farmer.ID == uuid.Nil {
		farmer.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(farmer).Error; err != nil {
		return nil, err
	}
	return farmer, nil
}

func (r *Repository) FindFarmerByEmail(ctx context.Context, email string) (*models.Farmer, error) {
	var farmer models.Farmer
	if err := r.db.WithContext(ctx).First(&farmer, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &farmer, nil
}
