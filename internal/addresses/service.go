package addresses

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/example/sunik/internal/apperrors"
	"github.com/example/sunik/internal/models"
	"github.com/example/sunik/internal/validation"
)

// Input is the editable part of a saved address.
type Input struct {
	FullName    string             `json:"full_name" validate:"required,min=3"`
	Phone       string             `json:"phone" validate:"required,min=10"`
	StreetName  string             `json:"street_name" validate:"required,min=10"`
	Landmark    string             `json:"landmark" validate:"required,min=3"`
	AddressType models.AddressType `json:"address_type" validate:"required,oneof=home office"`
	Province    string             `json:"province" validate:"required"`
	City        string             `json:"city" validate:"required"`
	PostalCode  string             `json:"postal_code" validate:"required,min=5"`
	Location    LocationInput      `json:"location"`
}

type LocationInput struct {
	Lat        float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng        float64 `json:"lng" validate:"gte=-180,lte=180"`
	Address    string  `json:"address"`
	Province   string  `json:"province"`
	City       string  `json:"city"`
	PostalCode string  `json:"postal_code"`
}

func (in Input) apply(addr *models.SavedAddress) {
	addr.FullName = in.FullName
	addr.Phone = in.Phone
	addr.StreetName = in.StreetName
	addr.Landmark = in.Landmark
	addr.AddressType = in.AddressType
	addr.Province = in.Province
	addr.City = in.City
	addr.PostalCode = in.PostalCode
	addr.Location = datatypes.NewJSONType(models.Location(in.Location))
}

// Service manages a user's saved addresses. At most one address per user is
// primary; the first one saved becomes primary automatically.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// List returns the user's addresses with the primary one first.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]models.SavedAddress, error) {
	var items []models.SavedAddress
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_primary desc").
		Order("created_at asc").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	return items, nil
}

// Primary returns the user's primary address, or NOT_FOUND.
func (s *Service) Primary(ctx context.Context, userID uuid.UUID) (*models.SavedAddress, error) {
	var addr models.SavedAddress
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_primary = ?", userID, true).
		First(&addr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("no primary address")
	}
	if err != nil {
		return nil, fmt.Errorf("load primary address: %w", err)
	}
	return &addr, nil
}

func (s *Service) Add(ctx context.Context, userID uuid.UUID, in Input) (*models.SavedAddress, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	addr := models.SavedAddress{UserID: userID}
	in.apply(&addr)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.SavedAddress{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		addr.IsPrimary = count == 0
		return tx.Create(&addr).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}
	return &addr, nil
}

// Update replaces the editable fields. Primary status is untouched.
func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, in Input) (*models.SavedAddress, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	addr, err := s.get(ctx, s.db, userID, id)
	if err != nil {
		return nil, err
	}
	in.apply(addr)
	if err := s.db.WithContext(ctx).Save(addr).Error; err != nil {
		return nil, fmt.Errorf("update address: %w", err)
	}
	return addr, nil
}

// Delete removes an address. Removing the primary leaves the user without one.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.SavedAddress{})
	if res.Error != nil {
		return fmt.Errorf("delete address: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("address not found")
	}
	return nil
}

// SetPrimary makes id the only primary address of the user.
func (s *Service) SetPrimary(ctx context.Context, userID, id uuid.UUID) (*models.SavedAddress, error) {
	var result *models.SavedAddress
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		addr, err := s.get(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.SavedAddress{}).
			Where("user_id = ? AND id <> ?", userID, id).
			Update("is_primary", false).Error; err != nil {
			return err
		}
		if err := tx.Model(addr).Update("is_primary", true).Error; err != nil {
			return err
		}
		addr.IsPrimary = true
		result = addr
		return nil
	})
	if err != nil {
		if apperrors.As(err) != nil {
			return nil, err
		}
		return nil, fmt.Errorf("set primary address: %w", err)
	}
	return result, nil
}

func (s *Service) get(ctx context.Context, db *gorm.DB, userID, id uuid.UUID) (*models.SavedAddress, error) {
	var addr models.SavedAddress
	err := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&addr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("address not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load address: %w", err)
	}
	return &addr, nil
}
