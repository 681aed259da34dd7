package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/construpro/construpro-backend/pkg/db/models"
	"github.com/construpro/construpro-backend/pkg/enums"
)

// CartRepository exposes cart persistence operations.
type CartRepository interface {
	GetActiveCart(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error)
	GetOrCreateActiveCart(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error)
	FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error)
	FindItemByProduct(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) error
	SaveItem(ctx context.Context, item *models.CartItem) error
	DeleteItems(ctx context.Context, cartID uuid.UUID, itemIDs []uuid.UUID) error
	SetCoupon(ctx context.Context, cartID uuid.UUID, code string, discountCents int64) error
	ClearCoupon(ctx context.Context, cartID uuid.UUID) error
	AddWarnings(ctx context.Context, warnings []models.CartWarning) error
	MarkValidated(ctx context.Context, cartID uuid.UUID, at time.Time) error
	SetStatusTx(tx *gorm.DB, cartID uuid.UUID, status enums.CartStatus) error
	ListActiveCarts(ctx context.Context, limit int) ([]models.CartRecord, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cart repository on the provided GORM DB.
func NewRepository(db *gorm.DB) CartRepository {
	return &repository{db: db}
}

func (r *repository) GetActiveCart(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error) {
	var cart models.CartRecord
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Warnings").
		Where("user_id = ? AND status = ?", userID, enums.CartStatusActive).
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

func (r *repository) GetOrCreateActiveCart(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error) {
	cart, err := r.GetActiveCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}
	fresh := models.CartRecord{
		ID:     uuid.New(),
		UserID: userID,
		Status: enums.CartStatusActive,
	}
	if err := r.db.WithContext(ctx).Create(&fresh).Error; err != nil {
		return nil, err
	}
	return &fresh, nil
}

func (r *repository) FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND id = ?", cartID, itemID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindItemByProduct(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repository) CreateItem(ctx context.Context, item *models.CartItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) SaveItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *repository) DeleteItems(ctx context.Context, cartID uuid.UUID, itemIDs []uuid.UUID) error {
	if len(itemIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("cart_id = ? AND id IN ?", cartID, itemIDs).
		Delete(&models.CartItem{}).Error
}

func (r *repository) SetCoupon(ctx context.Context, cartID uuid.UUID, code string, discountCents int64) error {
	return r.db.WithContext(ctx).
		Model(&models.CartRecord{}).
		Where("id = ?", cartID).
		Updates(map[string]any{
			"coupon_code":           code,
			"coupon_discount_cents": discountCents,
		}).Error
}

func (r *repository) ClearCoupon(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.CartRecord{}).
		Where("id = ?", cartID).
		Updates(map[string]any{
			"coupon_code":           nil,
			"coupon_discount_cents": nil,
		}).Error
}

func (r *repository) AddWarnings(ctx context.Context, warnings []models.CartWarning) error {
	if len(warnings) == 0 {
		return nil
	}
	for i := range warnings {
		if warnings[i].ID == uuid.Nil {
			warnings[i].ID = uuid.New()
		}
	}
	return r.db.WithContext(ctx).Create(&warnings).Error
}

func (r *repository) MarkValidated(ctx context.Context, cartID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.CartRecord{}).
		Where("id = ?", cartID).
		Update("last_validated_at", at).Error
}

func (r *repository) SetStatusTx(tx *gorm.DB, cartID uuid.UUID, status enums.CartStatus) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Model(&models.CartRecord{}).
		Where("id = ?", cartID).
		Update("status", status).Error
}

func (r *repository) ListActiveCarts(ctx context.Context, limit int) ([]models.CartRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	var carts []models.CartRecord
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ?", enums.CartStatusActive).
		Order("updated_at DESC").
		Limit(limit).
		Find(&carts).Error
	return carts, err
}
