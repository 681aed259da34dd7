package cep

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/construpro/construpro-backend/pkg/db/models"
)

// Repository persists resolved codes. TTL is the caller's concern: Get
// returns whatever is stored, stale or not, and the service decides.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get fetches the stored entry for a normalized code, nil when absent.
func (r *Repository) Get(ctx context.Context, code string) (*models.CepCacheEntry, error) {
	var entry models.CepCacheEntry
	err := r.db.WithContext(ctx).Where("cep = ?", code).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// Upsert inserts or replaces the entry for its code.
func (r *Repository) Upsert(ctx context.Context, entry models.CepCacheEntry) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cep"}},
			UpdateAll: true,
		}).
		Create(&entry).Error
}

// DeleteOlderThan removes entries cached before the cutoff and reports how
// many rows went away.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("cached_at < ?", cutoff).
		Delete(&models.CepCacheEntry{})
	return res.RowsAffected, res.Error
}
