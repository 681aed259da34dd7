package models

import "time"

// CepCacheEntry is the persisted tier of the postal-code cache. TTL is
// enforced by the reader, not the store: stale rows stay until overwritten.
type CepCacheEntry struct {
	Cep          string    `gorm:"column:cep;primaryKey;size:8"`
	Street       string    `gorm:"column:logradouro"`
	Neighborhood string    `gorm:"column:bairro"`
	City         string    `gorm:"column:localidade;not null"`
	State        string    `gorm:"column:uf;not null;size:2"`
	DeliveryZone string    `gorm:"column:zona_entrega"`
	Source       string    `gorm:"column:source;not null"`
	CachedAt     time.Time `gorm:"column:cached_at;not null"`
}
