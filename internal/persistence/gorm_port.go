package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitsconnect/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPort stores collections as rows of the collection_snapshots table.
type GormPort struct {
	db *gorm.DB
}

// NewGormPort creates a port on db. The table must already be migrated.
func NewGormPort(db *gorm.DB) *GormPort {
	return &GormPort{db: db}
}

func (g *GormPort) Load(ctx context.Context, name string) ([]byte, bool, error) {
	var rec models.CollectionSnapshot
	err := g.db.WithContext(ctx).Where("name = ?", name).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load collection %s: %w", name, err)
	}
	return rec.Payload, true, nil
}

func (g *GormPort) Save(ctx context.Context, name string, payload []byte) error {
	rec := models.CollectionSnapshot{Name: name, Payload: payload, UpdatedAt: time.Now().UTC()}
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("save collection %s: %w", name, err)
	}
	return nil
}
