package storage

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jasirilabs/lats-backend/pkg/db/models"
)

// Repository persists storage rooms and shelves.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) CreateRoom(ctx context.Context, room *models.StorageRoom) (*models.StorageRoom, error) {
	if room.ID == uuid.Nil {
		room.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(room).Error; err != nil {
		return nil, err
	}
	return room, nil
}

// FindRoom loads the room with its shelves in position order.
func (r *Repository) FindRoom(ctx context.Context, id uuid.UUID) (*models.StorageRoom, error) {
	var room models.StorageRoom
	err := r.db.WithContext(ctx).
		Preload("Shelves", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, code ASC")
		}).
		Where("id = ?", id).
		First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *Repository) ListRooms(ctx context.Context) ([]models.StorageRoom, error) {
	var rooms []models.StorageRoom
	err := r.db.WithContext(ctx).
		Preload("Shelves", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, code ASC")
		}).
		Order("code ASC").
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *Repository) UpdateRoom(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.StorageRoom{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *Repository) DeleteRoom(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.StorageRoom{}).Error
}

func (r *Repository) CreateShelf(ctx context.Context, shelf *models.StoreShelf) (*models.StoreShelf, error) {
	if shelf.ID == uuid.Nil {
		shelf.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(shelf).Error; err != nil {
		return nil, err
	}
	return shelf, nil
}

func (r *Repository) FindShelf(ctx context.Context, id uuid.UUID) (*models.StoreShelf, error) {
	var shelf models.StoreShelf
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&shelf).Error
	if err != nil {
		return nil, err
	}
	return &shelf, nil
}

func (r *Repository) UpdateShelf(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.StoreShelf{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *Repository) DeleteShelf(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.StoreShelf{}).Error
}

// ShelfLoad sums the stock quantities of variants currently on the shelf.
func (r *Repository) ShelfLoad(ctx context.Context, db *gorm.DB, shelfID uuid.UUID) (int, error) {
	if db == nil {
		db = r.db
	}
	var load int
	err := db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("shelf_id = ?", shelfID).
		Scan(&load).Error
	return load, err
}

// CountShelfVariants reports how many variants are stored on the shelf.
func (r *Repository) CountShelfVariants(ctx context.Context, shelfID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("shelf_id = ?", shelfID).
		Count(&count).Error
	return count, err
}

func (r *Repository) FindVariant(ctx context.Context, db *gorm.DB, variantID uuid.UUID) (*models.ProductVariant, error) {
	if db == nil {
		db = r.db
	}
	var variant models.ProductVariant
	err := db.WithContext(ctx).
		Where("id = ?", variantID).
		First(&variant).Error
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *Repository) MoveVariant(ctx context.Context, db *gorm.DB, variantID uuid.UUID, shelfID *uuid.UUID) error {
	if db == nil {
		db = r.db
	}
	return db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ?", variantID).
		Update("shelf_id", shelfID).Error
}
