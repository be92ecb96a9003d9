package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jasirilabs/lats-backend/pkg/db"
	"github.com/jasirilabs/lats-backend/pkg/db/models"
	pkgerrors "github.com/jasirilabs/lats-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RoomInput creates or updates a storage room.
type RoomInput struct {
	Code        string `json:"code" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description *string
	Capacity    int
}

// ShelfInput creates a shelf inside a room. Codes are unique per room.
type ShelfInput struct {
	Code     string `json:"code" validate:"required"`
	RowLabel *string
	Position int
	Capacity int
}

// MoveStockInput relocates a variant's stock onto another shelf. A nil
// target takes the variant off the shelf map entirely.
type MoveStockInput struct {
	VariantID uuid.UUID
	ToShelfID *uuid.UUID
}

// Service exposes warehouse layout operations.
type Service interface {
	CreateRoom(ctx context.Context, input RoomInput) (*models.StorageRoom, error)
	GetRoom(ctx context.Context, roomID uuid.UUID) (*models.StorageRoom, error)
	ListRooms(ctx context.Context) ([]models.StorageRoom, error)
	UpdateRoom(ctx context.Context, roomID uuid.UUID, input RoomInput) (*models.StorageRoom, error)
	DeleteRoom(ctx context.Context, roomID uuid.UUID) error
	AddShelf(ctx context.Context, roomID uuid.UUID, input ShelfInput) (*models.StoreShelf, error)
	UpdateShelf(ctx context.Context, shelfID uuid.UUID, input ShelfInput) (*models.StoreShelf, error)
	DeleteShelf(ctx context.Context, shelfID uuid.UUID) error
	MoveStock(ctx context.Context, input MoveStockInput) error
}

type service struct {
	repo *Repository
	tx   txRunner
}

// NewService constructs a storage service instance.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("storage repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) CreateRoom(ctx context.Context, input RoomInput) (*models.StorageRoom, error) {
	if err := validateRoomInput(input); err != nil {
		return nil, err
	}
	room := &models.StorageRoom{
		Code:        strings.ToUpper(strings.TrimSpace(input.Code)),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Capacity:    input.Capacity,
		IsActive:    true,
	}
	created, err := s.repo.CreateRoom(ctx, room)
	if err != nil {
		if db.IsUniqueViolation(err, "idx_storage_rooms_code") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "room code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert room")
	}
	return created, nil
}

func (s *service) GetRoom(ctx context.Context, roomID uuid.UUID) (*models.StorageRoom, error) {
	return s.findRoom(ctx, roomID)
}

func (s *service) ListRooms(ctx context.Context) ([]models.StorageRoom, error) {
	return s.repo.ListRooms(ctx)
}

func (s *service) UpdateRoom(ctx context.Context, roomID uuid.UUID, input RoomInput) (*models.StorageRoom, error) {
	if err := validateRoomInput(input); err != nil {
		return nil, err
	}
	if _, err := s.findRoom(ctx, roomID); err != nil {
		return nil, err
	}
	updates := map[string]any{
		"code":     strings.ToUpper(strings.TrimSpace(input.Code)),
		"name":     strings.TrimSpace(input.Name),
		"capacity": input.Capacity,
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if err := s.repo.UpdateRoom(ctx, roomID, updates); err != nil {
		if db.IsUniqueViolation(err, "idx_storage_rooms_code") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "room code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update room")
	}
	return s.findRoom(ctx, roomID)
}

func (s *service) DeleteRoom(ctx context.Context, roomID uuid.UUID) error {
	room, err := s.findRoom(ctx, roomID)
	if err != nil {
		return err
	}
	for _, shelf := range room.Shelves {
		count, err := s.repo.CountShelfVariants(ctx, shelf.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count shelf stock")
		}
		if count > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "room still holds stock")
		}
	}
	return s.repo.DeleteRoom(ctx, roomID)
}

func (s *service) AddShelf(ctx context.Context, roomID uuid.UUID, input ShelfInput) (*models.StoreShelf, error) {
	if err := validateShelfInput(input); err != nil {
		return nil, err
	}
	if _, err := s.findRoom(ctx, roomID); err != nil {
		return nil, err
	}
	shelf := &models.StoreShelf{
		RoomID:   roomID,
		Code:     strings.ToUpper(strings.TrimSpace(input.Code)),
		RowLabel: input.RowLabel,
		Position: input.Position,
		Capacity: input.Capacity,
	}
	created, err := s.repo.CreateShelf(ctx, shelf)
	if err != nil {
		if db.IsUniqueViolation(err, "idx_shelves_room_code") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "shelf code already exists in room")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert shelf")
	}
	return created, nil
}

func (s *service) UpdateShelf(ctx context.Context, shelfID uuid.UUID, input ShelfInput) (*models.StoreShelf, error) {
	if err := validateShelfInput(input); err != nil {
		return nil, err
	}
	if _, err := s.findShelf(ctx, shelfID); err != nil {
		return nil, err
	}
	updates := map[string]any{
		"code":     strings.ToUpper(strings.TrimSpace(input.Code)),
		"position": input.Position,
		"capacity": input.Capacity,
	}
	if input.RowLabel != nil {
		updates["row_label"] = *input.RowLabel
	}
	if err := s.repo.UpdateShelf(ctx, shelfID, updates); err != nil {
		if db.IsUniqueViolation(err, "idx_shelves_room_code") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "shelf code already exists in room")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update shelf")
	}
	return s.findShelf(ctx, shelfID)
}

func (s *service) DeleteShelf(ctx context.Context, shelfID uuid.UUID) error {
	if _, err := s.findShelf(ctx, shelfID); err != nil {
		return err
	}
	count, err := s.repo.CountShelfVariants(ctx, shelfID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count shelf stock")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "shelf still holds stock")
	}
	return s.repo.DeleteShelf(ctx, shelfID)
}

// MoveStock relocates a variant's whole quantity onto the target shelf. The
// capacity check and the shelf pointer update run in one transaction so two
// concurrent moves cannot overfill a shelf. Capacity zero means unbounded.
func (s *service) MoveStock(ctx context.Context, input MoveStockInput) error {
	if input.VariantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "variant id required")
	}
	if input.ToShelfID != nil {
		if _, err := s.findShelf(ctx, *input.ToShelfID); err != nil {
			return err
		}
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		variant, err := s.repo.FindVariant(ctx, tx, input.VariantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load variant")
		}

		if input.ToShelfID != nil {
			shelf, err := s.repo.FindShelf(ctx, *input.ToShelfID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load shelf")
			}
			if shelf.Capacity > 0 {
				load, err := s.repo.ShelfLoad(ctx, tx, shelf.ID)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: shelf load")
				}
				if load+variant.Quantity > shelf.Capacity {
					return pkgerrors.New(pkgerrors.CodeConflict, "shelf capacity exceeded").
						WithDetails(map[string]any{
							"capacity": shelf.Capacity,
							"load":     load,
							"moving":   variant.Quantity,
						})
				}
			}
		}

		return s.repo.MoveVariant(ctx, tx, variant.ID, input.ToShelfID)
	})
}

func (s *service) findRoom(ctx context.Context, roomID uuid.UUID) (*models.StorageRoom, error) {
	if roomID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "room id required")
	}
	room, err := s.repo.FindRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "storage room not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load room")
	}
	return room, nil
}

func (s *service) findShelf(ctx context.Context, shelfID uuid.UUID) (*models.StoreShelf, error) {
	if shelfID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shelf id required")
	}
	shelf, err := s.repo.FindShelf(ctx, shelfID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shelf not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load shelf")
	}
	return shelf, nil
}

func validateRoomInput(input RoomInput) error {
	if strings.TrimSpace(input.Code) == "" || strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "room code and name required")
	}
	if input.Capacity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "capacity cannot be negative")
	}
	return nil
}

func validateShelfInput(input ShelfInput) error {
	if strings.TrimSpace(input.Code) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "shelf code required")
	}
	if input.Capacity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "capacity cannot be negative")
	}
	return nil
}
