package repository

import (
	"context"
	"errors"
	"strings"

	"huddle/internal/models"
	"huddle/internal/observability"

	"gorm.io/gorm"
)

// CharacterRepository defines the interface for character data operations
type CharacterRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Character, error)
	// ResolveByName returns the lowest-id character whose display name matches
	// name case-insensitively, or nil when none does.
	ResolveByName(ctx context.Context, name string) (*models.Character, error)
	TeamOf(ctx context.Context, id uint) (*uint, error)
	Create(ctx context.Context, character *models.Character) error
	SetActive(ctx context.Context, accountID, characterID uint) error
	ListByAccount(ctx context.Context, accountID uint) ([]models.Character, error)
}

type characterRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewCharacterRepository creates a new character repository
func NewCharacterRepository(db *gorm.DB) CharacterRepository {
	return &characterRepository{db: db, log: observability.NewRepoLogger("characters")}
}

func (r *characterRepository) GetByID(ctx context.Context, id uint) (*models.Character, error) {
	var character models.Character
	if err := r.db.WithContext(ctx).First(&character, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Character", id)
		}
		return nil, storageError(ctx, r.log, err, "get_by_id")
	}
	return &character, nil
}

func (r *characterRepository) ResolveByName(ctx context.Context, name string) (*models.Character, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, nil
	}
	var character models.Character
	err := r.db.WithContext(ctx).
		Where("LOWER(display_name) = ?", name).
		Order("id ASC").
		First(&character).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageError(ctx, r.log, err, "resolve_by_name")
	}
	return &character, nil
}

func (r *characterRepository) TeamOf(ctx context.Context, id uint) (*uint, error) {
	character, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return character.TeamID, nil
}

func (r *characterRepository) Create(ctx context.Context, character *models.Character) error {
	if err := r.db.WithContext(ctx).Create(character).Error; err != nil {
		return storageError(ctx, r.log, err, "create")
	}
	return nil
}

// SetActive makes characterID the only active character of its account.
func (r *characterRepository) SetActive(ctx context.Context, accountID, characterID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var character models.Character
		if err := tx.Where("id = ? AND account_id = ?", characterID, accountID).First(&character).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Character", characterID)
			}
			return err
		}
		if err := tx.Model(&models.Character{}).
			Where("account_id = ? AND id <> ?", accountID, characterID).
			Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.Character{}).
			Where("id = ?", characterID).
			Update("is_active", true).Error
	})
	if err != nil {
		return storageError(ctx, r.log, err, "set_active")
	}
	return nil
}

func (r *characterRepository) ListByAccount(ctx context.Context, accountID uint) ([]models.Character, error) {
	var characters []models.Character
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("id ASC").
		Find(&characters).Error; err != nil {
		return nil, storageError(ctx, r.log, err, "list_by_account")
	}
	return characters, nil
}
