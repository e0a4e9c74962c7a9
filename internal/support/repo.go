package support

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pvalette/boutique-backend/pkg/db/models"
)

// Repository stores support threads and their messages.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateThread(ctx context.Context, thread *models.SupportThread) (*models.SupportThread, error)
	FindThread(ctx context.Context, id uuid.UUID) (*models.SupportThread, error)
	ListThreads(ctx context.Context, userID uuid.UUID) ([]models.SupportThread, error)
	UpdateThread(ctx context.Context, id uuid.UUID, updates map[string]any) error
	CreateMessage(ctx context.Context, message *models.SupportMessage) (*models.SupportMessage, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a support repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateThread(ctx context.Context, thread *models.SupportThread) (*models.SupportThread, error) {
	if err := r.db.WithContext(ctx).Create(thread).Error; err != nil {
		return nil, err
	}
	return thread, nil
}

func (r *repository) FindThread(ctx context.Context, id uuid.UUID) (*models.SupportThread, error) {
	var thread models.SupportThread
	err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&thread).Error
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

func (r *repository) ListThreads(ctx context.Context, userID uuid.UUID) ([]models.SupportThread, error) {
	var threads []models.SupportThread
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&threads).Error
	if err != nil {
		return nil, err
	}
	return threads, nil
}

func (r *repository) UpdateThread(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.SupportThread{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) CreateMessage(ctx context.Context, message *models.SupportMessage) (*models.SupportMessage, error) {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}
