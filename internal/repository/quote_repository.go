package repository

import (
	"context"

	"gorm.io/gorm"

	"protoform/internal/model"
)

// QuoteRepository defines quote request persistence operations.
type QuoteRepository interface {
	CreateBatch(ctx context.Context, requests []model.QuoteRequest) error
	List(ctx context.Context) ([]model.QuoteRequest, error)
}

type quoteRepository struct {
	db *gorm.DB
}

// NewQuoteRepository creates a new quote request repository.
func NewQuoteRepository(db *gorm.DB) QuoteRepository {
	return &quoteRepository{db: db}
}

// CreateBatch inserts every row of one submission in a single multi-row INSERT,
// so the batch lands or fails as a whole.
func (r *quoteRepository) CreateBatch(ctx context.Context, requests []model.QuoteRequest) error {
	if len(requests) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&requests).Error
}

// List returns every quote request, oldest first.
func (r *quoteRepository) List(ctx context.Context) ([]model.QuoteRequest, error) {
	var requests []model.QuoteRequest
	if err := r.db.WithContext(ctx).Order("id").Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}
