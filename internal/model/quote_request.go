package model

import "time"

// QuoteRequest is one uploaded model file plus the print options chosen for it.
// User fields are denormalized copies from the submission, not foreign keys.
// Option fields are nil when the client did not send them.
type QuoteRequest struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	UserID           string    `json:"user_id" gorm:"size:64;not null;index"`
	UserName         string    `json:"user_name" gorm:"size:255;not null"`
	UserMobile       string    `json:"user_mobile" gorm:"size:32;not null"`
	Material         *string   `json:"material" gorm:"size:255"`
	Type             *string   `json:"type" gorm:"size:255"`
	Color            *string   `json:"color" gorm:"size:255"`
	Process          *string   `json:"process" gorm:"size:255"`
	Units            *string   `json:"units" gorm:"size:64"`
	Infill           *string   `json:"infill" gorm:"size:64"`
	Quantity         *string   `json:"quantity" gorm:"size:64"`
	EstimatedPrice   *string   `json:"estimated_price" gorm:"size:64"`
	ModelFilename    string    `json:"model_filename" gorm:"size:255;not null"`
	ModelPath        string    `json:"model_path" gorm:"size:512;not null"`
	OriginalFilename string    `json:"original_filename" gorm:"size:255"`
	ContentType      string    `json:"content_type" gorm:"size:128"`
	SizeBytes        int64     `json:"size_bytes"`
	CreatedAt        time.Time `json:"created_at"`
}

// TableName keeps the table name used by the existing schema.
func (QuoteRequest) TableName() string {
	return "quote_requests"
}
