package service

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"protoform/internal/cache"
	apperrors "protoform/internal/errors"
	"protoform/internal/metrics"
	"protoform/internal/model"
	"protoform/internal/repository"
	"protoform/internal/storage"
)

const quotesListCacheKey = "quotes:all"

// ModelFile is one uploaded file as received from the client.
type ModelFile struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// QuoteSubmission is a parsed submit-quote form. Fields holds every
// non-file form value; per-file options are keyed as material1, color2, ...
type QuoteSubmission struct {
	UserID     string
	UserName   string
	UserMobile string
	Files      []ModelFile
	Fields     map[string][]string
}

// SubmitResult describes the rows written for a submission.
type SubmitResult struct {
	Requests       []model.QuoteRequest
	EstimatedTotal decimal.Decimal
}

// QuoteService handles quote submission, listing and file retrieval.
type QuoteService interface {
	Submit(ctx context.Context, sub QuoteSubmission) (*SubmitResult, error)
	List(ctx context.Context) ([]model.QuoteRequest, error)
	ResolveFile(ctx context.Context, filename string) (string, error)
}

type quoteService struct {
	repo   repository.QuoteRepository
	store  storage.FileStore
	cache  *cache.Client
	logger zerolog.Logger
}

// NewQuoteService creates a new quote service.
func NewQuoteService(repo repository.QuoteRepository, store storage.FileStore, cache *cache.Client, logger zerolog.Logger) QuoteService {
	return &quoteService{
		repo:   repo,
		store:  store,
		cache:  cache,
		logger: logger.With().Str("component", "quotes").Logger(),
	}
}

// Submit stores every file and inserts one row per file in a single batch.
// Files already written are removed if a later file or the insert fails.
func (s *quoteService) Submit(ctx context.Context, sub QuoteSubmission) (*SubmitResult, error) {
	if strings.TrimSpace(sub.UserID) == "" || strings.TrimSpace(sub.UserName) == "" ||
		strings.TrimSpace(sub.UserMobile) == "" || len(sub.Files) == 0 {
		metrics.QuoteSubmissions.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, apperrors.ErrMissingFields
	}

	stored := make([]*storage.StoredFile, 0, len(sub.Files))
	rows := make([]model.QuoteRequest, 0, len(sub.Files))

	for i, f := range sub.Files {
		idx := i + 1

		sf, err := s.storeFile(ctx, f)
		if err != nil {
			s.discard(stored)
			metrics.QuoteSubmissions.WithLabelValues(metrics.ResultError).Inc()
			return nil, fmt.Errorf("store model %d: %w", idx, err)
		}
		stored = append(stored, sf)

		rows = append(rows, model.QuoteRequest{
			UserID:           sub.UserID,
			UserName:         sub.UserName,
			UserMobile:       sub.UserMobile,
			Material:         indexedField(sub.Fields, "material", idx),
			Type:             indexedField(sub.Fields, "type", idx),
			Color:            indexedField(sub.Fields, "color", idx),
			Process:          indexedField(sub.Fields, "process", idx),
			Units:            indexedField(sub.Fields, "units", idx),
			Infill:           indexedField(sub.Fields, "infill", idx),
			Quantity:         indexedField(sub.Fields, "quantity", idx),
			EstimatedPrice:   indexedField(sub.Fields, "estimatedPrice", idx),
			ModelFilename:    sf.Name,
			ModelPath:        sf.PublicPath,
			OriginalFilename: f.Name,
			ContentType:      sf.ContentType,
			SizeBytes:        sf.Size,
		})
	}

	if err := s.repo.CreateBatch(ctx, rows); err != nil {
		s.discard(stored)
		metrics.QuoteSubmissions.WithLabelValues(metrics.ResultError).Inc()
		return nil, fmt.Errorf("insert quote requests: %w", err)
	}

	_ = s.cache.Delete(ctx, quotesListCacheKey)

	for _, sf := range stored {
		metrics.QuoteFilesStored.Inc()
		metrics.QuoteBytesStored.Add(float64(sf.Size))
	}
	metrics.QuoteSubmissions.WithLabelValues(metrics.ResultSuccess).Inc()
	s.logger.Info().
		Str("user_id", sub.UserID).
		Int("files", len(rows)).
		Msg("quote submitted")

	return &SubmitResult{
		Requests:       rows,
		EstimatedTotal: estimatedTotal(rows),
	}, nil
}

func (s *quoteService) storeFile(ctx context.Context, f ModelFile) (*storage.StoredFile, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer rc.Close()

	return s.store.Save(ctx, f.Name, rc)
}

func (s *quoteService) discard(stored []*storage.StoredFile) {
	for _, sf := range stored {
		if err := s.store.Remove(sf.Name); err != nil {
			s.logger.Warn().Err(err).Str("file", sf.Name).Msg("remove orphaned upload")
		}
	}
}

// List returns every quote request, unfiltered.
func (s *quoteService) List(ctx context.Context) ([]model.QuoteRequest, error) {
	var cached []model.QuoteRequest
	if s.cache.GetJSON(ctx, quotesListCacheKey, &cached) {
		return cached, nil
	}

	requests, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []model.QuoteRequest{}
	}

	s.cache.SetJSON(ctx, quotesListCacheKey, requests, listCacheTTL)
	return requests, nil
}

// ResolveFile returns the on-disk path of a stored upload.
func (s *quoteService) ResolveFile(_ context.Context, filename string) (string, error) {
	return s.store.Resolve(filename)
}

// indexedField returns the first value of name+idx, or nil when the form
// did not carry it. Present-but-empty values are kept as "".
func indexedField(fields map[string][]string, name string, idx int) *string {
	vals, ok := fields[name+strconv.Itoa(idx)]
	if !ok || len(vals) == 0 {
		return nil
	}
	v := vals[0]
	return &v
}

// estimatedTotal sums the estimated prices that parse as decimals.
func estimatedTotal(rows []model.QuoteRequest) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		if r.EstimatedPrice == nil {
			continue
		}
		price, err := decimal.NewFromString(strings.TrimSpace(*r.EstimatedPrice))
		if err != nil {
			continue
		}
		total = total.Add(price)
	}
	return total
}
