package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	apperrors "protoform/internal/errors"
	"protoform/internal/service"
)

// modelsField is the multipart field carrying the uploaded model files.
const modelsField = "models"

// QuoteHandler handles quote submission, listing and model downloads.
type QuoteHandler struct {
	quoteService service.QuoteService
	logger       zerolog.Logger
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(quoteService service.QuoteService, logger zerolog.Logger) *QuoteHandler {
	return &QuoteHandler{quoteService: quoteService, logger: logger}
}

// SubmitQuoteResponse is returned after a successful submission.
type SubmitQuoteResponse struct {
	Message        string          `json:"message"`
	Count          int             `json:"count"`
	EstimatedTotal decimal.Decimal `json:"estimatedTotal" swaggertype:"string"`
}

// SubmitQuote godoc
// @Summary Submit a quote request
// @Description Upload one or more model files under "models". Options for the i-th file are sent as material{i}, type{i}, color{i}, process{i}, units{i}, infill{i}, quantity{i}, estimatedPrice{i}.
// @Tags quotes
// @Accept multipart/form-data
// @Produce json
// @Param userId formData string true "User ID"
// @Param userName formData string true "User name"
// @Param userMobile formData string true "User mobile"
// @Param models formData file true "Model files"
// @Success 200 {object} SubmitQuoteResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /quotes/submit-quote [post]
func (h *QuoteHandler) SubmitQuote(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return mapError(apperrors.ErrMissingFields)
		}
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Error: "invalid multipart form",
			Code:  "INVALID_REQUEST",
		})
	}
	defer func() { _ = form.RemoveAll() }()

	sub := service.QuoteSubmission{
		UserID:     firstValue(form.Value, "userId"),
		UserName:   firstValue(form.Value, "userName"),
		UserMobile: firstValue(form.Value, "userMobile"),
		Fields:     form.Value,
	}
	for _, fh := range form.File[modelsField] {
		sub.Files = append(sub.Files, modelFile(fh))
	}

	res, err := h.quoteService.Submit(c.Request().Context(), sub)
	if err != nil {
		if !errors.Is(err, apperrors.ErrMissingFields) {
			h.logger.Error().Err(err).Msg("submit quote")
		}
		return mapError(err)
	}

	return c.JSON(http.StatusOK, SubmitQuoteResponse{
		Message:        "Quote request submitted successfully",
		Count:          len(res.Requests),
		EstimatedTotal: res.EstimatedTotal,
	})
}

// ListQuotes godoc
// @Summary List quote requests
// @Tags quotes
// @Produce json
// @Success 200 {array} model.QuoteRequest
// @Failure 500 {object} errors.ErrorResponse
// @Router /quotes/quote-requests [get]
func (h *QuoteHandler) ListQuotes(c echo.Context) error {
	requests, err := h.quoteService.List(c.Request().Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("list quotes")
		return mapError(err)
	}
	return c.JSON(http.StatusOK, requests)
}

// Download godoc
// @Summary Download a stored model file
// @Tags quotes
// @Produce octet-stream
// @Param filename path string true "Stored filename"
// @Success 200 {file} file
// @Failure 404 {object} errors.ErrorResponse
// @Router /quotes/download/{filename} [get]
func (h *QuoteHandler) Download(c echo.Context) error {
	filename := c.Param("filename")

	path, err := h.quoteService.ResolveFile(c.Request().Context(), filename)
	if err != nil {
		if !errors.Is(err, apperrors.ErrFileNotFound) {
			h.logger.Error().Err(err).Str("file", filename).Msg("resolve download")
		}
		return mapError(err)
	}

	return c.Attachment(path, filename)
}

func firstValue(values map[string][]string, key string) string {
	if v := values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func modelFile(fh *multipart.FileHeader) service.ModelFile {
	return service.ModelFile{
		Name: fh.Filename,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}
