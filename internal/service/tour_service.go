package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/khoido2003/natour-api/internal/models"
	"github.com/khoido2003/natour-api/internal/query"
	"github.com/khoido2003/natour-api/internal/repository"
	"github.com/khoido2003/natour-api/internal/validation"
	appErrors "github.com/khoido2003/natour-api/pkg/errors"
	"github.com/khoido2003/natour-api/pkg/export"
)

const (
	tourNotFound  = "No tour found with that ID"
	tourDuplicate = "Duplicate field value: name. Please use another value!"
)

// Export formats.
const (
	ExportCSV = "csv"
	ExportPDF = "pdf"
)

// exportColumns is used when an export request does not name its fields.
var exportColumns = []string{"name", "difficulty", "duration", "maxGroupSize", "price", "ratingsAverage", "summary"}

type tourRepository interface {
	List(ctx context.Context, spec query.Spec) ([]models.Tour, error)
	Count(ctx context.Context, spec query.Spec) (int, error)
	FindByID(ctx context.Context, id string, includeSecret bool) (*models.Tour, error)
	Create(ctx context.Context, tour *models.Tour) error
	Update(ctx context.Context, tour *models.Tour) error
	Delete(ctx context.Context, id string) error
}

type csvRenderer interface {
	ContentType() string
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	ContentType() string
	Render(data export.Dataset, title string) ([]byte, error)
}

// TourList is one page of projected tours.
type TourList struct {
	Tours      []map[string]interface{} `json:"tours"`
	Results    int                      `json:"results"`
	Pagination models.Pagination        `json:"pagination"`
	Cached     bool                     `json:"-"`
}

// ExportFile is a rendered tour export.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// TourService implements the tour use cases.
type TourService struct {
	repo      tourRepository
	cache     *CacheService
	validator *validation.Validator
	opts      query.Options
	csv       csvRenderer
	pdf       pdfRenderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewTourService constructs a TourService. A nil cache disables caching.
func NewTourService(repo tourRepository, cache *CacheService, v *validation.Validator, opts query.Options, logger *zap.Logger) *TourService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if v == nil {
		v = validation.New()
	}
	return &TourService{
		repo:      repo,
		cache:     cache,
		validator: v,
		opts:      opts,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
		now:       time.Now,
	}
}

// List runs the query features over params and returns the projected page.
func (s *TourService) List(ctx context.Context, params url.Values) (*TourList, error) {
	spec := query.New(repository.TourSchema, params, s.opts).Apply().Spec()
	key := s.cache.Key("list", spec.CacheKey())

	var cached TourList
	if s.cache.Get(ctx, key, &cached) {
		cached.Cached = true
		return &cached, nil
	}

	tours, err := s.repo.List(ctx, spec)
	if err != nil {
		return nil, repoError(err, tourNotFound, tourDuplicate, "failed to list tours")
	}
	total, err := s.repo.Count(ctx, spec)
	if err != nil {
		return nil, repoError(err, tourNotFound, tourDuplicate, "failed to count tours")
	}
	docs, err := query.Project(tours, spec.Projection)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to project tours")
	}

	result := &TourList{
		Tours:      docs,
		Results:    len(docs),
		Pagination: models.Pagination{Page: spec.Page, Limit: spec.Limit, TotalCount: total},
	}
	s.cache.Set(ctx, key, result, 0)
	return result, nil
}

// Get returns a single public tour.
func (s *TourService) Get(ctx context.Context, id string) (map[string]interface{}, error) {
	tour, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return nil, repoError(err, tourNotFound, tourDuplicate, "failed to load tour")
	}
	return s.present(tour)
}

// Create decodes body onto a tour with defaults applied, validates and stores it.
func (s *TourService) Create(ctx context.Context, body []byte) (map[string]interface{}, error) {
	tour := models.NewTourDraft()
	if err := json.Unmarshal(body, tour); err != nil {
		return nil, badRequest(err, "Invalid input data. Malformed tour payload")
	}
	tour.ID = ""

	if err := s.save(ctx, tour, s.repo.Create); err != nil {
		return nil, err
	}
	s.logger.Info("tour created", zap.String("tour_id", tour.ID), zap.String("slug", tour.Slug))
	return s.present(tour)
}

// Update merges body onto the stored tour, including secret ones, and saves it.
func (s *TourService) Update(ctx context.Context, id string, body []byte) (map[string]interface{}, error) {
	tour, err := s.repo.FindByID(ctx, id, true)
	if err != nil {
		return nil, repoError(err, tourNotFound, tourDuplicate, "failed to load tour")
	}

	tourID, createdAt, version := tour.ID, tour.CreatedAt, tour.Version
	if err := json.Unmarshal(body, tour); err != nil {
		return nil, badRequest(err, "Invalid input data. Malformed tour payload")
	}
	tour.ID, tour.CreatedAt, tour.Version = tourID, createdAt, version

	if err := s.save(ctx, tour, s.repo.Update); err != nil {
		return nil, err
	}
	s.logger.Info("tour updated", zap.String("tour_id", tour.ID), zap.Int("version", tour.Version))
	return s.present(tour)
}

// Delete removes a tour.
func (s *TourService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return repoError(err, tourNotFound, tourDuplicate, "failed to delete tour")
	}
	s.cache.InvalidateTours(ctx)
	s.logger.Info("tour deleted", zap.String("tour_id", id))
	return nil
}

// Export renders the tours matched by params as CSV or PDF.
func (s *TourService) Export(ctx context.Context, params url.Values, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportCSV
	}
	if format != ExportCSV && format != ExportPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	spec := query.New(repository.TourSchema, params, s.opts).Apply().Spec()
	headers := spec.Projection.Include
	if len(headers) == 0 {
		headers = exportColumns
	}

	tours, err := s.repo.List(ctx, spec)
	if err != nil {
		return nil, repoError(err, tourNotFound, tourDuplicate, "failed to list tours")
	}
	docs, err := query.Project(tours, query.Projection{Include: headers})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to project tours")
	}
	data := export.FromDocuments(headers, docs)

	stamp := s.now().UTC().Format("20060102-150405")
	file := &ExportFile{Filename: fmt.Sprintf("tours-%s.%s", stamp, format)}
	switch format {
	case ExportPDF:
		file.ContentType = s.pdf.ContentType()
		file.Data, err = s.pdf.Render(data, "Natours tours")
	default:
		file.ContentType = s.csv.ContentType()
		file.Data, err = s.csv.Render(data)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Info("tours exported", zap.String("format", format), zap.Int("rows", len(data.Rows)))
	return file, nil
}

func (s *TourService) save(ctx context.Context, tour *models.Tour, write func(context.Context, *models.Tour) error) error {
	validation.NormalizeTour(tour)
	if err := s.validator.Tour(tour); err != nil {
		return err
	}
	if err := write(ctx, tour); err != nil {
		return repoError(err, tourNotFound, tourDuplicate, "failed to save tour")
	}
	s.cache.InvalidateTours(ctx)
	return nil
}

func (s *TourService) present(tour *models.Tour) (map[string]interface{}, error) {
	doc, err := query.ProjectOne(tour, query.DefaultProjection(repository.TourSchema))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render tour")
	}
	return doc, nil
}

// TopCheapQuery overlays the top-5-cheap alias onto params: the five best rated
// tours, cheapest first among equals, with a short field list.
func TopCheapQuery(params url.Values) url.Values {
	out := url.Values{}
	for k, v := range params {
		out[k] = append([]string(nil), v...)
	}
	out.Set("limit", "5")
	out.Set("sort", "-ratingsAverage,price")
	out.Set("fields", "name,price,ratingsAverage,summary,difficulty")
	return out
}
