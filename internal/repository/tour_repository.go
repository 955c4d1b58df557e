package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/khoido2003/natour-api/internal/models"
	"github.com/khoido2003/natour-api/internal/query"
)

const tourColumns = `id, name, slug, duration, max_group_size, difficulty, ratings_average, ratings_quantity, price, price_discount, summary, description, image_cover, images, start_dates, secret_tour, start_location, locations, guides, created_at, updated_at, version`

// TourRepository provides database access for tours.
type TourRepository struct {
	db *sqlx.DB
}

// NewTourRepository creates a new instance of TourRepository.
func NewTourRepository(db *sqlx.DB) *TourRepository {
	return &TourRepository{db: db}
}

// List returns the page of tours described by spec.
func (r *TourRepository) List(ctx context.Context, spec query.Spec) ([]models.Tour, error) {
	stmt := query.Render(spec, TourSchema)
	tours := []models.Tour{}
	if err := r.db.SelectContext(ctx, &tours, stmt.SelectSQL, stmt.SelectArgs...); err != nil {
		return nil, translate("list tours", err)
	}
	for i := range tours {
		tours[i].ComputeVirtuals()
	}
	return tours, nil
}

// Count returns how many tours match spec regardless of paging.
func (r *TourRepository) Count(ctx context.Context, spec query.Spec) (int, error) {
	stmt := query.Render(spec, TourSchema)
	var total int
	if err := r.db.GetContext(ctx, &total, stmt.CountSQL, stmt.CountArgs...); err != nil {
		return 0, translate("count tours", err)
	}
	return total, nil
}

// FindByID returns a tour by identifier. Secret tours are only returned when includeSecret is set.
func (r *TourRepository) FindByID(ctx context.Context, id string, includeSecret bool) (*models.Tour, error) {
	q := `SELECT ` + tourColumns + ` FROM tours WHERE id::text = $1`
	if !includeSecret {
		q += ` AND secret_tour IS DISTINCT FROM TRUE`
	}
	q += ` LIMIT 1`

	var tour models.Tour
	if err := r.db.GetContext(ctx, &tour, q, id); err != nil {
		return nil, translate("find tour by id", err)
	}
	tour.ComputeVirtuals()
	return &tour, nil
}

// Create inserts a new tour.
func (r *TourRepository) Create(ctx context.Context, tour *models.Tour) error {
	if tour.ID == "" {
		tour.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if tour.CreatedAt.IsZero() {
		tour.CreatedAt = now
	}
	tour.UpdatedAt = now
	tour.Version = 0

	const q = `INSERT INTO tours (` + tourColumns + `) VALUES (:id, :name, :slug, :duration, :max_group_size, :difficulty, :ratings_average, :ratings_quantity, :price, :price_discount, :summary, :description, :image_cover, :images, :start_dates, :secret_tour, :start_location, :locations, :guides, :created_at, :updated_at, :version)`
	if _, err := r.db.NamedExecContext(ctx, q, tour); err != nil {
		return translate("create tour", err)
	}
	tour.ComputeVirtuals()
	return nil
}

// Update overwrites the mutable fields of a tour and bumps its version.
func (r *TourRepository) Update(ctx context.Context, tour *models.Tour) error {
	tour.UpdatedAt = time.Now().UTC()

	const q = `UPDATE tours SET name = :name, slug = :slug, duration = :duration, max_group_size = :max_group_size, difficulty = :difficulty, ratings_average = :ratings_average, ratings_quantity = :ratings_quantity, price = :price, price_discount = :price_discount, summary = :summary, description = :description, image_cover = :image_cover, images = :images, start_dates = :start_dates, secret_tour = :secret_tour, start_location = :start_location, locations = :locations, guides = :guides, updated_at = :updated_at, version = version + 1 WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, q, tour)
	if err != nil {
		return translate("update tour", err)
	}
	if err := expectAffected(res); err != nil {
		return translate("update tour", err)
	}
	tour.Version++
	tour.ComputeVirtuals()
	return nil
}

// Delete removes a tour permanently.
func (r *TourRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tours WHERE id::text = $1`, id)
	if err != nil {
		return translate("delete tour", err)
	}
	return translate("delete tour", expectAffected(res))
}
