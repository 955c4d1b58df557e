package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Difficulty grades a tour.
type Difficulty string

// DefaultRatingsAverage is the rating of a tour nobody has reviewed yet.
const DefaultRatingsAverage = 4.5

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyDifficult Difficulty = "difficult"
)

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyDifficult:
		return true
	}
	return false
}

// GeoPoint is a GeoJSON point with presentation metadata, stored as jsonb.
type GeoPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
	Address     string    `json:"address,omitempty"`
	Description string    `json:"description,omitempty"`
	Day         int       `json:"day,omitempty"`
}

// IsZero reports whether no coordinates were set.
func (g GeoPoint) IsZero() bool {
	return len(g.Coordinates) == 0 && g.Address == "" && g.Description == ""
}

// Value implements driver.Valuer.
func (g GeoPoint) Value() (driver.Value, error) {
	if g.IsZero() {
		return nil, nil
	}
	return json.Marshal(g)
}

// Scan implements sql.Scanner.
func (g *GeoPoint) Scan(src interface{}) error {
	return scanJSON(src, g)
}

// Locations is the ordered itinerary of a tour.
type Locations []GeoPoint

// Value implements driver.Valuer.
func (l Locations) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]GeoPoint(l))
}

// Scan implements sql.Scanner.
func (l *Locations) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// TimeList stores a list of timestamps as jsonb.
type TimeList []time.Time

// Value implements driver.Valuer.
func (t TimeList) Value() (driver.Value, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]time.Time(t))
}

// Scan implements sql.Scanner.
func (t *TimeList) Scan(src interface{}) error {
	return scanJSON(src, t)
}

func scanJSON(src interface{}, dest interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported jsonb source %T", src)
	}
}

// Tour is a bookable tour stored in the tours table.
type Tour struct {
	ID              string         `db:"id" json:"id"`
	Name            string         `db:"name" json:"name" validate:"required,min=10,max=40"`
	Slug            string         `db:"slug" json:"slug"`
	Duration        int            `db:"duration" json:"duration" validate:"required,gt=0"`
	MaxGroupSize    int            `db:"max_group_size" json:"maxGroupSize" validate:"required,gt=0"`
	Difficulty      Difficulty     `db:"difficulty" json:"difficulty" validate:"required,difficulty"`
	RatingsAverage  float64        `db:"ratings_average" json:"ratingsAverage" validate:"gte=1,lte=5"`
	RatingsQuantity int            `db:"ratings_quantity" json:"ratingsQuantity" validate:"gte=0"`
	Price           float64        `db:"price" json:"price" validate:"required,gt=0"`
	PriceDiscount   *float64       `db:"price_discount" json:"priceDiscount,omitempty" validate:"omitempty,gte=0"`
	Summary         string         `db:"summary" json:"summary" validate:"required"`
	Description     string         `db:"description" json:"description,omitempty"`
	ImageCover      string         `db:"image_cover" json:"imageCover" validate:"required"`
	Images          pq.StringArray `db:"images" json:"images"`
	StartDates      TimeList       `db:"start_dates" json:"startDates"`
	SecretTour      bool           `db:"secret_tour" json:"secretTour"`
	StartLocation   GeoPoint       `db:"start_location" json:"startLocation"`
	Locations       Locations      `db:"locations" json:"locations"`
	Guides          pq.StringArray `db:"guides" json:"guides" validate:"omitempty,dive,uuid"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updatedAt"`
	Version         int            `db:"version" json:"version"`
	DurationWeeks   float64        `db:"-" json:"durationWeeks"`
}

// ComputeVirtuals fills derived fields that are never stored.
func (t *Tour) ComputeVirtuals() {
	t.DurationWeeks = float64(t.Duration) / 7
}

// NewTourDraft returns a tour carrying the defaults applied before a create payload is decoded.
func NewTourDraft() *Tour {
	return &Tour{
		RatingsAverage: DefaultRatingsAverage,
		Images:         pq.StringArray{},
		Guides:         pq.StringArray{},
	}
}
