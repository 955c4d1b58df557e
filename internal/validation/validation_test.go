package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoido2003/natour-api/internal/models"
	appErrors "github.com/khoido2003/natour-api/pkg/errors"
)

func validTour() *models.Tour {
	return &models.Tour{
		Name:           "  The Forest Hiker ",
		Duration:       5,
		MaxGroupSize:   25,
		Difficulty:     models.DifficultyEasy,
		RatingsAverage: 4.6666,
		Price:          397,
		Summary:        " Breathtaking hike through the Canadian Banff National Park ",
		ImageCover:     "tour-1-cover.jpg",
	}
}

func floatPtr(f float64) *float64 { return &f }

func TestNormalizeTour(t *testing.T) {
	tour := validTour()
	NormalizeTour(tour)

	assert.Equal(t, "The Forest Hiker", tour.Name)
	assert.Equal(t, "the-forest-hiker", tour.Slug)
	assert.Equal(t, 4.7, tour.RatingsAverage)
	assert.Equal(t, "Breathtaking hike through the Canadian Banff National Park", tour.Summary)
	assert.NotNil(t, tour.Images)
}

func TestNormalizeTourPointDefaults(t *testing.T) {
	tour := validTour()
	tour.StartLocation = models.GeoPoint{Coordinates: []float64{-80.18, 25.77}}
	tour.Locations = models.Locations{{Coordinates: []float64{-80.12, 25.79}, Day: 1}}
	NormalizeTour(tour)

	assert.Equal(t, "Point", tour.StartLocation.Type)
	assert.Equal(t, "Point", tour.Locations[0].Type)
}

func TestRoundRating(t *testing.T) {
	assert.Equal(t, 4.5, RoundRating(4.45))
	assert.Equal(t, 3.3, RoundRating(3.333))
	assert.Equal(t, 5.0, RoundRating(5))
}

func TestDiscountBelowPrice(t *testing.T) {
	assert.True(t, DiscountBelowPrice(100, nil))
	assert.True(t, DiscountBelowPrice(100, floatPtr(99)))
	assert.False(t, DiscountBelowPrice(100, floatPtr(100)))
	assert.False(t, DiscountBelowPrice(100, floatPtr(150)))
}

func TestTourValid(t *testing.T) {
	v := New()
	tour := validTour()
	NormalizeTour(tour)

	assert.NoError(t, v.Tour(tour))
}

func TestTourDiscountAbovePrice(t *testing.T) {
	v := New()
	tour := validTour()
	tour.PriceDiscount = floatPtr(500)
	NormalizeTour(tour)

	err := v.Tour(tour)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	appErr := appErrors.FromError(err)
	details, ok := appErr.Details.([]FieldError)
	require.True(t, ok)
	require.Len(t, details, 1)
	assert.Equal(t, "priceDiscount", details[0].Field)
	assert.Equal(t, "discount_below_price", details[0].Rule)
}

func TestTourFieldRules(t *testing.T) {
	v := New()
	tour := validTour()
	tour.Name = "Short"
	tour.Difficulty = "extreme"
	tour.RatingsAverage = 6
	NormalizeTour(tour)

	err := v.Tour(tour)
	require.Error(t, err)
	details := appErrors.FromError(err).Details.([]FieldError)

	fields := map[string]string{}
	for _, d := range details {
		fields[d.Field] = d.Rule
	}
	assert.Equal(t, "min", fields["name"])
	assert.Equal(t, "difficulty", fields["difficulty"])
	assert.Equal(t, "lte", fields["ratingsAverage"])
}

func TestNormalizeUser(t *testing.T) {
	user := &models.User{Name: " Jonas ", Email: "  Jonas@Example.COM "}
	NormalizeUser(user)

	assert.Equal(t, "Jonas", user.Name)
	assert.Equal(t, "jonas@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, models.DefaultPhoto, user.Photo)
}

func TestUserRules(t *testing.T) {
	v := New()

	user := &models.User{Name: "Jonas", Email: "jonas@example.com", Role: models.RoleUser, Password: "pass1234", PasswordConfirm: "pass1234"}
	assert.NoError(t, v.User(user))

	user.PasswordConfirm = "pass12345"
	assert.ErrorIs(t, v.User(user), appErrors.ErrValidation)

	user.PasswordConfirm = "pass1234"
	user.Role = "superuser"
	assert.ErrorIs(t, v.User(user), appErrors.ErrValidation)

	user.Role = models.RoleAdmin
	user.Email = "not-an-email"
	assert.ErrorIs(t, v.User(user), appErrors.ErrValidation)

	user.Email = "jonas@example.com"
	user.Password, user.PasswordConfirm = "short", "short"
	assert.ErrorIs(t, v.User(user), appErrors.ErrValidation)
}

func TestUserWithoutPasswordChange(t *testing.T) {
	v := New()
	user := &models.User{Name: "Jonas", Email: "jonas@example.com", Role: models.RoleGuide, PasswordHash: "hash"}
	assert.NoError(t, v.User(user))
}
