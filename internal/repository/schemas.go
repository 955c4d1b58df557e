package repository

import "github.com/khoido2003/natour-api/internal/query"

// TourSchema maps tour JSON fields onto the tours table. Secret tours are
// scoped out of every read unless the caller asks for everything.
var TourSchema = query.Schema{
	Table: "tours",
	Fields: []query.Field{
		{Name: "id", Column: "id", Kind: query.KindText},
		{Name: "name", Column: "name", Kind: query.KindText},
		{Name: "slug", Column: "slug", Kind: query.KindText},
		{Name: "duration", Column: "duration", Kind: query.KindInteger},
		{Name: "maxGroupSize", Column: "max_group_size", Kind: query.KindInteger},
		{Name: "difficulty", Column: "difficulty", Kind: query.KindText},
		{Name: "ratingsAverage", Column: "ratings_average", Kind: query.KindNumeric},
		{Name: "ratingsQuantity", Column: "ratings_quantity", Kind: query.KindInteger},
		{Name: "price", Column: "price", Kind: query.KindNumeric},
		{Name: "priceDiscount", Column: "price_discount", Kind: query.KindNumeric},
		{Name: "summary", Column: "summary", Kind: query.KindText},
		{Name: "description", Column: "description", Kind: query.KindText},
		{Name: "imageCover", Column: "image_cover", Kind: query.KindText},
		{Name: "images", Column: "images", Kind: query.KindTextArray},
		{Name: "startDates", Column: "start_dates", Kind: query.KindJSON},
		{Name: "secretTour", Column: "secret_tour", Kind: query.KindBool},
		{Name: "startLocation", Column: "start_location", Kind: query.KindJSON},
		{Name: "locations", Column: "locations", Kind: query.KindJSON},
		{Name: "guides", Column: "guides", Kind: query.KindTextArray},
		{Name: "createdAt", Column: "created_at", Kind: query.KindTime, Hidden: true},
		{Name: "updatedAt", Column: "updated_at", Kind: query.KindTime},
		{Name: "version", Column: "version", Kind: query.KindInteger},
	},
	VersionField: "version",
	DefaultSort:  []query.SortField{{Field: "createdAt", Desc: true}},
	Scope:        []query.Predicate{{Field: "secretTour", Op: query.OpNe, Values: []string{"true"}}},
}

// UserSchema maps user JSON fields onto the users table. Credentials and the
// active flag are hidden; deactivated users are scoped out.
var UserSchema = query.Schema{
	Table: "users",
	Fields: []query.Field{
		{Name: "id", Column: "id", Kind: query.KindText},
		{Name: "name", Column: "name", Kind: query.KindText},
		{Name: "email", Column: "email", Kind: query.KindText},
		{Name: "photo", Column: "photo", Kind: query.KindText},
		{Name: "role", Column: "role", Kind: query.KindText},
		{Name: "passwordHash", Column: "password_hash", Kind: query.KindText, Hidden: true},
		{Name: "passwordChangedAt", Column: "password_changed_at", Kind: query.KindTime},
		{Name: "passwordResetToken", Column: "password_reset_token", Kind: query.KindText, Hidden: true},
		{Name: "passwordResetExpires", Column: "password_reset_expires", Kind: query.KindTime, Hidden: true},
		{Name: "active", Column: "active", Kind: query.KindBool, Hidden: true},
		{Name: "createdAt", Column: "created_at", Kind: query.KindTime},
		{Name: "updatedAt", Column: "updated_at", Kind: query.KindTime},
		{Name: "version", Column: "version", Kind: query.KindInteger},
	},
	VersionField: "version",
	DefaultSort:  []query.SortField{{Field: "createdAt", Desc: true}},
	Scope:        []query.Predicate{{Field: "active", Op: query.OpEq, Values: []string{"true"}}},
}
