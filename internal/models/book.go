package models

import "time"

// BookData is one normalized record extracted from a catalog page.
// These are the comparable fields that participate in fingerprinting
// and change detection.
type BookData struct {
	RemoteBookID      string
	SourceURL         string
	Title             string
	Description       string
	Category          string
	Price             float64
	PriceIncludingTax float64
	PriceExcludingTax float64
	InStock           bool
	ReviewsCount      int
	Rating            float64
	CoverImage        string
	Extra             map[string]string // extension fields not known at compile time
}

// Book is a stored catalog record. RemoteBookID (with SourceURL as a
// fallback) is the natural key used to match incoming data.
type Book struct {
	BookData

	ID          int64
	ContentHash string // digest of the comparable fields; must be recomputed on every field update
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastCrawlAt time.Time
}

// ComparableFields returns the field name -> value mapping used for
// fingerprinting and diffing. Extension fields are included under their
// own names.
func (b BookData) ComparableFields() map[string]any {
	fields := map[string]any{
		"title":               b.Title,
		"description":         b.Description,
		"category":            b.Category,
		"price":               b.Price,
		"price_including_tax": b.PriceIncludingTax,
		"price_excluding_tax": b.PriceExcludingTax,
		"in_stock":            b.InStock,
		"reviews_count":       b.ReviewsCount,
		"rating":              b.Rating,
		"cover_image":         b.CoverImage,
	}
	for name, value := range b.Extra {
		fields[name] = value
	}

	return fields
}
