// Package catalog defines the desired-state model for billing resources:
// the products, prices, and webhook targets a deployment declares, parsed
// from either a structured JSON document or the legacy compact string form.
package catalog

// Interval is the recurring billing interval of a price.
// An empty interval means the price is one-time.
type Interval string

const (
	IntervalDay   Interval = "day"
	IntervalWeek  Interval = "week"
	IntervalMonth Interval = "month"
	IntervalYear  Interval = "year"

	// IntervalNone marks a one-time price.
	IntervalNone Interval = ""
)

// Valid reports whether the interval is one of the supported values.
func (i Interval) Valid() bool {
	switch i {
	case IntervalDay, IntervalWeek, IntervalMonth, IntervalYear, IntervalNone:
		return true
	default:
		return false
	}
}

// Product is a desired billing product. Identity is Name, case-sensitive
// and unique within a run.
type Product struct {
	// Name is the product name and its identity.
	Name string `json:"name" validate:"required"`

	// Description is an optional human-readable description.
	// Description drift on an existing remote product is ignored.
	Description string `json:"description,omitempty"`

	// Prices are the desired prices for this product, in declaration order.
	Prices []Price `json:"prices" validate:"required,min=1,dive"`
}

// Price is a desired price under a product. Identity is the full tuple
// (Amount, Currency, Interval, IntervalCount); changing any field yields a
// different price, never an in-place update.
type Price struct {
	// Amount is the price in minor currency units (e.g. cents).
	Amount int64 `json:"amount" validate:"required,gt=0"`

	// Currency is the lowercase ISO currency code.
	Currency string `json:"currency" validate:"required,len=3,lowercase"`

	// Interval is the recurring interval, empty for one-time prices.
	Interval Interval `json:"interval,omitempty" validate:"omitempty,oneof=day week month year"`

	// IntervalCount is the number of intervals between billings.
	// Defaults to 1 for recurring prices, 0 for one-time prices.
	IntervalCount int64 `json:"intervalCount,omitempty" validate:"gte=0"`
}

// Recurring reports whether the price bills on an interval.
func (p Price) Recurring() bool {
	return p.Interval != IntervalNone
}

// Equal reports whether two prices share the same identity tuple.
func (p Price) Equal(other Price) bool {
	return p.Amount == other.Amount &&
		p.Currency == other.Currency &&
		p.Interval == other.Interval &&
		p.IntervalCount == other.IntervalCount
}
