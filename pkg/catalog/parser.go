package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ParseError describes a malformed desired-state document. It is raised
// before any provider call is made.
type ParseError struct {
	// Form is the grammar that rejected the input ("structured" or "legacy").
	Form string

	// Entry is the offending entry or field, when known.
	Entry string

	// Message is the human-readable reason.
	Message string
}

func (e *ParseError) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("%s config: %s: %s", e.Form, e.Entry, e.Message)
	}
	return fmt.Sprintf("%s config: %s", e.Form, e.Message)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Parse converts a desired-state document into an ordered product list.
//
// Two grammars are supported. If the input is syntactically valid JSON it
// must be a JSON array of product objects (the structured form); any other
// valid JSON is a structured-form validation failure and is never downgraded
// to the legacy grammar. Only inputs that fail JSON parsing outright fall
// through to the legacy tokenizer:
//
//	Name:amount,currency[,interval];Name:amount,currency[,interval]
//
// Whitespace around every delimiter is trimmed. Both paths converge on the
// same []Product so downstream code never branches on the input format.
func Parse(input string) ([]Product, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, &ParseError{Form: "structured", Message: "empty product configuration"}
	}

	if json.Valid([]byte(trimmed)) {
		return parseStructured(trimmed)
	}
	return parseLegacy(trimmed)
}

func parseStructured(input string) ([]Product, error) {
	var products []Product
	if err := json.Unmarshal([]byte(input), &products); err != nil {
		return nil, &ParseError{
			Form:    "structured",
			Message: fmt.Sprintf("expected a JSON array of products: %v", err),
		}
	}

	for i := range products {
		normalize(&products[i])
		if err := validate.Struct(&products[i]); err != nil {
			return nil, &ParseError{
				Form:    "structured",
				Entry:   products[i].Name,
				Message: err.Error(),
			}
		}
	}

	if err := checkUnique("structured", products); err != nil {
		return nil, err
	}
	return products, nil
}

func parseLegacy(input string) ([]Product, error) {
	var products []Product

	for _, entry := range strings.Split(input, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name, priceSpec, ok := strings.Cut(entry, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, &ParseError{
				Form:    "legacy",
				Entry:   entry,
				Message: "Invalid price format, expected Name:amount,currency[,interval]",
			}
		}

		price, err := parseLegacyPrice(name, strings.TrimSpace(priceSpec))
		if err != nil {
			return nil, err
		}

		products = append(products, Product{
			Name:   name,
			Prices: []Price{price},
		})
	}

	if len(products) == 0 {
		return nil, &ParseError{Form: "legacy", Message: "no product entries found"}
	}
	if err := checkUnique("legacy", products); err != nil {
		return nil, err
	}
	return products, nil
}

func parseLegacyPrice(name, spec string) (Price, error) {
	parts := strings.Split(spec, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Price{}, &ParseError{
			Form:    "legacy",
			Entry:   name,
			Message: "Invalid price format, expected amount,currency[,interval]",
		}
	}
	if len(parts) > 3 {
		return Price{}, &ParseError{
			Form:    "legacy",
			Entry:   name,
			Message: fmt.Sprintf("Invalid price format, too many fields in %q", spec),
		}
	}

	amount, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Price{}, &ParseError{
			Form:    "legacy",
			Entry:   name,
			Message: fmt.Sprintf("price amount %q is not a number", parts[0]),
		}
	}
	if amount <= 0 {
		return Price{}, &ParseError{
			Form:    "legacy",
			Entry:   name,
			Message: fmt.Sprintf("price amount must be positive, got %d", amount),
		}
	}

	price := Price{
		Amount:   amount,
		Currency: strings.ToLower(parts[1]),
	}

	if len(parts) == 3 && parts[2] != "" {
		interval := Interval(strings.ToLower(parts[2]))
		if !interval.Valid() || interval == IntervalNone {
			return Price{}, &ParseError{
				Form:    "legacy",
				Entry:   name,
				Message: fmt.Sprintf("Invalid interval %q, expected day, week, month, or year", parts[2]),
			}
		}
		price.Interval = interval
	}

	normalizePrice(&price)
	return price, nil
}

// normalize applies defaulting rules after either parse path.
func normalize(p *Product) {
	for i := range p.Prices {
		p.Prices[i].Currency = strings.ToLower(p.Prices[i].Currency)
		normalizePrice(&p.Prices[i])
	}
}

func normalizePrice(p *Price) {
	if p.Recurring() && p.IntervalCount == 0 {
		p.IntervalCount = 1
	}
	if !p.Recurring() {
		p.IntervalCount = 0
	}
}

func checkUnique(form string, products []Product) error {
	seen := make(map[string]bool, len(products))
	for _, p := range products {
		if seen[p.Name] {
			return &ParseError{
				Form:    form,
				Entry:   p.Name,
				Message: "duplicate product name",
			}
		}
		seen[p.Name] = true
	}
	return nil
}
