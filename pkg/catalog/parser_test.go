package catalog

import (
	"errors"
	"strings"
	"testing"
)

func TestParseStructured(t *testing.T) {
	input := `[
		{"name": "Founders", "description": "Early adopter plan", "prices": [
			{"amount": 2500, "currency": "usd", "interval": "month"}
		]},
		{"name": "Scale", "prices": [
			{"amount": 4900, "currency": "USD", "interval": "month", "intervalCount": 3},
			{"amount": 49900, "currency": "usd"}
		]}
	]`

	products, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}

	founders := products[0]
	if founders.Name != "Founders" || founders.Description != "Early adopter plan" {
		t.Errorf("unexpected first product: %+v", founders)
	}
	if got := founders.Prices[0]; got.Amount != 2500 || got.Currency != "usd" || got.Interval != IntervalMonth || got.IntervalCount != 1 {
		t.Errorf("interval count not defaulted to 1: %+v", got)
	}

	scale := products[1]
	if len(scale.Prices) != 2 {
		t.Fatalf("expected 2 prices for Scale, got %d", len(scale.Prices))
	}
	if scale.Prices[0].Currency != "usd" {
		t.Errorf("currency not lowercased: %q", scale.Prices[0].Currency)
	}
	if scale.Prices[0].IntervalCount != 3 {
		t.Errorf("explicit interval count overwritten: %d", scale.Prices[0].IntervalCount)
	}
	if scale.Prices[1].Recurring() || scale.Prices[1].IntervalCount != 0 {
		t.Errorf("one-time price should have no interval: %+v", scale.Prices[1])
	}
}

func TestParseStructuredRejectsNonArray(t *testing.T) {
	// Valid JSON that is not an array of products must fail as structured
	// input, never fall back to the legacy grammar.
	cases := []string{
		`{"name": "Founders"}`,
		`"Founders:2500,usd,month"`,
		`42`,
	}
	for _, input := range cases {
		if _, err := Parse(input); err == nil {
			t.Errorf("expected error for %q", input)
		} else if !strings.Contains(err.Error(), "structured") {
			t.Errorf("expected structured-form error for %q, got: %v", input, err)
		}
	}
}

func TestParseStructuredValidation(t *testing.T) {
	cases := map[string]string{
		"missing name":     `[{"prices": [{"amount": 100, "currency": "usd"}]}]`,
		"missing prices":   `[{"name": "Founders"}]`,
		"zero amount":      `[{"name": "Founders", "prices": [{"amount": 0, "currency": "usd"}]}]`,
		"bad currency":     `[{"name": "Founders", "prices": [{"amount": 100, "currency": "dollars"}]}]`,
		"bad interval":     `[{"name": "Founders", "prices": [{"amount": 100, "currency": "usd", "interval": "quarterly"}]}]`,
		"duplicate names":  `[{"name": "F", "prices": [{"amount": 1, "currency": "usd"}]}, {"name": "F", "prices": [{"amount": 2, "currency": "usd"}]}]`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse(input); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestParseLegacy(t *testing.T) {
	products, err := Parse("Founders:2500,usd,month;Scale:4900,usd,month")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	if products[0].Name != "Founders" || products[1].Name != "Scale" {
		t.Errorf("unexpected product names: %q, %q", products[0].Name, products[1].Name)
	}

	for i, want := range []int64{2500, 4900} {
		prices := products[i].Prices
		if len(prices) != 1 {
			t.Fatalf("expected 1 price for %s, got %d", products[i].Name, len(prices))
		}
		p := prices[0]
		if p.Amount != want || p.Currency != "usd" || p.Interval != IntervalMonth || p.IntervalCount != 1 {
			t.Errorf("unexpected price for %s: %+v", products[i].Name, p)
		}
	}
}

func TestParseLegacyWhitespace(t *testing.T) {
	products, err := Parse("  Founders : 2500 , usd , month ;  Scale:9900,eur  ")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if products[0].Name != "Founders" {
		t.Errorf("whitespace not trimmed from name: %q", products[0].Name)
	}
	if products[0].Prices[0].Amount != 2500 || products[0].Prices[0].Interval != IntervalMonth {
		t.Errorf("whitespace broke price parsing: %+v", products[0].Prices[0])
	}
	if products[1].Prices[0].Recurring() {
		t.Errorf("omitted interval should yield a one-time price")
	}
}

func TestParseLegacyErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"missing amount", "BadProduct:,usd,month", "Invalid price format"},
		{"non-numeric amount", "BadProduct:notanumber,usd,month", "not a number"},
		{"bad interval", "BadProduct:1000,usd,quarterly", "Invalid interval"},
		{"missing currency", "BadProduct:1000", "Invalid price format"},
		{"no price spec", "BadProduct", "Invalid price format"},
		{"too many fields", "BadProduct:1000,usd,month,extra", "Invalid price format"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.input)
			if err == nil {
				t.Fatalf("expected error for %q", tc.input)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not contain %q", err.Error(), tc.want)
			}
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Errorf("expected *ParseError, got %T", err)
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	for _, input := range []string{"", "   ", ";;"} {
		if _, err := Parse(input); err == nil {
			t.Errorf("expected error for empty input %q", input)
		}
	}
}

func TestPriceEqual(t *testing.T) {
	base := Price{Amount: 1999, Currency: "usd", Interval: IntervalMonth, IntervalCount: 1}
	if !base.Equal(base) {
		t.Error("price should equal itself")
	}
	variants := []Price{
		{Amount: 2999, Currency: "usd", Interval: IntervalMonth, IntervalCount: 1},
		{Amount: 1999, Currency: "eur", Interval: IntervalMonth, IntervalCount: 1},
		{Amount: 1999, Currency: "usd", Interval: IntervalYear, IntervalCount: 1},
		{Amount: 1999, Currency: "usd", Interval: IntervalMonth, IntervalCount: 3},
	}
	for _, v := range variants {
		if base.Equal(v) {
			t.Errorf("price %+v should not equal %+v", base, v)
		}
	}
}
