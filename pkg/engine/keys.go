package engine

import (
	"fmt"

	"github.com/runwaylabs/runway/pkg/catalog"
)

// Idempotency keys are deterministic strings written into provider-side
// resource metadata at creation time and read back on every subsequent
// run. Key stability across runs is what makes reconciliation idempotent
// without any local state store.

// ProductKey derives the idempotency key for a desired product.
func ProductKey(projectID, productName string) string {
	return fmt.Sprintf("bootstrap:%s:%s", projectID, productName)
}

// PriceKey derives the idempotency key for a desired price. Every field of
// the price identity tuple participates, so a changed definition derives a
// different key.
func PriceKey(projectID, productName string, price catalog.Price) string {
	return fmt.Sprintf("bootstrap:%s:%s:price:%d:%s:%s:%d",
		projectID, productName, price.Amount, price.Currency, price.Interval, price.IntervalCount)
}

// WebhookKey derives the idempotency key for the single bootstrap webhook
// endpoint of a project.
func WebhookKey(projectID string) string {
	return fmt.Sprintf("bootstrap:%s:webhook", projectID)
}

// taggedWith reports whether the metadata map carries the given
// idempotency key.
func taggedWith(metadata map[string]string, key string) bool {
	return metadata[MetadataKey] == key
}
