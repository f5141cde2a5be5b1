package engine

import (
	"context"

	"github.com/runwaylabs/runway/pkg/catalog"
)

// MetadataKey is the resource metadata field carrying the idempotency key.
// It is written at creation time and is the only durable link between a
// planning run and previously created remote resources.
const MetadataKey = "bootstrap_key"

// MetadataProjectID is the resource metadata field carrying the project ID.
const MetadataProjectID = "project_id"

// RequiredWebhookEvents is the fixed event set the bootstrap webhook
// endpoint subscribes to.
var RequiredWebhookEvents = []string{
	"customer.subscription.created",
	"customer.subscription.updated",
	"customer.subscription.deleted",
	"invoice.payment_succeeded",
	"invoice.payment_failed",
}

// RemoteProduct mirrors a remote billing product.
type RemoteProduct struct {
	ID          string
	Name        string
	Description string
	Active      bool
	Metadata    map[string]string
}

// RemotePrice mirrors a remote billing price. Prices are immutable once
// created; a changed definition is always a new price.
type RemotePrice struct {
	ID            string
	ProductID     string
	Amount        int64
	Currency      string
	Interval      catalog.Interval
	IntervalCount int64
	Active        bool
	Metadata      map[string]string
}

// RemoteWebhookEndpoint mirrors a remote webhook endpoint. Secret is only
// populated on the create response.
type RemoteWebhookEndpoint struct {
	ID            string
	URL           string
	EnabledEvents []string
	Secret        string
	Metadata      map[string]string
}

// ProductInput is the payload for product create and update calls.
type ProductInput struct {
	Name        string
	Description string
	Metadata    map[string]string
}

// PriceInput is the payload for price create calls.
type PriceInput struct {
	ProductID     string
	Amount        int64
	Currency      string
	Interval      catalog.Interval
	IntervalCount int64
	Metadata      map[string]string
}

// WebhookEndpointInput is the payload for webhook endpoint create and
// update calls.
type WebhookEndpointInput struct {
	URL           string
	EnabledEvents []string
	Metadata      map[string]string
}

// BillingClient is the capability surface the engine consumes. List calls
// feed plan building; create and update calls are only issued by the
// executor. Cross-run deduplication happens through provider-side
// idempotency-key metadata, never through in-process state.
type BillingClient interface {
	// ListProducts returns all products, including archived ones.
	ListProducts(ctx context.Context) ([]RemoteProduct, error)

	// CreateProduct creates a product carrying the input metadata.
	CreateProduct(ctx context.Context, input ProductInput) (RemoteProduct, error)

	// UpdateProduct updates mutable product fields.
	UpdateProduct(ctx context.Context, id string, input ProductInput) (RemoteProduct, error)

	// ListPrices returns all prices.
	ListPrices(ctx context.Context) ([]RemotePrice, error)

	// CreatePrice creates a price. There is no price update call.
	CreatePrice(ctx context.Context, input PriceInput) (RemotePrice, error)

	// ListWebhookEndpoints returns all webhook endpoints.
	ListWebhookEndpoints(ctx context.Context) ([]RemoteWebhookEndpoint, error)

	// CreateWebhookEndpoint creates an endpoint. The response carries the
	// signing secret.
	CreateWebhookEndpoint(ctx context.Context, input WebhookEndpointInput) (RemoteWebhookEndpoint, error)

	// UpdateWebhookEndpoint updates an endpoint's enabled events.
	UpdateWebhookEndpoint(ctx context.Context, id string, input WebhookEndpointInput) (RemoteWebhookEndpoint, error)
}

// snapshot is the remote state read once per run. Plan building is a pure
// function of (desired catalog, snapshot).
type snapshot struct {
	products  []RemoteProduct
	prices    []RemotePrice
	endpoints []RemoteWebhookEndpoint
}
