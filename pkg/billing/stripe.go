// Package billing implements the engine's BillingClient capability surface
// on top of the Stripe API. All provider-specific shapes and error codes
// stay inside this package; the engine only sees provider-neutral types.
package billing

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"github.com/runwaylabs/runway/pkg/catalog"
	"github.com/runwaylabs/runway/pkg/engine"
)

// Config configures the Stripe-backed client.
type Config struct {
	// APIKey is the Stripe secret key.
	APIKey string

	// MaxRetries bounds retries of transient failures per call.
	MaxRetries int

	// RetryDelay is the backoff base delay for the first retry.
	RetryDelay time.Duration

	// Logger is the parent logger.
	Logger zerolog.Logger
}

// StripeClient implements engine.BillingClient against the Stripe API.
type StripeClient struct {
	api     *client.API
	retrier retrier
	logger  zerolog.Logger
}

var _ engine.BillingClient = (*StripeClient)(nil)

// NewStripeClient creates a client authenticated with the given secret key.
func NewStripeClient(cfg Config) *StripeClient {
	api := &client.API{}
	api.Init(cfg.APIKey, nil)

	return &StripeClient{
		api:     api,
		retrier: newRetrier(cfg.MaxRetries, cfg.RetryDelay),
		logger:  cfg.Logger.With().Str("component", "stripe").Logger(),
	}
}

func (c *StripeClient) ListProducts(ctx context.Context) ([]engine.RemoteProduct, error) {
	var products []engine.RemoteProduct
	err := c.retrier.do(ctx, c.logger, "list products", func() error {
		products = products[:0]
		iter := c.api.Products.List(&stripe.ProductListParams{
			ListParams: stripe.ListParams{Context: ctx},
		})
		for iter.Next() {
			products = append(products, productFromStripe(iter.Product()))
		}
		return classify(iter.Err())
	})
	return products, err
}

func (c *StripeClient) CreateProduct(ctx context.Context, input engine.ProductInput) (engine.RemoteProduct, error) {
	params := &stripe.ProductParams{
		Params: stripe.Params{Context: ctx, Metadata: input.Metadata},
		Name:   stripe.String(input.Name),
	}
	if input.Description != "" {
		params.Description = stripe.String(input.Description)
	}

	var product engine.RemoteProduct
	err := c.retrier.do(ctx, c.logger, "create product", func() error {
		created, err := c.api.Products.New(params)
		if err != nil {
			return classify(err)
		}
		product = productFromStripe(created)
		return nil
	})
	return product, err
}

func (c *StripeClient) UpdateProduct(ctx context.Context, id string, input engine.ProductInput) (engine.RemoteProduct, error) {
	params := &stripe.ProductParams{
		Params: stripe.Params{Context: ctx, Metadata: input.Metadata},
		Name:   stripe.String(input.Name),
	}
	if input.Description != "" {
		params.Description = stripe.String(input.Description)
	}

	var product engine.RemoteProduct
	err := c.retrier.do(ctx, c.logger, "update product", func() error {
		updated, err := c.api.Products.Update(id, params)
		if err != nil {
			return classify(err)
		}
		product = productFromStripe(updated)
		return nil
	})
	return product, err
}

func (c *StripeClient) ListPrices(ctx context.Context) ([]engine.RemotePrice, error) {
	var prices []engine.RemotePrice
	err := c.retrier.do(ctx, c.logger, "list prices", func() error {
		prices = prices[:0]
		iter := c.api.Prices.List(&stripe.PriceListParams{
			ListParams: stripe.ListParams{Context: ctx},
		})
		for iter.Next() {
			prices = append(prices, priceFromStripe(iter.Price()))
		}
		return classify(iter.Err())
	})
	return prices, err
}

func (c *StripeClient) CreatePrice(ctx context.Context, input engine.PriceInput) (engine.RemotePrice, error) {
	params := &stripe.PriceParams{
		Params:     stripe.Params{Context: ctx, Metadata: input.Metadata},
		Product:    stripe.String(input.ProductID),
		Currency:   stripe.String(input.Currency),
		UnitAmount: stripe.Int64(input.Amount),
	}
	if input.Interval != catalog.IntervalNone {
		params.Recurring = &stripe.PriceRecurringParams{
			Interval:      stripe.String(string(input.Interval)),
			IntervalCount: stripe.Int64(input.IntervalCount),
		}
	}

	var price engine.RemotePrice
	err := c.retrier.do(ctx, c.logger, "create price", func() error {
		created, err := c.api.Prices.New(params)
		if err != nil {
			return classify(err)
		}
		price = priceFromStripe(created)
		return nil
	})
	return price, err
}

func (c *StripeClient) ListWebhookEndpoints(ctx context.Context) ([]engine.RemoteWebhookEndpoint, error) {
	var endpoints []engine.RemoteWebhookEndpoint
	err := c.retrier.do(ctx, c.logger, "list webhook endpoints", func() error {
		endpoints = endpoints[:0]
		iter := c.api.WebhookEndpoints.List(&stripe.WebhookEndpointListParams{
			ListParams: stripe.ListParams{Context: ctx},
		})
		for iter.Next() {
			endpoints = append(endpoints, endpointFromStripe(iter.WebhookEndpoint()))
		}
		return classify(iter.Err())
	})
	return endpoints, err
}

func (c *StripeClient) CreateWebhookEndpoint(ctx context.Context, input engine.WebhookEndpointInput) (engine.RemoteWebhookEndpoint, error) {
	params := &stripe.WebhookEndpointParams{
		Params:        stripe.Params{Context: ctx, Metadata: input.Metadata},
		URL:           stripe.String(input.URL),
		EnabledEvents: stripe.StringSlice(input.EnabledEvents),
	}

	var endpoint engine.RemoteWebhookEndpoint
	err := c.retrier.do(ctx, c.logger, "create webhook endpoint", func() error {
		created, err := c.api.WebhookEndpoints.New(params)
		if err != nil {
			return classify(err)
		}
		endpoint = endpointFromStripe(created)
		return nil
	})
	return endpoint, err
}

func (c *StripeClient) UpdateWebhookEndpoint(ctx context.Context, id string, input engine.WebhookEndpointInput) (engine.RemoteWebhookEndpoint, error) {
	params := &stripe.WebhookEndpointParams{
		Params:        stripe.Params{Context: ctx, Metadata: input.Metadata},
		EnabledEvents: stripe.StringSlice(input.EnabledEvents),
	}

	var endpoint engine.RemoteWebhookEndpoint
	err := c.retrier.do(ctx, c.logger, "update webhook endpoint", func() error {
		updated, err := c.api.WebhookEndpoints.Update(id, params)
		if err != nil {
			return classify(err)
		}
		endpoint = endpointFromStripe(updated)
		return nil
	})
	return endpoint, err
}

func productFromStripe(p *stripe.Product) engine.RemoteProduct {
	return engine.RemoteProduct{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Active:      p.Active,
		Metadata:    p.Metadata,
	}
}

func priceFromStripe(p *stripe.Price) engine.RemotePrice {
	price := engine.RemotePrice{
		ID:       p.ID,
		Amount:   p.UnitAmount,
		Currency: string(p.Currency),
		Active:   p.Active,
		Metadata: p.Metadata,
	}
	if p.Product != nil {
		price.ProductID = p.Product.ID
	}
	if p.Recurring != nil {
		price.Interval = catalog.Interval(p.Recurring.Interval)
		price.IntervalCount = p.Recurring.IntervalCount
	}
	return price
}

func endpointFromStripe(e *stripe.WebhookEndpoint) engine.RemoteWebhookEndpoint {
	return engine.RemoteWebhookEndpoint{
		ID:            e.ID,
		URL:           e.URL,
		EnabledEvents: e.EnabledEvents,
		Secret:        e.Secret,
		Metadata:      e.Metadata,
	}
}

// classify maps Stripe API failures onto the engine's error classes so
// the retrier and the executor's abort logic can act on them.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch {
		case stripeErr.HTTPStatusCode == 429:
			return engine.NewThrottledError("stripe rate limit", err)
		case stripeErr.HTTPStatusCode >= 500:
			return engine.NewTransientError("stripe server error", err)
		default:
			return engine.NewPermanentError("stripe rejected the request", err)
		}
	}

	// Anything that never reached the API (DNS, timeouts) is transient.
	return engine.NewTransientError("stripe request failed", err)
}
