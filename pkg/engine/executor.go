package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/runwaylabs/runway/pkg/catalog"
)

// Dry-run placeholder identifiers, substituted so downstream formatting
// and persistence can proceed without real resource creation.
const (
	DryRunProductID     = "prod_dry_run_id"
	DryRunPriceID       = "price_dry_run_id"
	DryRunWebhookID     = "we_dry_run_id"
	DryRunWebhookSecret = "whsec_dry_run"
)

// Executor applies a reconciliation: it surveys the remote state, rebuilds
// the decisions the planner would make, and issues the mutating calls.
// Every created resource is tagged with its idempotency key and project ID
// so the next run's diff recognizes it.
type Executor struct {
	client BillingClient
	logger zerolog.Logger
}

// NewExecutor creates an executor over the given billing client.
func NewExecutor(client BillingClient, logger zerolog.Logger) *Executor {
	return &Executor{
		client: client,
		logger: logger.With().Str("component", "executor").Logger(),
	}
}

// Execute reconciles desired state against the provider and applies the
// resulting actions. In dry-run mode no mutating call is made and
// placeholder identifiers are substituted.
//
// Each product and its prices form one dependency chain: a provider
// failure aborts the remaining steps of that chain but other chains and
// the webhook step still run. Nothing is rolled back; the next run's diff
// resumes from whatever was applied.
//
// The returned plan is the rendering of the same survey the execution
// used, so callers can display or persist both from a single remote read.
func (e *Executor) Execute(ctx context.Context, projectID string, desired []catalog.Product, opts Options) (*ExecutionResult, *Plan, error) {
	snap, err := takeSnapshot(ctx, e.client, opts.WebhookURL != "")
	if err != nil {
		return nil, nil, err
	}

	rec := reconcile(projectID, desired, snap, opts)
	plan := rec.render()

	result := &ExecutionResult{
		ProjectID: projectID,
		DryRun:    opts.DryRun,
		Warnings:  rec.warnings,
		StartedAt: time.Now().UTC(),
	}

	for _, action := range rec.products {
		result.Products = append(result.Products, e.applyChain(ctx, projectID, action, opts.DryRun))
	}

	if rec.webhook != nil {
		result.Webhook = e.applyWebhook(ctx, projectID, rec.webhook, opts.DryRun)
	}

	result.CompletedAt = time.Now().UTC()

	e.logger.Info().
		Str("project", projectID).
		Bool("dry_run", opts.DryRun).
		Bool("failed", result.Failed()).
		Int("products", len(result.Products)).
		Msg("execution finished")

	return result, plan, nil
}

// applyChain provisions one product and its prices in order. The first
// provider failure aborts the rest of the chain.
func (e *Executor) applyChain(ctx context.Context, projectID string, action productAction, dryRun bool) ProductResult {
	pr := ProductResult{Name: action.product.Name}

	switch {
	case action.remote != nil:
		pr.ProductID = action.remote.ID
	case dryRun:
		pr.ProductID = DryRunProductID
	default:
		created, err := e.client.CreateProduct(ctx, ProductInput{
			Name:        action.product.Name,
			Description: action.product.Description,
			Metadata:    tagMetadata(action.key, projectID),
		})
		if err != nil {
			pr.Err = NewProviderCallError("create", "product:"+action.product.Name, err).Error()
			e.logger.Error().Err(err).Str("product", action.product.Name).Msg("product creation failed, skipping its prices")
			return pr
		}
		pr.ProductID = created.ID
		e.logger.Info().Str("product", action.product.Name).Str("id", created.ID).Msg("product created")
	}

	for _, pa := range action.prices {
		switch {
		case pa.remote != nil:
			pr.PriceIDs = append(pr.PriceIDs, pa.remote.ID)
		case dryRun:
			pr.PriceIDs = append(pr.PriceIDs, DryRunPriceID)
		default:
			created, err := e.client.CreatePrice(ctx, PriceInput{
				ProductID:     pr.ProductID,
				Amount:        pa.price.Amount,
				Currency:      pa.price.Currency,
				Interval:      pa.price.Interval,
				IntervalCount: pa.price.IntervalCount,
				Metadata:      tagMetadata(pa.key, projectID),
			})
			if err != nil {
				pr.Err = NewProviderCallError("create", "price:"+pa.key, err).Error()
				e.logger.Error().Err(err).Str("product", action.product.Name).Msg("price creation failed, aborting chain")
				return pr
			}
			pr.PriceIDs = append(pr.PriceIDs, created.ID)
			e.logger.Info().Str("product", action.product.Name).Str("id", created.ID).Msg("price created")
		}
	}

	return pr
}

// applyWebhook provisions the single webhook endpoint. Updates send the
// union of existing and required events so unrelated subscriptions are
// preserved.
func (e *Executor) applyWebhook(ctx context.Context, projectID string, action *webhookAction, dryRun bool) *WebhookResult {
	wr := &WebhookResult{}

	switch action.decision.status {
	case StepExisting:
		wr.WebhookID = action.decision.endpoint.ID

	case StepCreate:
		if dryRun {
			wr.WebhookID = DryRunWebhookID
			wr.Secret = DryRunWebhookSecret
			return wr
		}
		created, err := e.client.CreateWebhookEndpoint(ctx, WebhookEndpointInput{
			URL:           action.url,
			EnabledEvents: RequiredWebhookEvents,
			Metadata:      tagMetadata(action.key, projectID),
		})
		if err != nil {
			wr.Err = NewProviderCallError("create", "webhook", err).Error()
			e.logger.Error().Err(err).Msg("webhook creation failed")
			return wr
		}
		wr.WebhookID = created.ID
		wr.Secret = created.Secret
		e.logger.Info().Str("id", created.ID).Msg("webhook endpoint created")

	case StepUpdate:
		if dryRun {
			wr.WebhookID = action.decision.endpoint.ID
			return wr
		}
		updated, err := e.client.UpdateWebhookEndpoint(ctx, action.decision.endpoint.ID, WebhookEndpointInput{
			URL:           action.url,
			EnabledEvents: unionEvents(action.decision.endpoint.EnabledEvents, RequiredWebhookEvents),
			Metadata:      tagMetadata(action.key, projectID),
		})
		if err != nil {
			wr.Err = NewProviderCallError("update", "webhook", err).Error()
			e.logger.Error().Err(err).Msg("webhook update failed")
			return wr
		}
		wr.WebhookID = updated.ID
		e.logger.Info().Str("id", updated.ID).Msg("webhook endpoint updated")
	}

	return wr
}

// tagMetadata builds the metadata written at creation time. This tagging
// is what makes the next run's diff recognize the resource.
func tagMetadata(key, projectID string) map[string]string {
	return map[string]string{
		MetadataKey:       key,
		MetadataProjectID: projectID,
	}
}
