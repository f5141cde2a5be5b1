package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/runwaylabs/runway/pkg/catalog"
)

// Planner builds reconciliation plans. It only ever issues provider list
// calls; building a plan mutates nothing.
type Planner struct {
	client BillingClient
	logger zerolog.Logger
}

// NewPlanner creates a planner over the given billing client.
func NewPlanner(client BillingClient, logger zerolog.Logger) *Planner {
	return &Planner{
		client: client,
		logger: logger.With().Str("component", "planner").Logger(),
	}
}

// BuildPlan surveys the remote snapshot and diffs it against the desired
// catalog. Steps are ordered by the fixed dependency chain: all products,
// then all prices grouped under their parent product in desired order,
// then the single webhook step when a webhook URL is configured.
func (p *Planner) BuildPlan(ctx context.Context, projectID string, desired []catalog.Product, opts Options) (*Plan, error) {
	snap, err := takeSnapshot(ctx, p.client, opts.WebhookURL != "")
	if err != nil {
		return nil, err
	}

	rec := reconcile(projectID, desired, snap, opts)
	plan := rec.render()

	create, update, existing := plan.Summary()
	p.logger.Info().
		Str("project", projectID).
		Int("create", create).
		Int("update", update).
		Int("existing", existing).
		Int("warnings", len(plan.Warnings)).
		Msg("plan built")

	return plan, nil
}

// takeSnapshot reads the remote state once. A list failure aborts the whole
// run: a plan cannot be trusted on partial remote data.
func takeSnapshot(ctx context.Context, client BillingClient, includeWebhooks bool) (snapshot, error) {
	var snap snapshot
	var err error

	if snap.products, err = client.ListProducts(ctx); err != nil {
		return snapshot{}, NewProviderCallError("list", "products", err)
	}
	if snap.prices, err = client.ListPrices(ctx); err != nil {
		return snapshot{}, NewProviderCallError("list", "prices", err)
	}
	if includeWebhooks {
		if snap.endpoints, err = client.ListWebhookEndpoints(ctx); err != nil {
			return snapshot{}, NewProviderCallError("list", "webhook_endpoints", err)
		}
	}
	return snap, nil
}

// productAction is one product chain: the product decision plus its price
// decisions, consumed by both plan rendering and execution.
type productAction struct {
	product catalog.Product
	key     string
	remote  *RemoteProduct // nil means create
	drifted bool
	prices  []priceAction
}

type priceAction struct {
	price  catalog.Price
	key    string
	remote *RemotePrice // nil means create
}

type webhookAction struct {
	url      string
	key      string
	decision webhookDecision
}

// reconciliation is the typed outcome of diffing desired state against a
// snapshot. The plan is a rendering of it; the executor walks it directly.
type reconciliation struct {
	projectID string
	products  []productAction
	webhook   *webhookAction
	warnings  []string
}

// reconcile runs the three named stages in dependency order. It is a pure
// function of its inputs.
func reconcile(projectID string, desired []catalog.Product, snap snapshot, opts Options) *reconciliation {
	rec := &reconciliation{projectID: projectID}

	// Stage 1+2: products and their prices, preserving desired order.
	for _, product := range desired {
		action := productAction{
			product: product,
			key:     ProductKey(projectID, product.Name),
		}
		action.remote = matchProduct(action.key, snap.products)

		for _, price := range product.Prices {
			pa := priceAction{
				price: price,
				key:   PriceKey(projectID, product.Name, price),
			}
			pa.remote = matchPrice(pa.key, snap.prices)
			action.prices = append(action.prices, pa)
		}

		if priceDrifted(projectID, product, snap.prices) {
			action.drifted = true
			rec.warnings = append(rec.warnings,
				fmt.Sprintf("Price definition changed for %s; the previous price stays active and a new one will be created", product.Name))
		}

		rec.products = append(rec.products, action)
	}

	// Stage 3: the webhook endpoint, ordered last by convention.
	if opts.WebhookURL != "" {
		wa := &webhookAction{
			url: opts.WebhookURL,
			key: WebhookKey(projectID),
		}
		wa.decision = diffWebhook(wa.key, wa.url, snap.endpoints)
		if wa.decision.duplicate {
			rec.warnings = append(rec.warnings,
				fmt.Sprintf("duplicate webhook endpoints detected for %s", wa.url))
		}
		rec.webhook = wa
	}

	return rec
}

// render turns a reconciliation into the ordered, human-addressable plan.
func (rec *reconciliation) render() *Plan {
	plan := &Plan{
		Provider:  ProviderStripe,
		CreatedAt: time.Now().UTC(),
		Notes:     []string{fmt.Sprintf("project: %s", rec.projectID)},
		Warnings:  rec.warnings,
	}

	for _, action := range rec.products {
		step := PlanStep{
			ID:    productStepID(action.product.Name),
			Title: "Product: " + action.product.Name,
		}
		if action.remote == nil {
			step.Status = StepCreate
			step.Detail = "will be created and tagged " + action.key
		} else {
			step.Status = StepExisting
			step.Detail = "matches remote product " + action.remote.ID
		}
		plan.Steps = append(plan.Steps, step)
	}

	for _, action := range rec.products {
		for _, pa := range action.prices {
			step := PlanStep{
				ID:    priceStepID(action.product.Name, pa.price),
				Title: priceTitle(pa.price),
			}
			if pa.remote == nil {
				step.Status = StepCreate
				step.Detail = "will be created under " + action.product.Name + " and tagged " + pa.key
			} else {
				step.Status = StepExisting
				step.Detail = "matches remote price " + pa.remote.ID
			}
			plan.Steps = append(plan.Steps, step)
		}
	}

	if rec.webhook != nil {
		step := PlanStep{
			ID:     "webhook",
			Title:  "Webhook: " + rec.webhook.url,
			Status: rec.webhook.decision.status,
		}
		switch rec.webhook.decision.status {
		case StepCreate:
			step.Detail = fmt.Sprintf("will be created subscribed to %d events", len(RequiredWebhookEvents))
		case StepUpdate:
			step.Detail = "add events: " + strings.Join(rec.webhook.decision.missing, ", ")
		case StepExisting:
			step.Detail = "matches remote endpoint " + rec.webhook.decision.endpoint.ID
		}
		plan.Steps = append(plan.Steps, step)
	}

	return plan
}

func productStepID(name string) string {
	return "product:" + name
}

func priceStepID(productName string, price catalog.Price) string {
	return fmt.Sprintf("price:%s:%d:%s:%s:%d",
		productName, price.Amount, price.Currency, price.Interval, price.IntervalCount)
}

// priceTitle renders the human title, e.g. "Price: 25.00 USD/month" or
// "Price: 499.00 USD one-time".
func priceTitle(price catalog.Price) string {
	amount := fmt.Sprintf("%d.%02d", price.Amount/100, price.Amount%100)
	currency := strings.ToUpper(price.Currency)
	switch {
	case !price.Recurring():
		return fmt.Sprintf("Price: %s %s one-time", amount, currency)
	case price.IntervalCount > 1:
		return fmt.Sprintf("Price: %s %s every %d %ss", amount, currency, price.IntervalCount, price.Interval)
	default:
		return fmt.Sprintf("Price: %s %s/%s", amount, currency, price.Interval)
	}
}
