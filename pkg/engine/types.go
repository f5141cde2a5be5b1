package engine

import "time"

// Provider identifies the remote system a plan targets.
type Provider string

const (
	// ProviderStripe is the billing provider.
	ProviderStripe Provider = "stripe"

	// ProviderCloudflare is the edge-compute provider.
	ProviderCloudflare Provider = "cloudflare"
)

// StepStatus is the planned disposition of a single resource.
type StepStatus string

const (
	// StepCreate indicates the resource does not exist remotely and will
	// be created.
	StepCreate StepStatus = "create"

	// StepUpdate indicates the resource exists but needs a mutating call.
	StepUpdate StepStatus = "update"

	// StepExisting indicates the resource already matches the desired
	// definition; no call will be made.
	StepExisting StepStatus = "existing"
)

// PlanStep is one planned action. Step IDs are stable across repeated
// builds for unchanged desired state.
type PlanStep struct {
	// ID is the stable, human-addressable step identifier,
	// e.g. "product:Founders".
	ID string `json:"id"`

	// Title is the human-readable step title.
	Title string `json:"title"`

	// Status is the planned disposition.
	Status StepStatus `json:"status"`

	// Detail explains the decision in free text.
	Detail string `json:"detail"`
}

// Plan is an ordered set of steps against one provider. Building a plan
// never mutates remote state.
type Plan struct {
	// Provider is the remote system this plan targets.
	Provider Provider `json:"provider"`

	// Steps are the planned actions in dependency order: products, then
	// prices grouped under their parent product, then the webhook.
	Steps []PlanStep `json:"steps"`

	// Notes carry informational context such as the resolved project ID.
	Notes []string `json:"notes,omitempty"`

	// Warnings carry non-fatal findings: price drift, duplicate webhook
	// endpoints. Callers decide whether to fail on them.
	Warnings []string `json:"warnings,omitempty"`

	// CreatedAt is when the plan was built.
	CreatedAt time.Time `json:"created_at"`
}

// Summary counts steps by status.
func (p *Plan) Summary() (create, update, existing int) {
	for _, s := range p.Steps {
		switch s.Status {
		case StepCreate:
			create++
		case StepUpdate:
			update++
		case StepExisting:
			existing++
		}
	}
	return
}

// Step returns the step with the given ID, or nil.
func (p *Plan) Step(id string) *PlanStep {
	for i := range p.Steps {
		if p.Steps[i].ID == id {
			return &p.Steps[i]
		}
	}
	return nil
}

// Options control plan building and execution.
type Options struct {
	// DryRun suppresses every mutating provider call. Results carry
	// placeholder identifiers.
	DryRun bool

	// WebhookURL, when set, plans and provisions the webhook endpoint.
	WebhookURL string
}

// ProductResult is the per-product outcome of an execution.
type ProductResult struct {
	// Name is the desired product name.
	Name string `json:"name"`

	// ProductID is the remote product identifier.
	ProductID string `json:"product_id"`

	// PriceIDs are the remote price identifiers in desired order.
	PriceIDs []string `json:"price_ids"`

	// Err records a provider failure within this product's chain.
	// Later steps of the same chain are skipped; other chains proceed.
	Err string `json:"error,omitempty"`
}

// WebhookResult is the webhook outcome of an execution.
type WebhookResult struct {
	// WebhookID is the remote endpoint identifier.
	WebhookID string `json:"webhook_id"`

	// Secret is the endpoint signing secret, only populated when the
	// endpoint was created by this run.
	Secret string `json:"secret,omitempty"`

	// Err records a provider failure on the webhook step.
	Err string `json:"error,omitempty"`
}

// ExecutionResult is the outcome of applying a plan. The caller is
// responsible for persisting the identifiers it carries.
type ExecutionResult struct {
	// ProjectID is the project the run provisioned.
	ProjectID string `json:"project_id"`

	// RunStamp identifies the run for report artifacts.
	RunStamp string `json:"run_stamp"`

	// DryRun records whether mutations were suppressed.
	DryRun bool `json:"dry_run"`

	// Products are the per-product results in desired order.
	Products []ProductResult `json:"products"`

	// Webhook is the webhook outcome, nil when no webhook URL was given.
	Webhook *WebhookResult `json:"webhook,omitempty"`

	// Warnings are the non-fatal findings collected while planning and
	// executing.
	Warnings []string `json:"warnings,omitempty"`

	// StartedAt and CompletedAt bound the run.
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// Failed reports whether any chain recorded a provider failure.
func (r *ExecutionResult) Failed() bool {
	for _, p := range r.Products {
		if p.Err != "" {
			return true
		}
	}
	return r.Webhook != nil && r.Webhook.Err != ""
}
