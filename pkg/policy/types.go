package policy

import (
	"time"

	"github.com/runwaylabs/runway/pkg/catalog"
	"github.com/runwaylabs/runway/pkg/engine"
)

// Severity represents the severity level of a policy violation.
type Severity string

const (
	// SeverityInfo is for informational messages.
	SeverityInfo Severity = "info"

	// SeverityWarning is for findings that should be reviewed but do not
	// block a run.
	SeverityWarning Severity = "warning"

	// SeverityError is for violations that block apply.
	SeverityError Severity = "error"
)

// Policy represents a policy rule with its Rego code.
type Policy struct {
	// Name is the unique name of the policy.
	Name string `json:"name"`

	// Description provides a human-readable description.
	Description string `json:"description"`

	// Rego contains the Rego policy code.
	Rego string `json:"rego"`

	// Severity is the default severity for violations.
	Severity Severity `json:"severity"`

	// Enabled indicates if the policy is active.
	Enabled bool `json:"enabled"`

	// Tags are labels for organizing policies.
	Tags []string `json:"tags,omitempty"`
}

// Violation represents a single policy violation.
type Violation struct {
	// Policy is the name of the policy that was violated.
	Policy string `json:"policy"`

	// Step is the plan step ID the violation refers to, when known.
	Step string `json:"step,omitempty"`

	// Message is a human-readable violation message.
	Message string `json:"message"`

	// Severity is the violation severity level.
	Severity Severity `json:"severity"`
}

// Result represents the outcome of evaluating policies against a plan.
type Result struct {
	// Allowed indicates whether the plan may be applied. Error-severity
	// violations clear it.
	Allowed bool `json:"allowed"`

	// Violations lists all policy violations, warnings included.
	Violations []Violation `json:"violations,omitempty"`

	// Warnings lists policies whose evaluation itself failed.
	Warnings []string `json:"warnings,omitempty"`

	// EvaluatedAt is when the evaluation ran.
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// Blocking returns the error-severity violations.
func (r *Result) Blocking() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == SeverityError {
			out = append(out, v)
		}
	}
	return out
}

// Input is the document handed to Rego for evaluation.
type Input struct {
	// Plan is the plan under evaluation.
	Plan *engine.Plan `json:"plan,omitempty"`

	// Products is the desired catalog behind the plan.
	Products []catalog.Product `json:"products,omitempty"`

	// WebhookURL is the desired webhook endpoint URL, empty when webhook
	// provisioning is off.
	WebhookURL string `json:"webhook_url,omitempty"`

	// Context provides additional evaluation context.
	Context *Context `json:"context"`
}

// Context provides context information for policy evaluation.
type Context struct {
	// ProjectID is the project being provisioned.
	ProjectID string `json:"project_id,omitempty"`

	// Environment is the environment (e.g., "production", "staging").
	Environment string `json:"environment,omitempty"`

	// Operation is the operation being performed (plan, apply).
	Operation string `json:"operation,omitempty"`

	// DryRun indicates if this is a dry-run evaluation.
	DryRun bool `json:"dry_run"`

	// Timestamp is when the evaluation is occurring.
	Timestamp time.Time `json:"timestamp"`
}
