package engine

import (
	"fmt"
	"time"
)

// EdgeOptions name the edge-compute resources a deployment needs. Unset
// names resolve to deterministic defaults derived from the project ID, so
// repeated runs always plan the same resources.
type EdgeOptions struct {
	// ProjectID is the deployment project identifier.
	ProjectID string

	// DatabaseName overrides the D1 database name.
	// Defaults to "<projectID>-d1".
	DatabaseName string

	// BucketName overrides the R2 bucket name.
	// Defaults to "<projectID>-assets".
	BucketName string
}

// DefaultDatabaseName returns the deterministic default D1 database name.
func DefaultDatabaseName(projectID string) string {
	return projectID + "-d1"
}

// DefaultBucketName returns the deterministic default R2 bucket name.
func DefaultBucketName(projectID string) string {
	return projectID + "-assets"
}

// BuildEdgePlan reports the edge-compute resources a deployment needs.
// Unlike the billing plan there is no remote survey and no diff: the
// provider's own tooling (wrangler) is idempotent by construction, so the
// plan is always the same three fixed steps with resolved names embedded
// in their details.
func BuildEdgePlan(opts EdgeOptions) *Plan {
	database := opts.DatabaseName
	databaseNote := database
	if database == "" {
		database = DefaultDatabaseName(opts.ProjectID)
		databaseNote = database + " (default)"
	}

	bucket := opts.BucketName
	bucketNote := bucket
	if bucket == "" {
		bucket = DefaultBucketName(opts.ProjectID)
		bucketNote = bucket + " (default)"
	}

	return &Plan{
		Provider:  ProviderCloudflare,
		CreatedAt: time.Now().UTC(),
		Steps: []PlanStep{
			{
				ID:     "worker",
				Title:  "Worker: " + opts.ProjectID,
				Status: StepCreate,
				Detail: "deployed by wrangler; re-runs are safe",
			},
			{
				ID:     "d1",
				Title:  "D1 database: " + database,
				Status: StepCreate,
				Detail: fmt.Sprintf("created by wrangler d1 if missing, bound as DB to %s", opts.ProjectID),
			},
			{
				ID:     "r2",
				Title:  "R2 bucket: " + bucket,
				Status: StepCreate,
				Detail: fmt.Sprintf("created by wrangler r2 if missing, bound as ASSETS to %s", opts.ProjectID),
			},
		},
		Notes: []string{
			"project: " + opts.ProjectID,
			"database: " + databaseNote,
			"bucket: " + bucketNote,
		},
	}
}
