package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/runwaylabs/runway/pkg/catalog"
)

// The diff engine decides the status of every desired resource against the
// remote snapshot. It is pure: no provider calls, no mutation.

// matchProduct finds the remote product tagged with the given idempotency
// key. Products compare by name only (the name is embedded in the key), so
// a key match is always "existing"; description drift is ignored.
func matchProduct(key string, products []RemoteProduct) *RemoteProduct {
	for i := range products {
		if taggedWith(products[i].Metadata, key) {
			return &products[i]
		}
	}
	return nil
}

// matchPrice finds the remote price tagged with the full price key. The
// key embeds the whole identity tuple, so a match means the definition is
// unchanged.
func matchPrice(key string, prices []RemotePrice) *RemotePrice {
	for i := range prices {
		if taggedWith(prices[i].Metadata, key) {
			return &prices[i]
		}
	}
	return nil
}

// pricePrefix scopes price keys to one product, for drift detection.
func pricePrefix(projectID, productName string) string {
	return fmt.Sprintf("bootstrap:%s:%s:price:", projectID, productName)
}

// priceDrifted reports whether a previously bootstrapped price exists for
// the product whose definition tuple matches none of the desired prices.
// Such a price is left untouched: prices are immutable, so the changed
// definition becomes a new price and the old one stays active.
func priceDrifted(projectID string, product catalog.Product, prices []RemotePrice) bool {
	prefix := pricePrefix(projectID, product.Name)
	for _, remote := range prices {
		key, ok := remote.Metadata[MetadataKey]
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		tuple := catalog.Price{
			Amount:        remote.Amount,
			Currency:      remote.Currency,
			Interval:      remote.Interval,
			IntervalCount: remote.IntervalCount,
		}
		matched := false
		for _, desired := range product.Prices {
			if desired.Equal(tuple) {
				matched = true
				break
			}
		}
		if !matched {
			return true
		}
	}
	return false
}

// webhookDecision is the diff outcome for the single webhook endpoint.
type webhookDecision struct {
	status StepStatus

	// endpoint is the matched remote endpoint, nil for create.
	endpoint *RemoteWebhookEndpoint

	// missing are the required events the matched endpoint lacks.
	missing []string

	// duplicate is set when more than one remote endpoint shares the URL.
	duplicate bool
}

// diffWebhook matches the desired webhook endpoint by literal URL equality
// first, which supports manually created endpoints without metadata. Among
// several endpoints on the same URL the one tagged with the idempotency
// key wins, and the duplicate group is flagged once. A matched endpoint
// missing required events yields an update; one already subscribed to
// every required event is existing.
func diffWebhook(webhookKey, url string, endpoints []RemoteWebhookEndpoint) webhookDecision {
	var candidates []*RemoteWebhookEndpoint
	for i := range endpoints {
		if endpoints[i].URL == url {
			candidates = append(candidates, &endpoints[i])
		}
	}

	if len(candidates) == 0 {
		return webhookDecision{status: StepCreate}
	}

	match := candidates[0]
	for _, c := range candidates {
		if taggedWith(c.Metadata, webhookKey) {
			match = c
			break
		}
	}

	decision := webhookDecision{
		endpoint:  match,
		duplicate: len(candidates) > 1,
	}

	decision.missing = missingEvents(match.EnabledEvents, RequiredWebhookEvents)
	if len(decision.missing) == 0 {
		decision.status = StepExisting
	} else {
		decision.status = StepUpdate
	}
	return decision
}

// missingEvents returns the required events absent from have, sorted.
// Comparison is order-independent; extra events on the endpoint are
// preserved, never removed.
func missingEvents(have, required []string) []string {
	haveSet := make(map[string]bool, len(have))
	for _, e := range have {
		haveSet[e] = true
	}
	var missing []string
	for _, e := range required {
		if !haveSet[e] {
			missing = append(missing, e)
		}
	}
	sort.Strings(missing)
	return missing
}

// unionEvents merges the endpoint's current events with the required set,
// preserving unrelated custom subscriptions. The result is sorted for
// deterministic update payloads.
func unionEvents(have, required []string) []string {
	set := make(map[string]bool, len(have)+len(required))
	for _, e := range have {
		set[e] = true
	}
	for _, e := range required {
		set[e] = true
	}
	union := make([]string, 0, len(set))
	for e := range set {
		union = append(union, e)
	}
	sort.Strings(union)
	return union
}
