package policy

// BuiltinPolicies returns the policies that ship with the CLI. They
// guard the plan gate against catalog definitions that would produce
// broken provisioning keys or obviously unsafe runs.
func BuiltinPolicies() []Policy {
	return []Policy{
		catalogNamingPolicy(),
		webhookTransportPolicy(),
		priceSanityPolicy(),
		planChurnPolicy(),
	}
}

// catalogNamingPolicy rejects product names that would collide with the
// delimiters used in provisioning keys and the compact catalog grammar.
func catalogNamingPolicy() Policy {
	return Policy{
		Name:        "catalog-naming",
		Description: "Product names must not contain ':' or ';' delimiter characters",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"catalog", "naming"},
		Rego: `package runway.policies.naming

import rego.v1

# Colons separate the segments of provisioning keys.
deny contains violation if {
	some product in input.products
	contains(product.name, ":")
	violation := {
		"message": sprintf("Product name %q must not contain ':'", [product.name]),
		"severity": "error",
		"step": sprintf("product:%s", [product.name]),
	}
}

# Semicolons separate entries in the compact catalog grammar.
deny contains violation if {
	some product in input.products
	contains(product.name, ";")
	violation := {
		"message": sprintf("Product name %q must not contain ';'", [product.name]),
		"severity": "error",
		"step": sprintf("product:%s", [product.name]),
	}
}
`,
	}
}

// webhookTransportPolicy requires HTTPS webhook endpoints outside of
// local development.
func webhookTransportPolicy() Policy {
	return Policy{
		Name:        "webhook-transport",
		Description: "Webhook endpoints must use HTTPS, localhost excepted",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"webhook", "transport"},
		Rego: `package runway.policies.webhook

import rego.v1

deny contains violation if {
	url := input.webhook_url
	url != ""
	not startswith(url, "https://")
	not startswith(url, "http://localhost")
	not startswith(url, "http://127.0.0.1")
	violation := {
		"message": sprintf("Webhook URL %q must use https", [url]),
		"severity": "error",
		"step": "webhook",
	}
}
`,
	}
}

// priceSanityPolicy warns on amounts that look like a misplaced decimal
// point. Amounts are minor units, so 1000000 is 10,000.00 in a
// two-decimal currency.
func priceSanityPolicy() Policy {
	return Policy{
		Name:        "price-sanity",
		Description: "Warns on price amounts at or above 1000000 minor units",
		Severity:    SeverityWarning,
		Enabled:     true,
		Tags:        []string{"catalog", "pricing"},
		Rego: `package runway.policies.pricing

import rego.v1

deny contains violation if {
	some product in input.products
	some price in product.prices
	price.amount >= 1000000
	violation := {
		"message": sprintf("Price for %q is %d minor units, check for a misplaced decimal point", [product.name, price.amount]),
		"severity": "warning",
		"step": sprintf("product:%s", [product.name]),
	}
}
`,
	}
}

// planChurnPolicy warns when a single run would create an unusually
// large number of resources.
func planChurnPolicy() Policy {
	return Policy{
		Name:        "plan-churn",
		Description: "Warns when a plan creates more than 25 resources in one run",
		Severity:    SeverityWarning,
		Enabled:     true,
		Tags:        []string{"plan"},
		Rego: `package runway.policies.churn

import rego.v1

deny contains violation if {
	creates := [s | some s in input.plan.steps; s.status == "create"]
	count(creates) > 25
	violation := {
		"message": sprintf("Plan creates %d resources in one run", [count(creates)]),
		"severity": "warning",
	}
}
`,
	}
}
