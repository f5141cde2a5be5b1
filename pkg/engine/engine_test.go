package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/runwaylabs/runway/pkg/catalog"
)

// mockBillingClient is an in-memory provider. Create calls append to the
// remote lists so a subsequent survey sees what a run provisioned.
type mockBillingClient struct {
	products  []RemoteProduct
	prices    []RemotePrice
	endpoints []RemoteWebhookEndpoint

	// mutations counts every create/update call, for dry-run purity checks.
	mutations int

	// failures maps "op:resource" to an injected error, e.g.
	// "create:price" or "create:product:Founders".
	failures map[string]error

	// updatedEvents records the event payload of the last webhook update.
	updatedEvents []string

	nextID int
}

func (m *mockBillingClient) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s_%03d", prefix, m.nextID)
}

func (m *mockBillingClient) fail(keys ...string) error {
	for _, key := range keys {
		if err, ok := m.failures[key]; ok {
			return err
		}
	}
	return nil
}

func (m *mockBillingClient) ListProducts(ctx context.Context) ([]RemoteProduct, error) {
	if err := m.fail("list:products"); err != nil {
		return nil, err
	}
	return m.products, nil
}

func (m *mockBillingClient) CreateProduct(ctx context.Context, input ProductInput) (RemoteProduct, error) {
	m.mutations++
	if err := m.fail("create:product:"+input.Name, "create:product"); err != nil {
		return RemoteProduct{}, err
	}
	product := RemoteProduct{
		ID:          m.id("prod"),
		Name:        input.Name,
		Description: input.Description,
		Active:      true,
		Metadata:    input.Metadata,
	}
	m.products = append(m.products, product)
	return product, nil
}

func (m *mockBillingClient) UpdateProduct(ctx context.Context, id string, input ProductInput) (RemoteProduct, error) {
	m.mutations++
	for i := range m.products {
		if m.products[i].ID == id {
			m.products[i].Name = input.Name
			m.products[i].Description = input.Description
			return m.products[i], nil
		}
	}
	return RemoteProduct{}, fmt.Errorf("no such product %s", id)
}

func (m *mockBillingClient) ListPrices(ctx context.Context) ([]RemotePrice, error) {
	if err := m.fail("list:prices"); err != nil {
		return nil, err
	}
	return m.prices, nil
}

func (m *mockBillingClient) CreatePrice(ctx context.Context, input PriceInput) (RemotePrice, error) {
	m.mutations++
	if err := m.fail("create:price"); err != nil {
		return RemotePrice{}, err
	}
	price := RemotePrice{
		ID:            m.id("price"),
		ProductID:     input.ProductID,
		Amount:        input.Amount,
		Currency:      input.Currency,
		Interval:      input.Interval,
		IntervalCount: input.IntervalCount,
		Active:        true,
		Metadata:      input.Metadata,
	}
	m.prices = append(m.prices, price)
	return price, nil
}

func (m *mockBillingClient) ListWebhookEndpoints(ctx context.Context) ([]RemoteWebhookEndpoint, error) {
	if err := m.fail("list:webhook_endpoints"); err != nil {
		return nil, err
	}
	return m.endpoints, nil
}

func (m *mockBillingClient) CreateWebhookEndpoint(ctx context.Context, input WebhookEndpointInput) (RemoteWebhookEndpoint, error) {
	m.mutations++
	if err := m.fail("create:webhook"); err != nil {
		return RemoteWebhookEndpoint{}, err
	}
	endpoint := RemoteWebhookEndpoint{
		ID:            m.id("we"),
		URL:           input.URL,
		EnabledEvents: input.EnabledEvents,
		Secret:        "whsec_" + m.id("secret"),
		Metadata:      input.Metadata,
	}
	m.endpoints = append(m.endpoints, endpoint)
	return endpoint, nil
}

func (m *mockBillingClient) UpdateWebhookEndpoint(ctx context.Context, id string, input WebhookEndpointInput) (RemoteWebhookEndpoint, error) {
	m.mutations++
	if err := m.fail("update:webhook"); err != nil {
		return RemoteWebhookEndpoint{}, err
	}
	for i := range m.endpoints {
		if m.endpoints[i].ID == id {
			m.endpoints[i].EnabledEvents = input.EnabledEvents
			m.endpoints[i].Metadata = input.Metadata
			m.updatedEvents = input.EnabledEvents
			return m.endpoints[i], nil
		}
	}
	return RemoteWebhookEndpoint{}, fmt.Errorf("no such endpoint %s", id)
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testCatalog() []catalog.Product {
	return []catalog.Product{
		{
			Name:        "Founders",
			Description: "Early adopter plan",
			Prices: []catalog.Price{
				{Amount: 2500, Currency: "usd", Interval: catalog.IntervalMonth, IntervalCount: 1},
			},
		},
		{
			Name: "Scale",
			Prices: []catalog.Price{
				{Amount: 4900, Currency: "usd", Interval: catalog.IntervalMonth, IntervalCount: 1},
			},
		},
	}
}
