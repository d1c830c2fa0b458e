package billing

import (
	"context"
	"strconv"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// Provider is the payment provider surface used by checkout and the webhook
// processor.
type Provider interface {
	CreateCustomer(ctx context.Context, accountID uint, email, name string) (string, error)
	CreateCheckoutSession(ctx context.Context, params SessionParams) (string, error)
	ListLineItemPrices(ctx context.Context, sessionID string) ([]string, error)
}

type stripeProvider struct {
	api *client.API
}

// NewStripeProvider returns a Provider backed by the Stripe API.
func NewStripeProvider(secretKey string) Provider {
	return &stripeProvider{api: client.New(secretKey, nil)}
}

func (p *stripeProvider) CreateCustomer(ctx context.Context, accountID uint, email, name string) (string, error) {
	params := &stripe.CustomerParams{
		Metadata: map[string]string{
			"account_id": strconv.FormatUint(uint64(accountID), 10),
		},
	}
	if email != "" {
		params.Email = stripe.String(email)
	}
	if name != "" {
		params.Name = stripe.String(name)
	}
	params.Context = ctx

	cust, err := p.api.Customers.New(params)
	if err != nil {
		return "", err
	}
	return cust.ID, nil
}

func (p *stripeProvider) CreateCheckoutSession(ctx context.Context, in SessionParams) (string, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(in.PriceIDs))
	for _, price := range in.PriceIDs {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(price),
			Quantity: stripe.Int64(1),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		Customer:          stripe.String(in.CustomerID),
		ClientReferenceID: stripe.String(in.ClientReferenceID),
		LineItems:         lineItems,
		SuccessURL:        stripe.String(in.SuccessURL),
		CancelURL:         stripe.String(in.CancelURL),
		Metadata:          in.Metadata,
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: in.Metadata,
		},
	}
	params.Context = ctx

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}

func (p *stripeProvider) ListLineItemPrices(ctx context.Context, sessionID string) ([]string, error) {
	params := &stripe.CheckoutSessionListLineItemsParams{
		Session: stripe.String(sessionID),
	}
	params.Context = ctx

	var prices []string
	iter := p.api.CheckoutSessions.ListLineItems(params)
	for iter.Next() {
		item := iter.LineItem()
		if item.Price != nil && item.Price.ID != "" {
			prices = append(prices, item.Price.ID)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return prices, nil
}
