package notify

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/mboehm/sizewatch/internal/domain"
)

const (
	colorGreen  = 0x2ecc71
	colorOrange = 0xe67e22
	colorRed    = 0xe74c3c
)

// Alerts builds the outbound messages and owns the one-shot gate for the
// credential-expiry alert. The gate stays set across delivery failures; only
// an explicit credential update re-arms it.
type Alerts struct {
	sink     Notifier
	authSent atomic.Bool
}

func NewAlerts(sink Notifier) *Alerts {
	return &Alerts{sink: sink}
}

// CartAdded announces a successful reservation, with the deadline by which
// checkout must complete before the vendor releases the item.
func (a *Alerts) CartAdded(ctx context.Context, product domain.ProductID, offer domain.OfferID, st domain.OfferStock, deadline time.Time) error {
	return a.sink.Send(ctx, Payload{Embeds: []Embed{{
		Title:       "🛒 Added to cart",
		Description: fmt.Sprintf("Size %s of product %s was reserved.", st.Label, product),
		Color:       colorGreen,
		Fields: append(offerFields(offer, st),
			EmbedField{Name: "Checkout before", Value: deadline.Format("15:04:05 MST"), Inline: true},
		),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}}})
}

// StockFound is the fallback when the cart-add did not go through: the size
// is available but checkout has to happen by hand.
func (a *Alerts) StockFound(ctx context.Context, product domain.ProductID, offer domain.OfferID, st domain.OfferStock) error {
	return a.sink.Send(ctx, Payload{Embeds: []Embed{{
		Title:       "👀 Back in stock — manual checkout needed",
		Description: fmt.Sprintf("Size %s of product %s is available, but could not be carted.", st.Label, product),
		Color:       colorOrange,
		Fields:      offerFields(offer, st),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}}})
}

// AuthExpired fires at most once per expiry episode. Calls while the gate is
// set return immediately with no delivery.
func (a *Alerts) AuthExpired(ctx context.Context) error {
	if !a.authSent.CompareAndSwap(false, true) {
		return nil
	}
	return a.sink.Send(ctx, Payload{
		Content: "Vendor session expired — polling continues but requests are rejected.",
		Embeds: []Embed{{
			Title:       "🔑 Credentials expired",
			Description: "Capture fresh headers from the app and update them via PUT /api/credentials.",
			Color:       colorRed,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		}},
	})
}

// ResetAuth re-arms the expiry alert. Called when credentials are replaced.
func (a *Alerts) ResetAuth() {
	a.authSent.Store(false)
}

func offerFields(offer domain.OfferID, st domain.OfferStock) []EmbedField {
	return []EmbedField{
		{Name: "Size", Value: st.Label, Inline: true},
		{Name: "Price", Value: fmt.Sprintf("%.2f", st.Price), Inline: true},
		{Name: "Available", Value: strconv.Itoa(st.Available), Inline: true},
		{Name: "Offer", Value: string(offer), Inline: true},
	}
}
