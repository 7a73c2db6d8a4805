package domain

import "time"

type ProductID string

// OfferID identifies one size/variant of a product. The vendor assigns one
// stock count and price per offer, independent of the product itself.
type OfferID string

// OfferStock is the observed state of a single offer at one poll.
type OfferStock struct {
	Available int     `json:"available"`
	Label     string  `json:"label"`
	Price     float64 `json:"price"`
}

// StockSnapshot maps every offer the vendor reported for a product to its
// observed state. Built fresh each poll and never mutated afterwards.
type StockSnapshot map[OfferID]OfferStock

// SizeInfo is the display cache entry kept per offer (label/price), updated
// every poll whether or not the offer is watched.
type SizeInfo struct {
	Label string  `json:"label"`
	Price float64 `json:"price"`
}

// CartResult is the vendor's answer to an add-to-cart attempt. A rejection
// (sold out, cart full, ...) is Accepted=false with a Reason, not an error.
type CartResult struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// ProductView is the read-only registry snapshot handed to the HTTP layer.
type ProductView struct {
	ProductID     ProductID              `json:"product_id"`
	WatchedSizes  []OfferID              `json:"watched_sizes"`
	PreviousStock map[OfferID]OfferStock `json:"previous_stock"`
	Notified      []OfferID              `json:"notified"`
	SizeMapping   map[OfferID]SizeInfo   `json:"size_mapping"`
}

const (
	ActionRegister   = "register"
	ActionUnregister = "unregister"
)

// RegistrationEvent records one watch-list change for the history store.
type RegistrationEvent struct {
	ID        string    `json:"id"`
	ProductID ProductID `json:"product_id"`
	Action    string    `json:"action"`
	Sizes     []OfferID `json:"sizes,omitempty"`
	At        time.Time `json:"at"`
}
