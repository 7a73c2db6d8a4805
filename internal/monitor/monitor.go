package monitor

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mboehm/sizewatch/internal/domain"
	"github.com/mboehm/sizewatch/internal/vendor"
)

// ErrNotFound is returned for operations on a product that is not watched.
var ErrNotFound = errors.New("monitor: product not watched")

// StockClient is the slice of the vendor client the monitor needs.
type StockClient interface {
	FetchStock(ctx context.Context, id domain.ProductID) (domain.StockSnapshot, error)
	AddToCart(ctx context.Context, id domain.ProductID, offer domain.OfferID) (domain.CartResult, error)
}

// Alerter delivers the outbound messages. AuthExpired is expected to be
// idempotent per expiry episode; the monitor calls it on every auth failure.
type Alerter interface {
	StockFound(ctx context.Context, product domain.ProductID, offer domain.OfferID, st domain.OfferStock) error
	CartAdded(ctx context.Context, product domain.ProductID, offer domain.OfferID, st domain.OfferStock, deadline time.Time) error
	AuthExpired(ctx context.Context) error
}

// watched is one product's state. sizes is immutable after construction;
// prev, notified and sizeMap are only touched while holding the registry
// lock. Re-registration replaces the whole record.
type watched struct {
	sizes    map[domain.OfferID]struct{}
	prev     domain.StockSnapshot
	notified map[domain.OfferID]struct{}
	sizeMap  map[domain.OfferID]domain.SizeInfo
}

// Monitor owns the watch registry and the stock-transition logic: it compares
// each poll's snapshot against the previous one, fires the cart-add-or-notify
// decision on out-of-stock → in-stock transitions, and re-arms alerting when
// an offer sells out again.
type Monitor struct {
	logger *zap.Logger
	client StockClient
	alerts Alerter
	window time.Duration // vendor-side cart reservation window

	mu       sync.RWMutex
	products map[domain.ProductID]*watched
}

func New(logger *zap.Logger, client StockClient, alerts Alerter, window time.Duration) *Monitor {
	if window <= 0 {
		window = 30 * time.Minute
	}
	return &Monitor{
		logger:   logger,
		client:   client,
		alerts:   alerts,
		window:   window,
		products: make(map[domain.ProductID]*watched),
	}
}

// Register creates or replaces the watch entry for a product. The caller is
// expected to have fetched initial itself and run InitialPass first; Register
// only records the outcome, so every watched offer already in stock starts
// out as notified and will not fire again until it sells out and returns.
func (m *Monitor) Register(id domain.ProductID, sizes []domain.OfferID, initial domain.StockSnapshot) {
	w := &watched{
		sizes:    make(map[domain.OfferID]struct{}, len(sizes)),
		prev:     initial,
		notified: make(map[domain.OfferID]struct{}),
		sizeMap:  make(map[domain.OfferID]domain.SizeInfo, len(initial)),
	}
	for _, s := range sizes {
		w.sizes[s] = struct{}{}
	}
	for offer, st := range initial {
		w.sizeMap[offer] = domain.SizeInfo{Label: st.Label, Price: st.Price}
		if _, ok := w.sizes[offer]; ok && st.Available > 0 {
			w.notified[offer] = struct{}{}
		}
	}

	m.mu.Lock()
	m.products[id] = w
	m.mu.Unlock()
}

// InitialPass runs the cart-add-or-notify decision for every watched offer
// that is already in stock in snap. The registration flow calls this before
// Register so a size sitting in stock right now is handled immediately
// instead of waiting for its next restock.
func (m *Monitor) InitialPass(ctx context.Context, id domain.ProductID, sizes []domain.OfferID, snap domain.StockSnapshot) {
	watchedSet := make(map[domain.OfferID]struct{}, len(sizes))
	for _, s := range sizes {
		watchedSet[s] = struct{}{}
	}
	for _, offer := range sortedOffers(snap) {
		if _, ok := watchedSet[offer]; !ok {
			continue
		}
		if st := snap[offer]; st.Available > 0 {
			m.handleTransition(ctx, id, offer, st)
		}
	}
}

// Unregister removes a product. No-op when absent. Returns true when the
// registry is empty afterwards, i.e. polling should stop.
func (m *Monitor) Unregister(id domain.ProductID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, id)
	return len(m.products) == 0
}

// ResetNotified clears the notified set for one product so sizes that are
// already in stock alert again without an out-of-stock cycle in between. The
// previous snapshot is dropped too: an absent entry reads as out of stock, so
// the next poll treats current availability as a fresh transition.
func (m *Monitor) ResetNotified(id domain.ProductID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := m.products[id]
	if w == nil {
		return ErrNotFound
	}
	w.notified = make(map[domain.OfferID]struct{})
	w.prev = domain.StockSnapshot{}
	return nil
}

func (m *Monitor) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.products)
}

// Products returns a deep-copied, sorted view of the registry for the HTTP
// layer to render.
func (m *Monitor) Products() []domain.ProductView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.ProductView, 0, len(m.products))
	for id, w := range m.products {
		stock := make(map[domain.OfferID]domain.OfferStock, len(w.prev))
		for o, st := range w.prev {
			stock[o] = st
		}
		sizeMap := make(map[domain.OfferID]domain.SizeInfo, len(w.sizeMap))
		for o, si := range w.sizeMap {
			sizeMap[o] = si
		}
		out = append(out, domain.ProductView{
			ProductID:     id,
			WatchedSizes:  sortedSet(w.sizes),
			PreviousStock: stock,
			Notified:      sortedSet(w.notified),
			SizeMapping:   sizeMap,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

// Tick polls every watched product once, strictly in sequence. A per-product
// failure skips that product for this cycle only; the rest still run.
func (m *Monitor) Tick(ctx context.Context) {
	m.mu.RLock()
	ids := make([]domain.ProductID, 0, len(m.products))
	for id := range m.products {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		m.checkProduct(ctx, id)
	}
}

func (m *Monitor) checkProduct(ctx context.Context, id domain.ProductID) {
	m.mu.RLock()
	w := m.products[id]
	if w == nil {
		m.mu.RUnlock()
		return
	}
	prev := w.prev
	sizes := w.sizes
	notified := make(map[domain.OfferID]struct{}, len(w.notified))
	for o := range w.notified {
		notified[o] = struct{}{}
	}
	m.mu.RUnlock()

	snap, err := m.client.FetchStock(ctx, id)
	if err != nil {
		if errors.Is(err, vendor.ErrUnauthorized) {
			m.logger.Warn("stock_fetch_unauthorized", zap.String("product", string(id)))
			if aerr := m.alerts.AuthExpired(ctx); aerr != nil {
				m.logger.Warn("auth_alert_error", zap.Error(aerr))
			}
			return
		}
		m.logger.Warn("stock_fetch_error", zap.String("product", string(id)), zap.Error(err))
		return
	}

	var fired, rearmed []domain.OfferID
	for _, offer := range sortedOffers(snap) {
		st := snap[offer]
		_, watchedSize := sizes[offer]
		_, already := notified[offer]
		wasOut := prev[offer].Available == 0 // absent entry reads as zero
		nowIn := st.Available > 0

		if watchedSize && wasOut && nowIn && !already {
			m.handleTransition(ctx, id, offer, st)
			fired = append(fired, offer)
		}
		if already && !nowIn {
			rearmed = append(rearmed, offer)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.products[id] != w {
		// re-registered or removed while the poll was in flight
		return
	}
	for _, o := range fired {
		w.notified[o] = struct{}{}
	}
	for _, o := range rearmed {
		delete(w.notified, o)
	}
	for offer, st := range snap {
		w.sizeMap[offer] = domain.SizeInfo{Label: st.Label, Price: st.Price}
	}
	w.prev = snap
}

// handleTransition attempts the cart-add exactly once per transition event.
// Any failure, vendor rejection included, falls back to the manual-checkout
// alert; the caller marks the offer notified either way, so the attempt is
// not repeated every tick while the size stays in stock.
func (m *Monitor) handleTransition(ctx context.Context, id domain.ProductID, offer domain.OfferID, st domain.OfferStock) {
	res, err := m.client.AddToCart(ctx, id, offer)
	if err == nil && res.Accepted {
		deadline := time.Now().Add(m.window)
		m.logger.Info("cart_added",
			zap.String("product", string(id)),
			zap.String("offer", string(offer)),
			zap.Time("checkout_deadline", deadline),
		)
		if nerr := m.alerts.CartAdded(ctx, id, offer, st, deadline); nerr != nil {
			m.logger.Warn("notify_error", zap.Error(nerr))
		}
		return
	}
	if err != nil {
		m.logger.Warn("cart_add_error",
			zap.String("product", string(id)),
			zap.String("offer", string(offer)),
			zap.Error(err),
		)
	} else {
		m.logger.Info("cart_add_rejected",
			zap.String("product", string(id)),
			zap.String("offer", string(offer)),
			zap.String("reason", res.Reason),
		)
	}
	if nerr := m.alerts.StockFound(ctx, id, offer, st); nerr != nil {
		m.logger.Warn("notify_error", zap.Error(nerr))
	}
}

func sortedOffers(snap domain.StockSnapshot) []domain.OfferID {
	out := make([]domain.OfferID, 0, len(snap))
	for o := range snap {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedSet(set map[domain.OfferID]struct{}) []domain.OfferID {
	out := make([]domain.OfferID, 0, len(set))
	for o := range set {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
