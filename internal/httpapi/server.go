package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/mboehm/sizewatch/internal/domain"
	"github.com/mboehm/sizewatch/internal/httpapi/middleware"
	"github.com/mboehm/sizewatch/internal/monitor"
	"github.com/mboehm/sizewatch/internal/repo"
	"github.com/mboehm/sizewatch/internal/vendor"
)

// VendorGateway is the slice of the vendor client the route layer needs:
// the registration flow fetches the initial snapshot itself, and the
// credentials endpoint swaps auth material at runtime.
type VendorGateway interface {
	FetchStock(ctx context.Context, id domain.ProductID) (domain.StockSnapshot, error)
	SetCredentials(creds vendor.Credentials)
}

// PollControl is what the route layer may do to the scheduler.
type PollControl interface {
	Start()
	Stop()
	Running() bool
}

// AuthAlertReset re-arms the one-shot credential-expiry alert.
type AuthAlertReset interface {
	ResetAuth()
}

type Server struct {
	Logger  *zap.Logger
	Monitor *monitor.Monitor
	Poller  PollControl
	Vendor  VendorGateway
	Alerts  AuthAlertReset
	History repo.HistoryStore

	Keys          middleware.Keys
	APIRatePerMin int
	APIBurst      int
}

func NewServer(
	l *zap.Logger,
	mon *monitor.Monitor,
	poller PollControl,
	vendorClient VendorGateway,
	alerts AuthAlertReset,
	history repo.HistoryStore,
) *Server {
	return &Server{
		Logger:  l,
		Monitor: mon,
		Poller:  poller,
		Vendor:  vendorClient,
		Alerts:  alerts,
		History: history,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(s.APIRatePerMin, s.APIBurst))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAny(s.Keys))
			r.Get("/products", s.handleListProducts)
			r.Get("/history", s.handleHistory)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(s.Keys))
			r.Post("/products", s.handleRegister)
			r.Delete("/products/{productID}", s.handleUnregister)
			r.Post("/products/{productID}/reset", s.handleReset)
			r.Put("/credentials", s.handleCredentials)
		})
	})

	return r
}

type registerPayload struct {
	ProductID string   `json:"product_id"`
	Sizes     []string `json:"sizes"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var p registerPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.ProductID == "" || len(p.Sizes) == 0 {
		httpError(w, http.StatusBadRequest, "product_id and a non-empty sizes list are required")
		return
	}
	pid := domain.ProductID(p.ProductID)
	sizes := make([]domain.OfferID, 0, len(p.Sizes))
	for _, sz := range p.Sizes {
		if sz != "" {
			sizes = append(sizes, domain.OfferID(sz))
		}
	}
	if len(sizes) == 0 {
		httpError(w, http.StatusBadRequest, "sizes must not be empty")
		return
	}

	// The initial snapshot is fetched here, not inside Register: sizes that
	// are already in stock get their cart/notify pass now, and registration
	// just records the result.
	snap, err := s.Vendor.FetchStock(r.Context(), pid)
	if err != nil {
		s.Logger.Warn("register_fetch_error", zap.String("product", p.ProductID), zap.Error(err))
		if errors.Is(err, vendor.ErrUnauthorized) {
			httpError(w, http.StatusBadGateway, "vendor rejected our credentials")
			return
		}
		httpError(w, http.StatusBadGateway, "vendor unreachable")
		return
	}

	wasEmpty := s.Monitor.Count() == 0
	s.Monitor.InitialPass(r.Context(), pid, sizes, snap)
	s.Monitor.Register(pid, sizes, snap)

	if err := s.History.Append(r.Context(), &domain.RegistrationEvent{
		ProductID: pid,
		Action:    domain.ActionRegister,
		Sizes:     sizes,
		At:        time.Now().UTC(),
	}); err != nil {
		s.Logger.Warn("history_append_error", zap.Error(err))
	}

	if wasEmpty {
		s.Poller.Start()
	}

	s.Logger.Info("product_registered",
		zap.String("product", p.ProductID),
		zap.Int("sizes", len(sizes)),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"product_id": pid,
		"snapshot":   snap,
	})
}

func (s *Server) handleUnregister(w http.ResponseWriter, r *http.Request) {
	pid := domain.ProductID(chi.URLParam(r, "productID"))

	empty := s.Monitor.Unregister(pid)
	if err := s.History.Append(r.Context(), &domain.RegistrationEvent{
		ProductID: pid,
		Action:    domain.ActionUnregister,
		At:        time.Now().UTC(),
	}); err != nil {
		s.Logger.Warn("history_append_error", zap.Error(err))
	}
	if empty {
		s.Poller.Stop()
	}

	s.Logger.Info("product_unregistered", zap.String("product", string(pid)))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	pid := domain.ProductID(chi.URLParam(r, "productID"))
	if err := s.Monitor.ResetNotified(pid); err != nil {
		if errors.Is(err, monitor.ErrNotFound) {
			httpError(w, http.StatusNotFound, "product not watched")
			return
		}
		httpError(w, http.StatusInternalServerError, "reset failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"running":  s.Poller.Running(),
		"products": s.Monitor.Products(),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	events, err := s.History.List(r.Context())
	if err != nil {
		httpError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

type credentialsPayload struct {
	Headers  map[string]string `json:"headers"`
	Token    string            `json:"token"`
	ClientID string            `json:"client_id"`
	CRMID    string            `json:"crm_id"`
}

func (s *Server) handleCredentials(w http.ResponseWriter, r *http.Request) {
	var p credentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httpError(w, http.StatusBadRequest, "bad payload")
		return
	}
	h := http.Header{}
	for k, v := range p.Headers {
		h.Set(k, v)
	}
	s.Vendor.SetCredentials(vendor.Credentials{
		Headers:  h,
		Token:    p.Token,
		ClientID: p.ClientID,
		CRMID:    p.CRMID,
	})
	// Fresh credentials start a new expiry episode.
	s.Alerts.ResetAuth()

	s.Logger.Info("credentials_updated")
	w.WriteHeader(http.StatusNoContent)
}

func httpError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
