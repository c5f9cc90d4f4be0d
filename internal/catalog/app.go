package catalog

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"LoanScout/pkg/kit"
)

type Server struct {
	Catalog *Accessor
	Log     *zap.Logger
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := s.Catalog.Ping(ctx); err != nil {
			if s.Log != nil {
				s.Log.Warn("readyz failed", zap.Error(err))
			}
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/products", s.list)
	r.Get("/products/featured", s.featured)
	r.Get("/products/stats", s.stats)
	r.Get("/products/{id}", s.get)
	r.Get("/categories", s.categories)

	return r
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	f, err := filtersFromQuery(r)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	products, err := s.Catalog.FilteredProducts(r.Context(), f)
	if err != nil {
		s.writeLoadError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) featured(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			kit.WriteError(w, r, http.StatusBadRequest, "bad limit", nil)
			return
		}
		limit = n
	}

	products, err := s.Catalog.FeaturedProducts(r.Context(), limit)
	if err != nil {
		s.writeLoadError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad id", nil)
		return
	}

	p, ok, err := s.Catalog.ProductByID(r.Context(), id)
	if err != nil {
		s.writeLoadError(w, r, err)
		return
	}
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) categories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.Catalog.Categories(r.Context())
	if err != nil {
		s.writeLoadError(w, r, err)
		return
	}
	if cats == nil {
		cats = []string{}
	}
	kit.WriteJSON(w, http.StatusOK, cats)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Catalog.ProductStats(r.Context())
	if err != nil {
		s.writeLoadError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, stats)
}

func filtersFromQuery(r *http.Request) (Filters, error) {
	q := r.URL.Query()

	f := Filters{
		Category: q.Get("category"),
		Query:    q.Get("q"),
	}

	if raw := q.Get("min_amount"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return Filters{}, errors.New("bad min_amount")
		}
		f.AmountMin = n
	}
	if raw := q.Get("max_amount"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return Filters{}, errors.New("bad max_amount")
		}
		f.AmountMax = n
	}

	if raw := q.Get("min_approval"); raw != "" {
		t := ParseTier(raw)
		if t == TierUnknown {
			return Filters{}, errors.New("bad min_approval")
		}
		f.MinApproval = t
	}
	if raw := q.Get("min_popularity"); raw != "" {
		t := ParseTier(raw)
		if t == TierUnknown {
			return Filters{}, errors.New("bad min_popularity")
		}
		f.MinPopularity = t
	}

	return f, nil
}

func (s *Server) writeLoadError(w http.ResponseWriter, r *http.Request, err error) {
	if s.Log != nil {
		s.Log.Error("catalog unavailable", zap.Error(err))
	}
	switch {
	case errors.Is(err, ErrSourceBadStatus), errors.Is(err, ErrSourceBadPayload):
		kit.WriteError(w, r, http.StatusBadGateway, "catalog feed error", nil)
	case errors.Is(err, ErrSourceUnavailable):
		kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog feed unavailable", nil)
	default:
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}
