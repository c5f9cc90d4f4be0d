package clicks

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"LoanScout/internal/admin"
	"LoanScout/pkg/kit"
)

const maxBodyBytes = 64 << 10

type Server struct {
	Recorder *Recorder
	Storage  Storage
	Auth     *admin.Auth
	Log      *zap.Logger
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
	defer cancel()

	if err := s.Storage.Ping(ctx); err != nil {
		if s.Log != nil {
			s.Log.Warn("readyz failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type recordReq struct {
	ProductID   int            `json:"product_id"`
	ProductName string         `json:"product_name"`
	Commission  float64        `json:"commission"`
	Extra       map[string]any `json:"extra"`
}

func (s *Server) record(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRecordRequest(w, r)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}
	if req.ProductID <= 0 || req.ProductName == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "product_id and product_name required", nil)
		return
	}

	ev := s.Recorder.Record(r.Context(), Click{
		ProductID:   req.ProductID,
		ProductName: req.ProductName,
		Commission:  req.Commission,
		UserAgent:   r.UserAgent(),
		Referrer:    r.Referer(),
		Extra:       req.Extra,
	})

	kit.WriteJSON(w, http.StatusCreated, ev)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Recorder.Stats())
}

type productStatsReq struct {
	ProductIDs []int `json:"product_ids"`
}

func (s *Server) productStats(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req productStatsReq
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}
	if len(req.ProductIDs) == 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "product_ids required", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, s.Recorder.ProductStatsFor(req.ProductIDs))
}

func decodeRecordRequest(w http.ResponseWriter, r *http.Request) (recordReq, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req recordReq
	if err := dec.Decode(&req); err != nil {
		return recordReq{}, err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return recordReq{}, errors.New("extra data after json object")
	}

	return req, nil
}
