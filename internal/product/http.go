package product

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"ProductService/pkg/kit"
)

const (
	maxBodyBytes = 1 << 20
	readyTimeout = 1 * time.Second
)

type Server struct {
	Store Store
	Log   *zap.Logger
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.ready)

	r.Get("/products", s.list)
	r.Post("/products", s.create)

	return r
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	p, ok := s.Store.(Pinger)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := p.Ping(ctx); err != nil {
		s.logger().Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	products, err := s.Store.ListAll(r.Context())
	if err != nil {
		s.writeStoreError(w, r, "list products failed", err)
		return
	}
	if products == nil {
		products = []Product{}
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var in *Product
	if err := kit.DecodeJSON(w, r, maxBodyBytes, &in); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, kit.ErrBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		kit.WriteError(w, r, status, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if in == nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": "product body is null"})
		return
	}

	saved, err := s.Store.Save(r.Context(), *in)
	if err != nil {
		s.writeStoreError(w, r, "save product failed", err)
		return
	}

	s.logger().Debug("product saved",
		zap.String("request_id", chimw.GetReqID(r.Context())),
		zap.Int64("id", saved.ID),
	)
	kit.WriteJSON(w, http.StatusCreated, saved)
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	log := s.logger().With(
		zap.String("request_id", chimw.GetReqID(r.Context())),
		zap.Error(err),
	)

	switch {
	case errors.Is(err, ErrConstraintViolation):
		log.Warn(msg)
		kit.WriteError(w, r, http.StatusUnprocessableEntity, "constraint violation", map[string]any{"cause": err.Error()})
	case isTimeoutErr(err):
		log.Error(msg)
		kit.WriteError(w, r, http.StatusGatewayTimeout, "timeout", nil)
	case errors.Is(err, ErrStorageUnavailable):
		log.Error(msg)
		kit.WriteError(w, r, http.StatusServiceUnavailable, "storage unavailable", nil)
	default:
		log.Error(msg)
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
