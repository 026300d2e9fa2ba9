// Package server exposes a Service over HTTP: op submission, snapshot and
// op-log reads, a health check and the prometheus endpoint. It is thin
// transport glue; routing beyond these endpoints belongs to the host
// application.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-logr/logr"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/viant/gridsync/adapter"
	"github.com/viant/gridsync/docsync"
	"github.com/viant/gridsync/errs"
	"github.com/viant/gridsync/oplog"
	"github.com/viant/gridsync/snapshot"
)

// Caller identity headers. A request carrying none of them is anonymous.
const (
	HeaderUser    = "X-Gridsync-User"
	HeaderShareID = "X-Gridsync-Share"
)

// Handler returns the router serving svc and the metrics of gatherer.
func Handler(svc *docsync.Service, gatherer prometheus.Gatherer, logger logr.Logger) http.Handler {
	s := &server{svc: svc, logger: logger.WithName("http")}

	router := mux.NewRouter()
	router.HandleFunc("/health", s.getHealth).Methods("GET").Name("GetHealth")
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET").Name("GetMetrics")

	router.HandleFunc("/collections/{collection}/docs/{id}", s.getSnapshot).Methods("GET").Name("GetSnapshot")
	router.HandleFunc("/collections/{collection}/docs/{id}/ops", s.getOps).Methods("GET").Name("GetOps")
	router.HandleFunc("/collections/{collection}/docs/{id}/ops", s.postOp).Methods("POST").Name("PostOp")
	router.HandleFunc("/collections/{collection}/poll", s.postPoll).Methods("POST").Name("PostPoll")
	return router
}

type server struct {
	svc    *docsync.Service
	logger logr.Logger
}

// GET /health
func (s *server) getHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// GET /collections/{collection}/docs/{id}
func (s *server) getSnapshot(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	snap, err := s.svc.Snapshot(withCaller(r), vars["collection"], vars["id"], projection(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, snap)
}

// GET /collections/{collection}/docs/{id}/ops?from=&to=
func (s *server) getOps(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	from, err := version(r, "from", 0)
	if err != nil {
		s.writeError(w, err)
		return
	}
	to, err := version(r, "to", oplog.Latest)
	if err != nil {
		s.writeError(w, err)
		return
	}
	ops, err := s.svc.Ops(r.Context(), vars["collection"], vars["id"], from, to)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ops == nil {
		ops = []oplog.Op{}
	}
	s.writeJSON(w, ops)
}

// POST /collections/{collection}/docs/{id}/ops
func (s *server) postOp(w http.ResponseWriter, r *http.Request) {
	body := r.Body
	defer body.Close()

	var op oplog.Op
	if err := json.NewDecoder(body).Decode(&op); err != nil {
		s.writeError(w, errs.Wrap(err, errs.Validation, "decode op"))
		return
	}
	vars := mux.Vars(r)
	snap, err := s.svc.Submit(r.Context(), vars["collection"], vars["id"], op)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, snap)
}

// POST /collections/{collection}/poll
func (s *server) postPoll(w http.ResponseWriter, r *http.Request) {
	body := r.Body
	defer body.Close()

	query := adapter.Query{}
	if err := json.NewDecoder(body).Decode(&query); err != nil {
		s.writeError(w, errs.Wrap(err, errs.Validation, "decode query"))
		return
	}
	ids, err := s.svc.QueryPoll(withCaller(r), mux.Vars(r)["collection"], query)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, ids)
}

func (s *server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(err, "encode response")
	}
}

// writeError responds with the coded error shape and a status chosen by
// its code.
func (s *server) writeError(w http.ResponseWriter, err error) {
	coded := errs.Normalize(err)
	status := StatusOf(coded.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Error(err, "request failed", "code", coded.Code)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(coded)
}

// StatusOf maps an error code to an HTTP status.
func StatusOf(code errs.Code) int {
	switch code {
	case errs.Validation, errs.UnknownCollection, errs.InvalidVersion:
		return http.StatusBadRequest
	case errs.Unauthorized:
		return http.StatusUnauthorized
	case errs.NotFound:
		return http.StatusNotFound
	case errs.StaleVersion:
		return http.StatusConflict
	case errs.NotImplemented:
		return http.StatusNotImplemented
	case errs.Unavailable, errs.Canceled:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func withCaller(r *http.Request) context.Context {
	caller := adapter.Caller{UserID: r.Header.Get(HeaderUser), Cookie: r.Header.Get("Cookie"), ShareID: r.Header.Get(HeaderShareID)}
	if !caller.Valid() {
		return r.Context()
	}
	return adapter.WithCaller(r.Context(), caller)
}

// projection reads repeated "field" parameters.
func projection(r *http.Request) snapshot.Projection {
	fields := r.URL.Query()["field"]
	if len(fields) == 0 {
		return nil
	}
	p := make(snapshot.Projection, len(fields))
	for _, f := range fields {
		p[f] = true
	}
	return p
}

func version(r *http.Request, key string, fallback int64) (int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errs.Errorf(errs.Validation, "invalid %s version %q", key, raw)
	}
	return v, nil
}
