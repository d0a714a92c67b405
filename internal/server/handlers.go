package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/agbru/cpuwatch/internal/distributor"
	apperrors "github.com/agbru/cpuwatch/internal/errors"
	"github.com/agbru/cpuwatch/internal/logging"
	"github.com/agbru/cpuwatch/internal/snapshot"
)

// seqHeader carries the snapshot sequence number so that polling clients can
// long-poll with ?after=<seq>.
const seqHeader = "X-Snapshot-Seq"

func (s *Server) handleHealthcheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("I am alive"))
}

// readSnapshot resolves the snapshot a one-shot request asks for:
//   - no parameter: the latest one, possibly none yet;
//   - ?after=N: block until a snapshot newer than N exists;
//   - ?fresh=true: block until a snapshot newer than the current one exists.
//
// It writes the error response itself and returns handled=true in that case.
func (s *Server) readSnapshot(w http.ResponseWriter, r *http.Request) (snap snapshot.Snapshot, ok, handled bool) {
	q := r.URL.Query()

	after, wait := uint64(0), false
	if v := q.Get("after"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			verr := apperrors.ValidationError{Field: "after", Message: "must be a snapshot sequence number"}
			http.Error(w, verr.Error(), http.StatusBadRequest)
			return snapshot.Snapshot{}, false, true
		}
		after, wait = n, true
	} else if fresh, _ := strconv.ParseBool(q.Get("fresh")); fresh {
		if latest, exists := s.dist.Latest(); exists {
			after = latest.Seq
		}
		wait = true
	}

	if !wait {
		snap, ok = s.dist.Latest()
		return snap, ok, false
	}

	snap, err := s.dist.NextAfter(r.Context(), after)
	switch {
	case err == nil:
		return snap, true, false
	case errors.Is(err, distributor.ErrClosed):
		http.Error(w, "sampler stopped", http.StatusServiceUnavailable)
	case apperrors.IsContextError(err):
		s.logger.Debug("client left before next sample", logging.String("path", r.URL.Path))
	default:
		s.logger.Error("wait for snapshot", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
	return snapshot.Snapshot{}, false, true
}

func setSeq(w http.ResponseWriter, snap snapshot.Snapshot) {
	w.Header().Set(seqHeader, strconv.FormatUint(snap.Seq, 10))
}

// handleText writes one "CPU <i> <pct>%" line per core. The body is empty
// until the first sample.
func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	snap, ok, handled := s.readSnapshot(w, r)
	if handled {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	setSeq(w, snap)
	if err := snap.WriteText(w); err != nil {
		s.logger.Debug("write text response", logging.Err(err))
	}
}

// handleJSON writes the per-core percentages as a JSON array, [] until the
// first sample.
func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap, ok, handled := s.readSnapshot(w, r)
	if handled {
		return
	}
	if ok {
		setSeq(w, snap)
	}
	s.writeJSON(w, snap.Percentages())
}

// handleSnapshot writes the full snapshot, or 204 before the first sample.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, ok, handled := s.readSnapshot(w, r)
	if handled {
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	setSeq(w, snap)
	s.writeJSON(w, snap)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("write json response", logging.Err(err))
	}
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.logger.Debug("metrics: method not allowed", logging.String("method", r.Method))
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	s.metrics.WritePrometheus(w, r)
}

func (s *Server) handleAsset(a asset) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := fs.ReadFile(s.static, a.name)
		if err != nil {
			s.logger.Warn("dashboard asset missing", logging.String("name", a.name), logging.Err(err))
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", a.contentType)
		w.Header().Set("Content-Security-Policy", dashboardCSP)
		http.ServeContent(w, r, a.name, s.started, bytes.NewReader(data))
	}
}
