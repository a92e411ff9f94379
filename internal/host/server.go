package host

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/Tiliavir/tasktime/internal/activity"
	"github.com/Tiliavir/tasktime/internal/bridge"
	"github.com/Tiliavir/tasktime/internal/export"
)

// maxBodyBytes caps request bodies; exports of long sessions are the largest.
const maxBodyBytes = 32 << 20

// Server serves the bridge API of the host process.
type Server struct {
	recorder *Recorder
	sampler  SnapshotSource
	exporter *Exporter
	token    string
}

// NewServer returns a Server that accepts requests bearing token.
func NewServer(rec *Recorder, src SnapshotSource, exp *Exporter, token string) *Server {
	return &Server{recorder: rec, sampler: src, exporter: exp, token: token}
}

// NewToken returns a random bearer token for one host process lifetime.
func NewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Handler returns the HTTP routes of the bridge API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.Route("/bridge", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Post("/"+bridge.OpStart, s.handleStart)
		r.Post("/"+bridge.OpStop, s.handleStop)
		r.Post("/"+bridge.OpExport, s.handleExport)
		r.Get("/"+bridge.OpGetCurrent, s.handleCurrent)
	})
	return r
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeResult[T any](w http.ResponseWriter, res bridge.Result[T]) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		log.Error().Err(err).Msg("Failed to encode bridge response")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req bridge.StartRequest
	if err := decode(w, r, &req); err != nil {
		writeResult(w, bridge.Fail[bridge.Ack]("invalid start request: "+err.Error()))
		return
	}
	if req.SessionID == "" {
		writeResult(w, bridge.Fail[bridge.Ack]("sessionId is required"))
		return
	}
	if dropped := s.recorder.Start(req.SessionID); dropped > 0 {
		log.Warn().Str("session", req.SessionID).Int("dropped", dropped).Msg("Replaced recording session, discarded its samples")
	}
	log.Info().Str("session", req.SessionID).Msg("Recording started")
	writeResult(w, bridge.OK(bridge.Ack{}))
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	id, snaps := s.recorder.Stop()
	if snaps == nil {
		snaps = []activity.Snapshot{}
	}
	if id != "" {
		log.Info().Str("session", id).Int("entries", len(snaps)).Msg("Recording stopped")
	}
	writeResult(w, bridge.OK(bridge.StopData{EntriesRecorded: len(snaps), Entries: snaps}))
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	writeResult(w, bridge.OK(s.sampler.Sample(r.Context())))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req bridge.ExportRequest
	if err := decode(w, r, &req); err != nil {
		writeResult(w, bridge.Fail[bridge.ExportData]("invalid export request: "+err.Error()))
		return
	}
	f, err := export.ParseFormat(string(req.Format))
	if err != nil {
		writeResult(w, bridge.Fail[bridge.ExportData](err.Error()))
		return
	}

	path, err := s.exporter.Export(r.Context(), req.Entries, f, req.TaskName)
	if errors.Is(err, ErrExportCancelled) {
		writeResult(w, bridge.Fail[bridge.ExportData](bridge.ErrExportCancelled))
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Export failed")
		writeResult(w, bridge.Fail[bridge.ExportData](err.Error()))
		return
	}
	log.Info().Str("path", path).Int("entries", len(req.Entries)).Msg("Activity exported")
	writeResult(w, bridge.OK(bridge.ExportData{FilePath: path}))
}
