// Package server exposes the reconciliation engine over HTTP: trigger runs,
// fetch status, download rendered reports, and work the exception queue.
package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/recondesk-dev/recondesk/internal/config"
	"github.com/recondesk-dev/recondesk/internal/discovery"
	"github.com/recondesk-dev/recondesk/internal/engine"
	"github.com/recondesk-dev/recondesk/internal/exceptions"
	"github.com/recondesk-dev/recondesk/internal/model"
	"github.com/recondesk-dev/recondesk/internal/report"
	"github.com/recondesk-dev/recondesk/internal/runlog"
)

const dateFormat = "2006-01-02"

// Server wires the engine and the exception store behind a chi router. The
// settings snapshot is immutable; administrative updates swap in a new value
// under the lock, so in-flight runs keep the snapshot they started with.
type Server struct {
	mu       sync.RWMutex
	settings config.Settings

	store *exceptions.Store
	log   *slog.Logger
	now   func() time.Time

	dlMu      sync.Mutex
	downloads map[string]download
}

type download struct {
	name string
	data []byte
}

// New creates a Server around a settings snapshot.
func New(settings config.Settings, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		settings:  settings,
		store:     exceptions.NewStore(settings.OutputDir),
		log:       log,
		now:       time.Now,
		downloads: make(map[string]download),
	}
}

// Router returns the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Post("/run/daily", s.handleRunDaily)
	r.Post("/run/now", s.handleRunNow)
	r.Get("/download/{token}", s.handleDownload)
	r.Get("/exceptions", s.handleExceptions)
	r.Post("/exceptions/{id}/resolve", s.handleResolve)
	r.Post("/settings", s.handleSettings)
	return r
}

func (s *Server) snapshot() config.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type entityStatus struct {
	EntityID   string   `json:"entity_id"`
	Name       string   `json:"name"`
	LastRun    string   `json:"last_run,omitempty"`
	ReportDays []string `json:"report_days"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	settings := s.snapshot()

	out := struct {
		AutoEnabled bool           `json:"auto_enabled"`
		AutoTime    string         `json:"auto_time"`
		Entities    []entityStatus `json:"entities"`
	}{
		AutoEnabled: settings.AutoEnabled,
		AutoTime:    settings.AutoTime,
	}
	for _, ent := range settings.Entities {
		es := entityStatus{EntityID: ent.ID, Name: ent.Name, ReportDays: []string{}}
		days, err := engine.RunDates(settings.OutputDir, ent.ID)
		if err != nil {
			s.log.Warn("scanning output dir failed", "entity", ent.ID, "error", err)
		}
		for _, d := range days {
			es.ReportDays = append(es.ReportDays, d.Format(dateFormat))
		}
		if len(days) > 0 {
			es.LastRun = days[len(days)-1].Format(dateFormat)
		}
		out.Entities = append(out.Entities, es)
	}
	writeJSON(w, http.StatusOK, out)
}

type runResponse struct {
	EntityID       string `json:"entity_id"`
	Date           string `json:"date"`
	Green          int    `json:"green"`
	Yellow         int    `json:"yellow"`
	Red            int    `json:"red"`
	TotalVariance  string `json:"total_variance"`
	ExceptionCount int    `json:"exception_count"`
	DownloadToken  string `json:"download_token"`
	OutputFile     string `json:"output_file,omitempty"`
}

func (s *Server) handleRunDaily(w http.ResponseWriter, r *http.Request) {
	day, err := time.Parse(dateFormat, r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid date: %w", err))
		return
	}
	s.runAndRespond(w, r.URL.Query().Get("entity_id"), day, r.URL.Query().Get("save") == "1")
}

func (s *Server) handleRunNow(w http.ResponseWriter, r *http.Request) {
	day := discovery.BusinessDaysLookback(s.now().UTC(), 1)[0]
	s.runAndRespond(w, r.URL.Query().Get("entity_id"), day, true)
}

func (s *Server) runAndRespond(w http.ResponseWriter, entityID string, day time.Time, save bool) {
	settings := s.snapshot()

	res, err := engine.New(settings, s.log).Run(entityID, day)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	resp := runResponse{
		EntityID:       res.EntityID,
		Date:           res.Date.Format(dateFormat),
		Green:          res.Meta.GreenCount,
		Yellow:         res.Meta.YellowCount,
		Red:            res.Meta.RedCount,
		TotalVariance:  res.Meta.TotalVariance.StringFixed(2),
		ExceptionCount: res.Meta.ExceptionCount,
		DownloadToken:  s.stashDownload(res),
	}

	if save {
		outPath := engine.OutputFilename(settings.OutputDir, res.EntityID, res.Date)
		if err := report.Save(outPath, res); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if _, err := s.store.Merge(res.Exceptions); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		entry := runlog.Entry{
			Timestamp:      s.now().UTC(),
			EntityID:       res.EntityID,
			Date:           res.Date,
			Green:          res.Meta.GreenCount,
			Yellow:         res.Meta.YellowCount,
			Red:            res.Meta.RedCount,
			TotalVariance:  res.Meta.TotalVariance,
			ExceptionCount: res.Meta.ExceptionCount,
			OutputFile:     outPath,
		}
		if err := runlog.Append(settings.OutputDir, []runlog.Entry{entry}); err != nil {
			s.log.Warn("appending run log failed", "error", err)
		}
		resp.OutputFile = outPath
	}
	writeJSON(w, http.StatusOK, resp)
}

// stashDownload keeps the rendered workbook in memory behind a one-time
// token.
func (s *Server) stashDownload(res *engine.Result) string {
	data, err := report.Bytes(res)
	if err != nil {
		s.log.Warn("rendering download failed", "error", err)
		return ""
	}
	token := uuid.NewString()
	name := fmt.Sprintf("merchant_recon_%s_%s.xlsx", res.EntityID, res.Date.Format(dateFormat))

	s.dlMu.Lock()
	s.downloads[token] = download{name: name, data: data}
	s.dlMu.Unlock()
	return token
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	s.dlMu.Lock()
	dl, ok := s.downloads[token]
	if ok {
		delete(s.downloads, token)
	}
	s.dlMu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown download token"))
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.name))
	w.Write(dl.data)
}

func (s *Server) handleExceptions(w http.ResponseWriter, _ *http.Request) {
	records, err := s.store.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":      len(records),
		"exceptions": toAPIExceptions(records),
	})
}

type resolveRequest struct {
	Status     string `json:"status"`
	ResolvedBy string `json:"resolved_by"`
	Notes      string `json:"notes"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}
	status := model.ResolutionStatus(req.Status)
	switch status {
	case model.ResolutionNeedsReview, model.ResolutionInProgress,
		model.ResolutionResolved, model.ResolutionApprovedVariance:
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid resolution status %q", req.Status))
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.store.Resolve(id, status, req.ResolvedBy, req.Notes, s.now().UTC()); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": req.Status})
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	var u config.Updates
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}

	s.mu.Lock()
	s.settings = s.settings.WithUpdates(u)
	updated := s.settings
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"auto_enabled":           updated.AutoEnabled,
		"auto_time":              updated.AutoTime,
		"lookback_business_days": updated.LookbackBizDays,
	})
}

type apiException struct {
	ID         string `json:"id"`
	EntityID   string `json:"entity_id"`
	Date       string `json:"date"`
	Processor  string `json:"processor"`
	ReasonCode string `json:"reason_code"`
	Amount     string `json:"amount"`
	Direction  string `json:"direction"`
	ItemCount  int    `json:"item_count"`
	Resolution string `json:"resolution"`
	ResolvedBy string `json:"resolved_by,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

func toAPIExceptions(records []model.ReconException) []apiException {
	out := make([]apiException, 0, len(records))
	for _, ex := range records {
		out = append(out, apiException{
			ID:         ex.ID,
			EntityID:   ex.EntityID,
			Date:       ex.Date.Format(dateFormat),
			Processor:  ex.Processor,
			ReasonCode: string(ex.ReasonCode),
			Amount:     ex.Amount.StringFixed(2),
			Direction:  string(ex.Direction),
			ItemCount:  ex.ItemCount,
			Resolution: string(ex.Resolution),
			ResolvedBy: ex.ResolvedBy,
			Notes:      ex.Notes,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
