package health

import (
	"errors"
	"net/http"

	"github.com/yourusername/race-insights/internal/models"
	"github.com/yourusername/race-insights/internal/service"
	"github.com/yourusername/race-insights/internal/session"
)

// Results is the read side of the results service exposed over HTTP
type Results interface {
	Ready() bool
	Session() *session.Session
	Analysis(raceID string) (models.Analysis, error)
	SelectedAnalysis() (models.Analysis, error)
	MeetingSummary() models.MeetingSummary
	LastReport() (*service.LoadReport, bool)
}

// ErrorResponse is the body of every failed API request
type ErrorResponse struct {
	Error string `json:"error"`
}

// ReportResponse describes the last applied load
type ReportResponse struct {
	Date     string   `json:"date"`
	Source   string   `json:"source"`
	Sequence uint64   `json:"sequence"`
	Fetched  int      `json:"fetched"`
	Accepted int      `json:"accepted"`
	Rejected []string `json:"rejected"`
	Duration string   `json:"duration"`
}

func (s *Server) registerAPI(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/session", s.handleSession)
	mux.HandleFunc("GET /api/races", s.handleRaces)
	mux.HandleFunc("GET /api/races/{id}/analysis", s.handleAnalysis)
	mux.HandleFunc("GET /api/analysis", s.handleSelectedAnalysis)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/report", s.handleReport)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.results.Session().Snapshot())
}

// handleRaces lists the working set; ?venue= filters without touching the session
func (s *Server) handleRaces(w http.ResponseWriter, r *http.Request) {
	records := s.results.Session().Records()
	venue := r.URL.Query().Get("venue")
	if venue == "" {
		writeJSON(w, http.StatusOK, records)
		return
	}
	filtered := make([]models.RaceRecord, 0, len(records))
	for _, race := range records {
		if race.Venue() == venue {
			filtered = append(filtered, race)
		}
	}
	writeJSON(w, http.StatusOK, filtered)
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	a, err := s.results.Analysis(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleSelectedAnalysis(w http.ResponseWriter, r *http.Request) {
	a, err := s.results.SelectedAnalysis()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.results.MeetingSummary())
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, ok := s.results.LastReport()
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "no meeting loaded"})
		return
	}
	rejected := make([]string, 0, len(report.Rejected))
	for _, e := range report.Rejected {
		rejected = append(rejected, e.Error())
	}
	writeJSON(w, http.StatusOK, ReportResponse{
		Date:     report.Date.Format("2006-01-02"),
		Source:   report.Source,
		Sequence: report.Sequence,
		Fetched:  report.Fetched,
		Accepted: report.Accepted,
		Rejected: rejected,
		Duration: report.Duration.String(),
	})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrRaceNotFound), errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrPrecondition):
		status = http.StatusConflict
	case errors.Is(err, models.ErrInvalidInput):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		s.logger.WithError(err).Error("API request failed")
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}
