package http

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"moodqueue/internal/core"
	applog "moodqueue/internal/log"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// handleReady checks the store through the Ready hook when one is set.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if s.ready != nil {
		ctx, cancel := s.storeContext(r)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
	}
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	today := s.aggregator.Today()
	rng := DateRange{Start: today, End: today}

	ctx, cancel := s.storeContext(r)
	defer cancel()
	view := indexView{
		Options:       moodOptions(),
		MaxNoteLength: core.MaxNoteLength,
		Distribution:  newDistributionView(rng, s.aggregator.CountByMood(ctx, rng.Start, rng.End)),
		Notes:         newNotesView(s.aggregator.LatestNoteByMood(ctx)),
	}
	s.render(w, r, "index.html", view)
}

func (s *Server) handleCreateMood(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	in, err := ParseMoodForm(r.PostForm)
	if err != nil {
		msg := "Please choose a mood between 1 and 5."
		if errors.Is(err, core.ErrNoteTooLong) {
			msg = "Note is too long (max " + strconv.Itoa(core.MaxNoteLength) + " characters)."
		}
		UnprocessableEntityError(msg).Write(w)
		return
	}

	ctx, cancel := s.storeContext(r)
	defer cancel()
	if !s.recorder.Submit(ctx, in.Mood, in.Note) {
		InternalServerError(msgLogFailed).Write(w)
		return
	}
	SuccessResponse(msgLogged).
		TriggerMoodLogged(int(in.Mood)).
		TriggerFormReset().
		Write(w)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Submission rate limited",
		applog.FieldClientIP, s.clientIP.Extract(r))
	ErrorResponse(http.StatusTooManyRequests, "Too many submissions. Please wait a minute and try again.").Write(w)
}

// handleDistribution renders the bar partial for ?start=&end=.
func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	rng, err := ParseDateRange(r.URL.Query(), s.aggregator.Today())
	switch {
	case errors.Is(err, ErrRangeOrder):
		s.render(w, r, "distribution", distributionView{Start: rng.Start, End: rng.End, Error: msgRangeOrder})
		return
	case err != nil:
		BadRequestError("Dates must use the YYYY-MM-DD format.").Write(w)
		return
	}

	ctx, cancel := s.storeContext(r)
	defer cancel()
	s.render(w, r, "distribution", newDistributionView(rng, s.aggregator.CountByMood(ctx, rng.Start, rng.End)))
}

func (s *Server) handleNotes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.storeContext(r)
	defer cancel()
	s.render(w, r, "notes", newNotesView(s.aggregator.LatestNoteByMood(ctx)))
}

type countsResponse struct {
	Start  string         `json:"start"`
	End    string         `json:"end"`
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}

type notesResponse struct {
	Notes map[string]string `json:"notes"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleAPICounts(w http.ResponseWriter, r *http.Request) {
	rng, err := ParseDateRange(r.URL.Query(), s.aggregator.Today())
	switch {
	case errors.Is(err, ErrRangeOrder):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgRangeOrder})
		return
	case err != nil:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	ctx, cancel := s.storeContext(r)
	defer cancel()
	counts := s.aggregator.CountByMood(ctx, rng.Start, rng.End)

	resp := countsResponse{Start: rng.Start, End: rng.End, Counts: make(map[string]int, len(counts)), Total: counts.Total()}
	for _, m := range core.Moods() {
		resp.Counts[strconv.Itoa(int(m))] = counts[m]
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAPINotes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.storeContext(r)
	defer cancel()
	notes := s.aggregator.LatestNoteByMood(ctx)

	resp := notesResponse{Notes: make(map[string]string, len(notes))}
	for _, m := range core.Moods() {
		resp.Notes[strconv.Itoa(int(m))] = notes[m]
	}
	writeJSON(w, http.StatusOK, resp)
}

// render executes a template into a buffer so a failure never leaves a
// half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template render failed",
			applog.FieldError, err,
			applog.FieldOperation, applog.OpRender,
			"template", name)
		InternalServerError("Something went wrong rendering this page.").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
