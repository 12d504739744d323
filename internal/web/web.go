package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	goerrors "github.com/go-errors/errors"
	"go.uber.org/zap"

	"github.com/Joseda-hg/lazytodo/internal/app"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/tasks"
	"github.com/Joseda-hg/lazytodo/internal/view"
)

type Server struct {
	ctrl *app.Controller
	repo tasksLister
	log  *zap.Logger
}

type tasksLister interface {
	Tasks() model.Collection
}

func NewServer(ctrl *app.Controller, repo tasksLister, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{ctrl: ctrl, repo: repo, log: log}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.indexHandler)
	mux.HandleFunc("POST /tasks", s.addHandler)
	mux.HandleFunc("POST /tasks/{id}/toggle", s.toggleHandler)
	mux.HandleFunc("GET /tasks/{id}/edit", s.beginEditHandler)
	mux.HandleFunc("POST /edit", s.confirmEditHandler)
	mux.HandleFunc("POST /edit/cancel", s.cancelEditHandler)
	mux.HandleFunc("GET /tasks/{id}/delete", s.beginDeleteHandler)
	mux.HandleFunc("POST /delete", s.confirmDeleteHandler)
	mux.HandleFunc("POST /delete/cancel", s.cancelDeleteHandler)
	mux.HandleFunc("GET /api/tasks", s.apiTasksHandler)
	return mux
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, http.StatusOK, "", "")
}

func (s *Server) addHandler(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("name")
	s.dispatch(w, r, app.AddTask{Text: name}, name)
}

func (s *Server) toggleHandler(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, app.ToggleDone{ID: r.PathValue("id")}, "")
}

func (s *Server) beginEditHandler(w http.ResponseWriter, r *http.Request) {
	s.dispatchAndShow(w, r, app.BeginEdit{ID: r.PathValue("id")})
}

func (s *Server) confirmEditHandler(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, app.ConfirmEdit{Text: r.FormValue("name")}, "")
}

func (s *Server) cancelEditHandler(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, app.CancelEdit{}, "")
}

func (s *Server) beginDeleteHandler(w http.ResponseWriter, r *http.Request) {
	s.dispatchAndShow(w, r, app.BeginDelete{ID: r.PathValue("id")})
}

func (s *Server) confirmDeleteHandler(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, app.ConfirmDelete{}, "")
}

func (s *Server) cancelDeleteHandler(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, app.CancelDelete{}, "")
}

func (s *Server) apiTasksHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.repo.Tasks())
}

// dispatch runs a mutating intent and redirects back to the list. Rejected
// input re-renders the page with the message instead.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, intent app.Intent, input string) {
	if err := s.ctrl.Dispatch(r.Context(), intent); err != nil {
		s.renderError(w, err, input)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// dispatchAndShow opens a dialog and renders the page with it in place.
func (s *Server) dispatchAndShow(w http.ResponseWriter, r *http.Request, intent app.Intent) {
	if err := s.ctrl.Dispatch(r.Context(), intent); err != nil {
		s.renderError(w, err, "")
		return
	}
	s.renderPage(w, http.StatusOK, "", "")
}

func (s *Server) renderError(w http.ResponseWriter, err error, input string) {
	switch {
	case goerrors.Is(err, tasks.ErrEmptyName):
		s.renderPage(w, http.StatusUnprocessableEntity, err.Error(), input)
	case goerrors.Is(err, app.ErrInvalidIntent):
		s.renderPage(w, http.StatusConflict, err.Error(), input)
	default:
		s.log.Error("web request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) renderPage(w http.ResponseWriter, status int, message, input string) {
	// The terminal may have changed tasks since this controller last rendered.
	s.ctrl.Rerender()
	page := view.Page{
		Tree:   s.ctrl.Tree(),
		Dialog: s.ctrl.State().Dialog(),
		Input:  strings.TrimSpace(input),
		Status: message,
	}

	var buf bytes.Buffer
	if err := view.WriteHTML(&buf, page); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.WriteHeader(status)
	_, _ = w.Write([]byte(err.Error()))
}
