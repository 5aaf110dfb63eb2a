package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymbuddy/internal/auth"
	"github.com/2beens/gymbuddy/internal/telemetry/tracing"
	"github.com/2beens/gymbuddy/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=workouts_test

const RecentTemplatesLimit = 5

type templatesRepo interface {
	Add(ctx context.Context, template Template) (*Template, error)
	Get(ctx context.Context, userID, id int) (*Template, error)
	List(ctx context.Context, userID int) ([]Template, error)
	Recent(ctx context.Context, userID, limit int) ([]Template, error)
	Update(ctx context.Context, template *Template) error
	Delete(ctx context.Context, userID, id int) error
}

type Handler struct {
	repo templatesRepo
}

func NewHandler(repo templatesRepo) *Handler {
	return &Handler{
		repo: repo,
	}
}

func (handler *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/api/templates", handler.HandleList).Methods("GET", "OPTIONS").Name("list-templates")
	r.HandleFunc("/api/templates/recent", handler.HandleRecent).Methods("GET", "OPTIONS").Name("recent-templates")
	r.HandleFunc("/api/templates", handler.HandleAdd).Methods("POST", "OPTIONS").Name("new-template")
	r.HandleFunc("/api/templates/{id:[0-9]+}", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-template")
	r.HandleFunc("/api/templates/{id:[0-9]+}", handler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-template")
	r.HandleFunc("/api/templates/{id:[0-9]+}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-template")
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.templates.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	templates, err := handler.repo.List(ctx, userID)
	if err != nil {
		log.Errorf("list templates for user %d: %s", userID, err)
		http.Error(w, "failed to list templates", http.StatusInternalServerError)
		return
	}

	handler.writeJSON(w, templates, http.StatusOK)
}

func (handler *Handler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.templates.recent")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	templates, err := handler.repo.Recent(ctx, userID, RecentTemplatesLimit)
	if err != nil {
		log.Errorf("recent templates for user %d: %s", userID, err)
		http.Error(w, "failed to list recent templates", http.StatusInternalServerError)
		return
	}

	handler.writeJSON(w, templates, http.StatusOK)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.templates.get")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	template, err := handler.repo.Get(ctx, userID, id)
	if errors.Is(err, ErrTemplateNotFound) {
		pkg.WriteJSONError(w, "template not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("failed to get template %d: %s", id, err)
		http.Error(w, "failed to get template", http.StatusInternalServerError)
		return
	}

	handler.writeJSON(w, template, http.StatusOK)
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.templates.new")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var template Template
	if err := json.NewDecoder(r.Body).Decode(&template); err != nil {
		log.Tracef("new template, unmarshal json params: %s", err)
		pkg.WriteJSONError(w, "invalid template json", http.StatusBadRequest)
		return
	}
	if err := template.Validate(); err != nil {
		pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	template.ID = 0
	template.UserID = userID

	added, err := handler.repo.Add(ctx, template)
	if err != nil {
		log.Errorf("failed to add template [%s] for user %d: %s", template.Title, userID, err)
		http.Error(w, "error, failed to add template", http.StatusInternalServerError)
		return
	}

	log.Debugf("new template added: %d", added.ID)
	handler.writeJSON(w, added, http.StatusCreated)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.templates.update")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	var template Template
	if err := json.NewDecoder(r.Body).Decode(&template); err != nil {
		pkg.WriteJSONError(w, "invalid template json", http.StatusBadRequest)
		return
	}
	if err := template.Validate(); err != nil {
		pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	template.ID = id
	template.UserID = userID

	err = handler.repo.Update(ctx, &template)
	if errors.Is(err, ErrTemplateNotFound) {
		pkg.WriteJSONError(w, "template not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("failed to update template %d: %s", id, err)
		http.Error(w, "error, failed to update template", http.StatusInternalServerError)
		return
	}

	handler.writeJSON(w, template, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.templates.delete")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	err = handler.repo.Delete(ctx, userID, id)
	if errors.Is(err, ErrTemplateNotFound) {
		pkg.WriteJSONError(w, "template not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("failed to delete template %d: %s", id, err)
		http.Error(w, "error, failed to delete template", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (handler *Handler) writeJSON(w http.ResponseWriter, v any, status int) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Errorf("failed to marshal templates response: %s", err)
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, b, status)
}
