package calc

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymbuddy/internal/telemetry/tracing"
	"github.com/2beens/gymbuddy/pkg"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (handler *Handler) SetupRoutes(r *mux.Router) {
	calcRouter := r.PathPrefix("/api/calc").Subrouter()
	calcRouter.HandleFunc("/one-rep-max", handler.HandleOneRepMax).Methods("GET", "OPTIONS").Name("calc-one-rep-max")
	calcRouter.HandleFunc("/volume", handler.HandleVolume).Methods("GET", "OPTIONS").Name("calc-volume")
	calcRouter.HandleFunc("/intensity", handler.HandleIntensity).Methods("GET", "OPTIONS").Name("calc-intensity")
	calcRouter.HandleFunc("/suggest-weight", handler.HandleSuggestWeight).Methods("GET", "OPTIONS").Name("calc-suggest-weight")
}

func (handler *Handler) HandleOneRepMax(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.calc.one_rep_max")
	defer span.End()

	q := queryParams{r: r}
	weight := q.float("weight")
	reps := q.int("reps")
	if q.err != nil {
		pkg.WriteJSONError(w, q.err.Error(), http.StatusBadRequest)
		return
	}

	oneRepMax, err := OneRepMax(weight, reps)
	if err != nil {
		pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeResult(w, map[string]float64{"oneRepMax": oneRepMax})
}

func (handler *Handler) HandleVolume(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.calc.volume")
	defer span.End()

	q := queryParams{r: r}
	weight := q.float("weight")
	sets := q.int("sets")
	reps := q.int("reps")
	if q.err != nil {
		pkg.WriteJSONError(w, q.err.Error(), http.StatusBadRequest)
		return
	}

	volume, err := Volume(weight, sets, reps)
	if err != nil {
		pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeResult(w, map[string]float64{"volume": volume})
}

func (handler *Handler) HandleIntensity(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.calc.intensity")
	defer span.End()

	q := queryParams{r: r}
	weight := q.float("weight")
	oneRepMax := q.float("oneRepMax")
	if q.err != nil {
		pkg.WriteJSONError(w, q.err.Error(), http.StatusBadRequest)
		return
	}

	intensity, err := Intensity(weight, oneRepMax)
	if err != nil {
		pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeResult(w, map[string]int{"intensity": intensity})
}

func (handler *Handler) HandleSuggestWeight(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.calc.suggest_weight")
	defer span.End()

	q := queryParams{r: r}
	oneRepMax := q.float("oneRepMax")
	reps := q.int("reps")
	rpe := q.int("rpe")
	if q.err != nil {
		pkg.WriteJSONError(w, q.err.Error(), http.StatusBadRequest)
		return
	}

	weight, err := SuggestWeight(oneRepMax, reps, rpe)
	if err != nil {
		pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeResult(w, map[string]float64{"weight": weight})
}

func writeResult(w http.ResponseWriter, result any) {
	resultJson, err := json.Marshal(result)
	if err != nil {
		log.Errorf("calc, marshal result: %s", err)
		http.Error(w, "marshal result error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resultJson)
}

// queryParams parses required query params, keeping the first error.
type queryParams struct {
	r   *http.Request
	err error
}

func (q *queryParams) raw(name string) (string, bool) {
	if q.err != nil {
		return "", false
	}
	value := q.r.URL.Query().Get(name)
	if value == "" {
		q.err = fmt.Errorf("%s missing", name)
		return "", false
	}
	return value, true
}

func (q *queryParams) float(name string) float64 {
	value, ok := q.raw(name)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		q.err = fmt.Errorf("%s invalid", name)
	}
	return f
}

func (q *queryParams) int(name string) int {
	value, ok := q.raw(name)
	if !ok {
		return 0
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		q.err = fmt.Errorf("%s invalid", name)
	}
	return i
}
