// Package queryapi is the reference HTTP transport over the engine's
// request-in/tree-out contract: a thin JSON handler plus health and metrics
// endpoints. Serialization here is deliberately minimal; the engine itself
// is wire-format independent.
package queryapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kestreldb/kestrel/internal/executor"
	log "github.com/kestreldb/kestrel/internal/logging"
	"github.com/kestreldb/kestrel/internal/planner"
	"github.com/kestreldb/kestrel/pkg/dictionary"
	"github.com/kestreldb/kestrel/pkg/engine"
	"github.com/kestreldb/kestrel/pkg/querytree"
	"github.com/kestreldb/kestrel/pkg/response"
)

const maxRequestBytes = 1 << 20

// ErrorItem is one entry in the structured error list returned to callers.
type ErrorItem struct {
	Kind    string            `json:"kind"`
	Path    string            `json:"path,omitempty"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

type queryResponse struct {
	Data   []*response.Record `json:"data,omitempty"`
	Count  *uint64            `json:"count,omitempty"`
	Errors []ErrorItem        `json:"errors,omitempty"`
}

// NewHandler returns the HTTP handler for one engine.
func NewHandler(eng *engine.Engine) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /query/{nodeType}", handleQuery(eng, false))
	mux.HandleFunc("POST /count/{nodeType}", handleQuery(eng, true))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func handleQuery(eng *engine.Engine, countOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nodeType := r.PathValue("nodeType")

		doc, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrorItem{Kind: "transport", Message: "unable to read request body"})
			return
		}
		if len(doc) == 0 {
			doc = []byte(`{}`)
		}

		if countOnly {
			count, err := eng.Count(r.Context(), nodeType, doc)
			if err != nil {
				writeEngineError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, queryResponse{Count: &count})
			return
		}

		records, err := eng.Execute(r.Context(), nodeType, doc)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		if records == nil {
			records = []*response.Record{}
		}
		writeJSON(w, http.StatusOK, queryResponse{Data: records})
	}
}

func writeEngineError(w http.ResponseWriter, err error) {
	status, items := classifyError(err)
	writeJSON(w, status, queryResponse{Errors: items})
}

// classifyError maps engine errors onto the transport's structured error
// list. Caller mistakes (schema, validation, complexity) are 4xx; plan and
// store failures are server faults.
func classifyError(err error) (int, []ErrorItem) {
	var (
		validation   querytree.ValidationError
		tooComplex   querytree.TooComplexError
		malformed    querytree.MalformedRequestError
		typeNotFound dictionary.NodeTypeNotFoundError
		relNotFound  dictionary.RelationshipNotFoundError
		planErr      planner.PlanError
		storeErr     executor.StoreFailedError
	)

	switch {
	case errors.As(err, &validation):
		items := make([]ErrorItem, 0, len(validation.Issues()))
		for _, issue := range validation.Issues() {
			items = append(items, ErrorItem{Kind: "validation", Path: issue.Path, Message: issue.Message})
		}
		return http.StatusBadRequest, items

	case errors.As(err, &tooComplex):
		return http.StatusBadRequest, []ErrorItem{{
			Kind: "too_complex", Message: err.Error(), Details: tooComplex.DetailsMetadata(),
		}}

	case errors.As(err, &malformed):
		return http.StatusBadRequest, []ErrorItem{{Kind: "malformed", Message: err.Error()}}

	case errors.As(err, &typeNotFound):
		return http.StatusBadRequest, []ErrorItem{{
			Kind: "schema", Message: err.Error(), Details: typeNotFound.DetailsMetadata(),
		}}

	case errors.As(err, &relNotFound):
		return http.StatusBadRequest, []ErrorItem{{
			Kind: "schema", Message: err.Error(), Details: relNotFound.DetailsMetadata(),
		}}

	case errors.As(err, &planErr):
		return http.StatusInternalServerError, []ErrorItem{{
			Kind: "plan", Path: planErr.Path(), Message: err.Error(),
		}}

	case errors.As(err, &storeErr):
		return http.StatusBadGateway, []ErrorItem{{
			Kind: "store", Path: storeErr.Path(), Message: err.Error(),
		}}

	default:
		return http.StatusInternalServerError, []ErrorItem{{Kind: "internal", Message: err.Error()}}
	}
}

func writeError(w http.ResponseWriter, status int, items ...ErrorItem) {
	writeJSON(w, status, queryResponse{Errors: items})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Err(err).Msg("unable to write response")
	}
}
