package ui

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"causalsim/domain/core"
	"causalsim/internal/bootstrap"
	"causalsim/internal/errors"
	"causalsim/internal/randomize"
)

func (a *App) handleRunRandomization(w http.ResponseWriter, r *http.Request) {
	var req randomizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.InvalidInput("invalid request body: "+err.Error()))
		return
	}

	policy, err := buildAssignPolicy(req.Policy)
	if err != nil {
		respondError(w, err)
		return
	}
	est, err := buildEstimator(req.Statistic, nil)
	if err != nil {
		respondError(w, err)
		return
	}
	if req.Trials == 0 {
		req.Trials = a.defaults.Trials
	}

	result, err := a.studies.RunRandomization(r.Context(), randomize.Spec{
		Population: req.population(),
		Policy:     policy,
		Estimator:  est,
		Trials:     req.Trials,
		Seed:       req.Seed,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

func (a *App) handleRunBootstrap(w http.ResponseWriter, r *http.Request) {
	var req bootstrapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.InvalidInput("invalid request body: "+err.Error()))
		return
	}

	policy, err := buildBootstrapPolicy(req.Policy)
	if err != nil {
		respondError(w, err)
		return
	}
	est, err := buildEstimator(req.Statistic, req.Policy.Covariates)
	if err != nil {
		respondError(w, err)
		return
	}
	if req.Trials == 0 {
		req.Trials = a.defaults.Trials
	}

	result, err := a.studies.RunBootstrap(r.Context(), bootstrap.Spec{
		Dataset:   req.dataset(),
		Policy:    policy,
		Estimator: est,
		Trials:    req.Trials,
		Seed:      req.Seed,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

func (a *App) handleListStudies(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	manifests, err := a.studies.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, manifests)
}

func (a *App) handleGetStudy(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseStudyID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, errors.InvalidInput(err.Error()))
		return
	}
	result, err := a.studies.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (a *App) handleStudyReport(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseStudyID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, errors.InvalidInput(err.Error()))
		return
	}
	html, err := a.studies.ReportHTML(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(html)
}

func (a *App) handleStudyExport(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseStudyID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, errors.InvalidInput(err.Error()))
		return
	}
	data, err := a.studies.Export(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="study-`+id.String()+`.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// respondJSON writes a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// respondError maps application error codes to HTTP status codes.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.CodeInvalidInput, errors.CodeInvalidPolicy, errors.CodeConfigInvalid:
		status = http.StatusBadRequest
	case errors.CodeNotFound:
		status = http.StatusNotFound
	}
	respondJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  errors.GetCode(err),
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
