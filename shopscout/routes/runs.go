package routes

import (
	"net/http"
	"shopscout/shopscout/controllers"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func RunRoutes(ctrl *controllers.RunsController) chi.Router {
	r := chi.NewRouter()

	r.Get("/", handleJSON(func(r *http.Request) (any, int, error) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				return nil, http.StatusBadRequest, errInvalidLimit
			}
			limit = n
		}
		runs, err := ctrl.ListRuns(r.Context(), limit)
		if err != nil {
			return nil, statusFor(err), err
		}
		return runs, http.StatusOK, nil
	}))

	r.Get("/{run_id}", handleJSON(func(r *http.Request) (any, int, error) {
		run, err := ctrl.GetRun(r.Context(), chi.URLParam(r, "run_id"))
		if err != nil {
			return nil, statusFor(err), err
		}
		return run, http.StatusOK, nil
	}))

	r.Get("/{run_id}/archive", handleJSON(func(r *http.Request) (any, int, error) {
		archive, err := ctrl.GetRunArchive(r.Context(), chi.URLParam(r, "run_id"))
		if err != nil {
			return nil, statusFor(err), err
		}
		return archive, http.StatusOK, nil
	}))

	return r
}
