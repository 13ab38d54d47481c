package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/glagol-app/glagol/internal/auth"
	"github.com/glagol-app/glagol/internal/store"
	"github.com/glagol-app/glagol/internal/task"
)

// writeErr maps engine errors onto HTTP status codes: an infeasible pool
// is 404, a broken session or config is 409, an unknown handler tag is a
// deployment error.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, task.ErrNoContent):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, task.ErrInvalidState):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// POST /api/auth/login  { "username": "...", "password": "..." }
func LoginHandler(a *auth.AuthService, st *store.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		u, err := st.UserByUsername(r.Context(), req.Username)
		if err != nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		tok, err := a.IssueJWT(u.ID, u.Role)
		if err != nil {
			http.Error(w, "issue token", 500)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": tok})
	}
}

// GET /api/categories lists root categories; GET /api/categories/{id}
// lists a node's children.
func ListCategoriesHandler(st *store.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cats, err := st.RootCategories(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(cats)
	}
}

func ChildCategoriesHandler(st *store.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "categoryID"), 10, 64)
		if err != nil {
			http.Error(w, "bad category id", 400)
			return
		}
		if _, err := st.CategoryByID(r.Context(), id); err != nil {
			writeErr(w, err)
			return
		}
		cats, err := st.ChildCategories(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(cats)
	}
}

// POST /api/categories/{id}/select points the caller at a category.
func SelectCategoryHandler(st *store.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "categoryID"), 10, 64)
		if err != nil {
			http.Error(w, "bad category id", 400)
			return
		}
		userID := auth.UserIDFromContext(r.Context())
		if err := st.SetCurrentCategory(r.Context(), userID, id); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// POST /api/tasks creates a task for the caller's selected category.
func StartTaskHandler(svc *task.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserIDFromContext(r.Context())
		payload, err := svc.StartTask(r.Context(), userID)
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// POST /api/tasks/answer  { "answer": "..." }
func SubmitAnswerHandler(svc *task.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Answer string `json:"answer"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		userID := auth.UserIDFromContext(r.Context())
		res, err := svc.CheckAnswer(r.Context(), userID, req.Answer)
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(res)
	}
}

// POST /api/exercises/import uploads a content batch.
func ImportExercisesHandler(st *store.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var items []store.ExerciseImport
		if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if len(items) == 0 {
			http.Error(w, "empty batch", 400)
			return
		}
		n, err := st.ImportExercises(r.Context(), items)
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]int{"imported": n})
	}
}

// POST /api/categories creates a content tree node.
func CreateCategoryHandler(st *store.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name      string           `json:"name"`
			Handler   task.HandlerType `json:"handler_type,omitempty"`
			ParentID  *int64           `json:"parent_id,omitempty"`
			SortOrder int              `json:"sort_order,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if req.Name == "" {
			http.Error(w, "name required", 400)
			return
		}
		id, err := st.CreateCategory(r.Context(), req.Name, req.Handler, req.ParentID, req.SortOrder)
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]int64{"id": id})
	}
}
