package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glagol-app/glagol/internal/auth"
	"github.com/glagol-app/glagol/internal/db"
	"github.com/glagol-app/glagol/internal/store"
	"github.com/glagol-app/glagol/internal/task"
)

type testEnv struct {
	router *chi.Mux
	auth   *auth.AuthService
	store  *store.SQLStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	database, err := db.Open(ctx, db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	st := store.NewSQLStore(database, db.DriverSQLite)
	a := auth.NewAuthService("test-secret")
	reg := task.NewRegistry(task.Deps{Source: st, Log: st})
	svc := task.NewService(reg, st)

	r := chi.NewRouter()
	r.Post("/api/auth/login", LoginHandler(a, st))
	r.Group(func(r chi.Router) {
		r.Use(auth.JWTMiddleware(a), auth.AttachRole())
		r.Get("/api/categories", ListCategoriesHandler(st))
		r.Get("/api/categories/{categoryID}", ChildCategoriesHandler(st))
		r.Post("/api/categories/{categoryID}/select", SelectCategoryHandler(st))
		r.Post("/api/tasks", StartTaskHandler(svc))
		r.Post("/api/tasks/answer", SubmitAnswerHandler(svc))
		r.Post("/api/exercises/import", ImportExercisesHandler(st))
		r.Post("/api/categories", CreateCategoryHandler(st))
	})
	return &testEnv{router: r, auth: a, store: st}
}

func (e *testEnv) createUser(t *testing.T, username, password, role string) string {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	id, err := e.store.CreateUser(context.Background(), username, hash, role)
	require.NoError(t, err)
	token, err := e.auth.IssueJWT(id, role)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "vasya", "secret123", "student")

	rec := env.do(t, http.MethodPost, "/api/auth/login", "", `{"username":"vasya","password":"secret123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["access_token"])

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", `{"username":"vasya","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", `{"username":"никто","password":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCategoriesEndpoints(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	token := env.createUser(t, "vasya", "pw", "student")
	editorToken := env.createUser(t, "masha", "pw", "editor")

	rec := env.do(t, http.MethodGet, "/api/categories", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/categories", editorToken, `{"name":"Ударения"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var created map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	rootID := created["id"]

	body := fmt.Sprintf(`{"name":"Экзамен","handler_type":"task4_exam","parent_id":%d}`, rootID)
	rec = env.do(t, http.MethodPost, "/api/categories", editorToken, body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/categories", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var roots []task.Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &roots))
	require.Len(t, roots, 1)
	assert.Equal(t, "Ударения", roots[0].Name)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/categories/%d", rootID), token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var children []task.Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &children))
	require.Len(t, children, 1)
	assert.Equal(t, task.HandlerStressExam, children[0].Handler)

	rec = env.do(t, http.MethodGet, "/api/categories/9999", token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/categories/%d/select", children[0].ID), token, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// The selection landed on the user record.
	u, err := env.store.UserByUsername(ctx, "vasya")
	require.NoError(t, err)
	sess, err := env.store.Load(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, sess.Category)
	assert.Equal(t, children[0].ID, sess.Category.ID)
}

func TestTaskFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	token := env.createUser(t, "vasya", "pw", "student")
	editorToken := env.createUser(t, "masha", "pw", "editor")

	rootID, err := env.store.CreateCategory(ctx, "Ударения", "", nil, 0)
	require.NoError(t, err)
	drillID, err := env.store.CreateCategory(ctx, "Тренировка", task.HandlerStressDrill, &rootID, 0)
	require.NoError(t, err)

	importBody := fmt.Sprintf(`[{"category_id":%d,"content":{"word":"банты","incorrect_stress":2},"answer":"1","explanation":"норма"}]`, rootID)
	rec := env.do(t, http.MethodPost, "/api/exercises/import", editorToken, importBody)
	require.Equal(t, http.StatusOK, rec.Code)
	var imported map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &imported))
	assert.Equal(t, 1, imported["imported"])

	// No category selected yet: starting a task conflicts.
	rec = env.do(t, http.MethodPost, "/api/tasks", token, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/categories/%d/select", drillID), token, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/tasks", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var payload task.TaskPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.ExerciseIDs, 1)
	require.Len(t, payload.Options, 2)

	rec = env.do(t, http.MethodPost, "/api/tasks/answer", token, `{"answer":"1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var res task.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Correct)
}

func TestStartTaskEmptyPool(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	token := env.createUser(t, "vasya", "pw", "student")

	rootID, err := env.store.CreateCategory(ctx, "Пусто", "", nil, 0)
	require.NoError(t, err)
	drillID, err := env.store.CreateCategory(ctx, "Тренировка", task.HandlerStressDrill, &rootID, 0)
	require.NoError(t, err)

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/api/categories/%d/select", drillID), token, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/tasks", token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImportValidation(t *testing.T) {
	env := newTestEnv(t)
	editorToken := env.createUser(t, "masha", "pw", "editor")

	rec := env.do(t, http.MethodPost, "/api/exercises/import", editorToken, `[]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/exercises/import", editorToken, `не json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
