package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Joseda-hg/lazytodo/internal/app"
	"github.com/Joseda-hg/lazytodo/internal/db"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/tasks"
)

func newTestServer(t *testing.T) (http.Handler, *tasks.Repository) {
	t.Helper()
	sqlDB, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := tasks.New(context.Background(), db.NewStore(sqlDB, nil), nil)
	ctrl := app.NewController(repo, nil)
	return NewServer(ctrl, repo, nil).Handler(), repo
}

func post(t *testing.T, handler http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestAddToggleAndList(t *testing.T) {
	handler, repo := newTestServer(t)

	rec := post(t, handler, "/tasks", url.Values{"name": {"<script>x</script>"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Len(t, repo.Tasks(), 1)
	id := repo.Tasks()[0].ID

	rec = post(t, handler, "/tasks/"+id+"/toggle", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, repo.Tasks()[0].Done)

	rec = get(t, handler, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;x&lt;/script&gt;")
	assert.Contains(t, body, "Mark as undone")

	rec = get(t, handler, "/api/tasks")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed model.Collection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Equal(t, repo.Tasks(), listed)
}

func TestAddBlankIsRejected(t *testing.T) {
	handler, repo := newTestServer(t)

	rec := post(t, handler, "/tasks", url.Values{"name": {"   "}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), tasks.ErrEmptyName.Error())
	assert.Empty(t, repo.Tasks())
}

func TestEditDialogFlow(t *testing.T) {
	handler, repo := newTestServer(t)
	post(t, handler, "/tasks", url.Values{"name": {"Before"}})
	id := repo.Tasks()[0].ID

	rec := get(t, handler, "/tasks/"+id+"/edit")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="Before"`)

	rec = post(t, handler, "/edit", url.Values{"name": {""}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="editModal"`, "dialog stays open after empty edit")

	rec = post(t, handler, "/edit", url.Values{"name": {"After"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "After", repo.Tasks()[0].Name)
	assert.NotNil(t, repo.Tasks()[0].UpdatedAt)

	rec = post(t, handler, "/edit", url.Values{"name": {"Again"}})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeleteDialogFlow(t *testing.T) {
	handler, repo := newTestServer(t)
	post(t, handler, "/tasks", url.Values{"name": {"Doomed"}})
	id := repo.Tasks()[0].ID

	rec := get(t, handler, "/tasks/"+id+"/delete")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Are you sure you want to delete &#34;Doomed&#34;?")

	rec = post(t, handler, "/delete/cancel", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Len(t, repo.Tasks(), 1)

	get(t, handler, "/tasks/"+id+"/delete")
	rec = post(t, handler, "/delete", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, repo.Tasks())
	assert.NotContains(t, get(t, handler, "/").Body.String(), "Doomed")
}

func TestPageShowsChangesFromAnotherController(t *testing.T) {
	sqlDB, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	ctx := context.Background()
	repo := tasks.New(ctx, db.NewStore(sqlDB, nil), nil)
	handler := NewServer(app.NewController(repo, nil), repo, nil).Handler()
	terminal := app.NewController(repo, nil)

	require.NoError(t, terminal.Dispatch(ctx, app.AddTask{Text: "from terminal"}))
	assert.Contains(t, get(t, handler, "/").Body.String(), "from terminal")

	id := repo.Tasks()[0].ID
	require.Equal(t, http.StatusOK, get(t, handler, "/tasks/"+id+"/edit").Code)
	require.NoError(t, terminal.Dispatch(ctx, app.BeginDelete{ID: id}))
	require.NoError(t, terminal.Dispatch(ctx, app.ConfirmDelete{}))

	body := get(t, handler, "/").Body.String()
	assert.NotContains(t, body, "from terminal")
	assert.NotContains(t, body, `id="editModal"`, "dialog for a deleted task is dropped")
}
