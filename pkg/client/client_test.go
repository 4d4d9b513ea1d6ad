package client

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/types"
)

func TestDeployPostsProjectID(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		var body struct {
			ProjectID string `json:"projectId"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotBody = body.ProjectID

		json.NewEncoder(w).Encode(map[string]any{
			"deployment": &types.Deployment{ID: "d1", Version: 4, Port: 3101},
			"message":    "version 4 is live on port 3101",
		})
	}))
	defer srv.Close()

	result, err := NewClient(srv.URL).Deploy("p1")
	require.NoError(t, err)

	assert.Equal(t, "POST /api/v1/deploy", gotPath)
	assert.Equal(t, "p1", gotBody)
	assert.Equal(t, 4, result.Deployment.Version)
	assert.Equal(t, "version 4 is live on port 3101", result.Message)
}

func TestErrorPayloadDecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "ConflictError",
			"message": "Deployment already in progress",
		})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Deploy("p1")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "ConflictError", apiErr.Kind)
	assert.Equal(t, "Deployment already in progress", err.Error())
}

func TestErrorNonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("bad gateway\n"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).ListProjects()
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "bad gateway", err.Error())
}

func TestIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "NotFoundError",
			"message": `project "ghost" not found`,
		})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).GetProject("ghost")
	assert.True(t, IsNotFound(err))
	assert.False(t, IsNotFound(errors.New("unreachable")))
}

func TestResolveProject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]*types.Project{
			{ID: "id-web", Name: "web"},
			{ID: "id-api", Name: "api"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	byName, err := c.ResolveProject("api")
	require.NoError(t, err)
	assert.Equal(t, "id-api", byName.ID)

	byID, err := c.ResolveProject("id-web")
	require.NoError(t, err)
	assert.Equal(t, "web", byID.Name)

	_, err = c.ResolveProject("ghost")
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), `"ghost"`)
}

func TestLogsTailParam(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]string{"container": "web-blue", "logs": "ok\n"})
	}))
	defer srv.Close()

	logs, err := NewClient(srv.URL).Logs("p1", 250)
	require.NoError(t, err)

	assert.Equal(t, "tail=250", gotQuery)
	assert.Equal(t, "web-blue", logs.Container)
}

func TestDeleteProjectNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	assert.NoError(t, NewClient(srv.URL).DeleteProject("p1"))
}

func TestTrailingSlashNormalized(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode([]*types.Project{})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL + "/").ListProjects()
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/projects", gotPath)
}
