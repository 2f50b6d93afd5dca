package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/migrate"

	"github.com/rapidgeo/rapid/internal/access"
	"github.com/rapidgeo/rapid/internal/db/bunx"
	"github.com/rapidgeo/rapid/internal/migrations"
	"github.com/rapidgeo/rapid/internal/repository"
	"github.com/rapidgeo/rapid/internal/services/geodata"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := bunx.NewDB(":memory:", 1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	require.NoError(t, migrator.Init(ctx))
	_, err = migrator.Migrate(ctx)
	require.NoError(t, err)

	bindings := repository.NewBunRoleBindingRepository(db)
	service := geodata.NewService(
		repository.NewBunTokenRepository(db),
		bindings,
		repository.NewBunLayerRepository(db),
		repository.NewBunViewRepository(db),
		repository.NewBunFeatureRepository(db),
		access.NewResolver(bindings),
	)

	authenticator, err := NewTokenAuthenticator(service, 16)
	require.NoError(t, err)

	router := NewRouter(RouterOptions{
		Handlers:      NewHandlers(service),
		Authenticator: authenticator,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

// call issues a request with an optional secret key and decodes the JSON
// response into out when out is non-nil.
func call(t *testing.T, srv *httptest.Server, method, path, key string, body, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func createTokenKey(t *testing.T, srv *httptest.Server, descriptor string) (id, key string) {
	t.Helper()
	var vm struct {
		UID string `json:"uid"`
		Key string `json:"key"`
	}
	status := call(t, srv, http.MethodPost, "/api/tokens", "", map[string]string{"des": descriptor}, &vm)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, vm.Key)
	return vm.UID, vm.Key
}

func TestTokenEndpoints(t *testing.T) {
	srv := newTestServer(t)

	_, key := createTokenKey(t, srv, "field-app")

	t.Run("listing never exposes keys", func(t *testing.T) {
		var tokens []map[string]any
		status := call(t, srv, http.MethodGet, "/api/tokens", "", nil, &tokens)
		require.Equal(t, http.StatusOK, status)
		require.Len(t, tokens, 1)
		assert.NotContains(t, tokens[0], "key")
		assert.NotContains(t, tokens[0], "key_hash")
	})

	t.Run("missing descriptor", func(t *testing.T) {
		status := call(t, srv, http.MethodPost, "/api/tokens", "", map[string]string{}, nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("query parameter works like the header", func(t *testing.T) {
		var layer map[string]any
		status := call(t, srv, http.MethodPost, "/api/layers?token="+key, "",
			map[string]any{"des": "via-query"}, &layer)
		assert.Equal(t, http.StatusCreated, status)
	})
}

func TestLayerEndpoints(t *testing.T) {
	srv := newTestServer(t)

	_, ownerKey := createTokenKey(t, srv, "owner")
	_, strangerKey := createTokenKey(t, srv, "stranger")

	var layer struct {
		UID string `json:"uid"`
	}
	status := call(t, srv, http.MethodPost, "/api/layers", ownerKey,
		map[string]any{"des": "wells", "props": map[string]any{"source": "survey"}}, &layer)
	require.Equal(t, http.StatusCreated, status)

	t.Run("anonymous create rejected", func(t *testing.T) {
		status := call(t, srv, http.MethodPost, "/api/layers", "", map[string]any{"des": "nope"}, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("owner reads the layer", func(t *testing.T) {
		var got map[string]any
		status := call(t, srv, http.MethodGet, "/api/layers/"+layer.UID, ownerKey, nil, &got)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "wells", got["descriptor"])
	})

	t.Run("foreign layer reads as not found", func(t *testing.T) {
		var body map[string]any
		status := call(t, srv, http.MethodGet, "/api/layers/"+layer.UID, strangerKey, nil, &body)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "not found", body["error"])
	})

	t.Run("unknown layer reads identically", func(t *testing.T) {
		var body map[string]any
		status := call(t, srv, http.MethodGet, "/api/layers/00000000-0000-0000-0000-000000000000", strangerKey, nil, &body)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "not found", body["error"])
	})

	t.Run("bogus key behaves as anonymous", func(t *testing.T) {
		status := call(t, srv, http.MethodGet, "/api/layers/"+layer.UID, "totally-made-up", nil, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("listing is filtered per caller", func(t *testing.T) {
		var mine []map[string]any
		status := call(t, srv, http.MethodGet, "/api/layers", ownerKey, nil, &mine)
		require.Equal(t, http.StatusOK, status)
		assert.Len(t, mine, 1)

		var theirs []map[string]any
		status = call(t, srv, http.MethodGet, "/api/layers", strangerKey, nil, &theirs)
		require.Equal(t, http.StatusOK, status)
		assert.Empty(t, theirs)
	})
}

func TestFeatureAndProjectionEndpoints(t *testing.T) {
	srv := newTestServer(t)

	_, ownerKey := createTokenKey(t, srv, "owner")
	strangerID, strangerKey := createTokenKey(t, srv, "stranger")

	var layer struct {
		UID string `json:"uid"`
	}
	status := call(t, srv, http.MethodPost, "/api/layers", ownerKey, map[string]any{"des": "wells"}, &layer)
	require.Equal(t, http.StatusCreated, status)

	var inside struct {
		UID string `json:"uid"`
	}
	status = call(t, srv, http.MethodPost, "/api/features", ownerKey, map[string]any{
		"layer": layer.UID,
		"geom":  json.RawMessage(`{"type":"Point","coordinates":[0,0]}`),
		"props": map[string]any{"name": "in"},
	}, &inside)
	require.Equal(t, http.StatusCreated, status)

	status = call(t, srv, http.MethodPost, "/api/features", ownerKey, map[string]any{
		"layer": layer.UID,
		"geom":  json.RawMessage(`{"type":"Point","coordinates":[100,100]}`),
		"props": map[string]any{"name": "out"},
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	t.Run("duplicate content conflicts", func(t *testing.T) {
		status := call(t, srv, http.MethodPost, "/api/features", ownerKey, map[string]any{
			"layer": layer.UID,
			"geom":  json.RawMessage(`{"type":"Point","coordinates":[0,0]}`),
			"props": map[string]any{"name": "in"},
		}, nil)
		assert.Equal(t, http.StatusConflict, status)
	})

	t.Run("malformed geometry rejected", func(t *testing.T) {
		status := call(t, srv, http.MethodPost, "/api/features", ownerKey, map[string]any{
			"layer": layer.UID,
			"geom":  json.RawMessage(`{"type":"Mystery"}`),
		}, nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	var view struct {
		UID string `json:"uid"`
	}
	status = call(t, srv, http.MethodPost, "/api/geoviews", ownerKey, map[string]any{
		"des":  "window",
		"geom": json.RawMessage(`{"type":"Polygon","coordinates":[[[-0.5,-0.5],[0.5,-0.5],[0.5,0.5],[-0.5,0.5],[-0.5,-0.5]]]}`),
	}, &view)
	require.Equal(t, http.StatusCreated, status)

	status = call(t, srv, http.MethodPut, fmt.Sprintf("/api/geoviews/%s/layers/%s", view.UID, layer.UID), ownerKey, nil, nil)
	require.Equal(t, http.StatusOK, status)

	t.Run("projection lists intersecting features only", func(t *testing.T) {
		var projection []struct {
			UID      string   `json:"uid"`
			Features []string `json:"features"`
		}
		status := call(t, srv, http.MethodGet, "/api/geoviews/"+view.UID+"/projection", ownerKey, nil, &projection)
		require.Equal(t, http.StatusOK, status)
		require.Len(t, projection, 1)
		assert.Equal(t, layer.UID, projection[0].UID)
		assert.Equal(t, []string{inside.UID}, projection[0].Features)
	})

	t.Run("view detail embeds the projection", func(t *testing.T) {
		var got struct {
			Geometry json.RawMessage `json:"geometry"`
			Layers   []struct {
				UID string `json:"uid"`
			} `json:"layers"`
		}
		status := call(t, srv, http.MethodGet, "/api/geoviews/"+view.UID, ownerKey, nil, &got)
		require.Equal(t, http.StatusOK, status)
		assert.NotEmpty(t, got.Geometry)
		require.Len(t, got.Layers, 1)
	})

	t.Run("stranger gains access through grants", func(t *testing.T) {
		status := call(t, srv, http.MethodGet, "/api/geoviews/"+view.UID+"/projection", strangerKey, nil, nil)
		assert.Equal(t, http.StatusNotFound, status)

		status = call(t, srv, http.MethodPut,
			fmt.Sprintf("/api/roles/view/%s/viewer/%s", view.UID, strangerID), ownerKey, nil, nil)
		require.Equal(t, http.StatusOK, status)

		var projection []any
		status = call(t, srv, http.MethodGet, "/api/geoviews/"+view.UID+"/projection", strangerKey, nil, &projection)
		require.Equal(t, http.StatusOK, status)
		assert.Empty(t, projection)

		status = call(t, srv, http.MethodPut,
			fmt.Sprintf("/api/roles/layer/%s/viewer/%s", layer.UID, strangerID), ownerKey, nil, nil)
		require.Equal(t, http.StatusOK, status)

		status = call(t, srv, http.MethodGet, "/api/geoviews/"+view.UID+"/projection", strangerKey, nil, &projection)
		require.Equal(t, http.StatusOK, status)
		assert.Len(t, projection, 1)
	})

	t.Run("grant requires ownership", func(t *testing.T) {
		status := call(t, srv, http.MethodPut,
			fmt.Sprintf("/api/roles/layer/%s/editor/%s", layer.UID, strangerID), strangerKey, nil, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("bad role name rejected", func(t *testing.T) {
		status := call(t, srv, http.MethodPut,
			fmt.Sprintf("/api/roles/layer/%s/emperor/%s", layer.UID, strangerID), ownerKey, nil, nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
