package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rapidgeo/rapid/internal/access"
	"github.com/rapidgeo/rapid/internal/db/models"
	"github.com/rapidgeo/rapid/internal/services/geodata"
)

// Handlers wires the REST endpoints over the geodata service.
type Handlers struct {
	service *geodata.Service
}

// NewHandlers creates a new handler set.
func NewHandlers(service *geodata.Service) *Handlers {
	return &Handlers{service: service}
}

// --- tokens ---

// CreateToken handles POST /api/tokens
func (h *Handlers) CreateToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Descriptor string `json:"des"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	token, key, err := h.service.CreateToken(r.Context(), req.Descriptor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTokenVM(token, key))
}

// ListTokens handles GET /api/tokens
func (h *Handlers) ListTokens(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.service.ListTokens(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	vms := make([]tokenVM, 0, len(tokens))
	for i := range tokens {
		vms = append(vms, newTokenVM(&tokens[i], ""))
	}
	writeJSON(w, http.StatusOK, vms)
}

// --- layers ---

// CreateLayer handles POST /api/layers
func (h *Handlers) CreateLayer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Descriptor string            `json:"des"`
		Public     bool              `json:"public"`
		Properties models.Properties `json:"props"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	layer, err := h.service.CreateLayer(r.Context(), req.Descriptor, req.Public, req.Properties, access.TokenFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newLayerVM(layer, nil))
}

// ListLayers handles GET /api/layers
func (h *Handlers) ListLayers(w http.ResponseWriter, r *http.Request) {
	layers, err := h.service.ListLayers(r.Context(), access.TokenFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	vms := make([]layerVM, 0, len(layers))
	for i := range layers {
		vms = append(vms, newLayerVM(&layers[i], nil))
	}
	writeJSON(w, http.StatusOK, vms)
}

// GetLayer handles GET /api/layers/{layerID}
func (h *Handlers) GetLayer(w http.ResponseWriter, r *http.Request) {
	layerID := chi.URLParam(r, "layerID")
	tokenID := access.TokenFromContext(r.Context())

	layer, err := h.service.GetLayer(r.Context(), layerID, tokenID)
	if err != nil {
		writeError(w, err)
		return
	}

	features, err := h.service.ListLayerFeatures(r.Context(), layerID, tokenID)
	if err != nil {
		writeError(w, err)
		return
	}
	ids := make([]string, 0, len(features))
	for i := range features {
		ids = append(ids, features[i].ID)
	}
	writeJSON(w, http.StatusOK, newLayerVM(layer, ids))
}

// DeleteLayer handles DELETE /api/layers/{layerID}
func (h *Handlers) DeleteLayer(w http.ResponseWriter, r *http.Request) {
	layerID := chi.URLParam(r, "layerID")
	if err := h.service.DeleteLayer(r.Context(), layerID, access.TokenFromContext(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("deleted layer %s", layerID)})
}

// ListLayerFeatures handles GET /api/layers/{layerID}/features
func (h *Handlers) ListLayerFeatures(w http.ResponseWriter, r *http.Request) {
	layerID := chi.URLParam(r, "layerID")
	features, err := h.service.ListLayerFeatures(r.Context(), layerID, access.TokenFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	vms := make([]featureVM, 0, len(features))
	for i := range features {
		vms = append(vms, newFeatureVM(&features[i]))
	}
	writeJSON(w, http.StatusOK, vms)
}

// --- views ---

// CreateView handles POST /api/geoviews
func (h *Handlers) CreateView(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Geometry   json.RawMessage   `json:"geom"`
		Descriptor string            `json:"des"`
		Public     bool              `json:"public"`
		Properties models.Properties `json:"props"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	view, err := h.service.CreateView(r.Context(), req.Geometry, req.Descriptor, req.Properties, req.Public, access.TokenFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newViewVM(view, nil, viewVMOptions{IncludeGeometry: true}))
}

// ListViews handles GET /api/geoviews
func (h *Handlers) ListViews(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.ListViews(r.Context(), access.TokenFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	vms := make([]viewVM, 0, len(views))
	for i := range views {
		vms = append(vms, newViewVM(&views[i], nil, viewVMOptions{}))
	}
	writeJSON(w, http.StatusOK, vms)
}

// GetView handles GET /api/geoviews/{viewID}: the view plus its current
// projection.
func (h *Handlers) GetView(w http.ResponseWriter, r *http.Request) {
	viewID := chi.URLParam(r, "viewID")
	tokenID := access.TokenFromContext(r.Context())

	view, err := h.service.GetView(r.Context(), viewID, tokenID)
	if err != nil {
		writeError(w, err)
		return
	}

	projection, err := h.service.ProjectView(r.Context(), viewID, tokenID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newViewVM(view, projection, viewVMOptions{
		IncludeGeometry:   true,
		IncludeProjection: true,
	}))
}

// DeleteView handles DELETE /api/geoviews/{viewID}
func (h *Handlers) DeleteView(w http.ResponseWriter, r *http.Request) {
	viewID := chi.URLParam(r, "viewID")
	if err := h.service.DeleteView(r.Context(), viewID, access.TokenFromContext(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("deleted view %s", viewID)})
}

// ProjectView handles GET /api/geoviews/{viewID}/projection
func (h *Handlers) ProjectView(w http.ResponseWriter, r *http.Request) {
	viewID := chi.URLParam(r, "viewID")
	projection, err := h.service.ProjectView(r.Context(), viewID, access.TokenFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projection)
}

// AttachLayer handles PUT /api/geoviews/{viewID}/layers/{layerID}
func (h *Handlers) AttachLayer(w http.ResponseWriter, r *http.Request) {
	viewID := chi.URLParam(r, "viewID")
	layerID := chi.URLParam(r, "layerID")
	if err := h.service.AddLayerToView(r.Context(), viewID, layerID, access.TokenFromContext(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "layer attached"})
}

// DetachLayer handles DELETE /api/geoviews/{viewID}/layers/{layerID}
func (h *Handlers) DetachLayer(w http.ResponseWriter, r *http.Request) {
	viewID := chi.URLParam(r, "viewID")
	layerID := chi.URLParam(r, "layerID")
	if err := h.service.RemoveLayerFromView(r.Context(), viewID, layerID, access.TokenFromContext(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "layer detached"})
}

// --- features ---

// CreateFeature handles POST /api/features
func (h *Handlers) CreateFeature(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Layer      string            `json:"layer"`
		Geometry   json.RawMessage   `json:"geom"`
		Properties models.Properties `json:"props"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	feature, err := h.service.CreateFeature(r.Context(), req.Geometry, req.Layer, req.Properties, access.TokenFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newFeatureVM(feature))
}

// GetFeature handles GET /api/features/{featureID}
func (h *Handlers) GetFeature(w http.ResponseWriter, r *http.Request) {
	featureID := chi.URLParam(r, "featureID")
	feature, err := h.service.GetFeature(r.Context(), featureID, access.TokenFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newFeatureVM(feature))
}

// UpdateFeature handles PUT /api/features/{featureID}
func (h *Handlers) UpdateFeature(w http.ResponseWriter, r *http.Request) {
	featureID := chi.URLParam(r, "featureID")
	var req struct {
		Layer      string            `json:"layer"`
		Geometry   json.RawMessage   `json:"geom"`
		Properties models.Properties `json:"props"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	feature, err := h.service.UpdateFeature(r.Context(), featureID, req.Geometry, req.Layer, req.Properties, access.TokenFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newFeatureVM(feature))
}

// DeleteFeature handles DELETE /api/features/{featureID}
func (h *Handlers) DeleteFeature(w http.ResponseWriter, r *http.Request) {
	featureID := chi.URLParam(r, "featureID")
	if err := h.service.DeleteFeature(r.Context(), featureID, access.TokenFromContext(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("deleted feature %s", featureID)})
}

// --- roles ---

// GrantRole handles PUT /api/roles/{kind}/{resourceID}/{role}/{tokenID}
func (h *Handlers) GrantRole(w http.ResponseWriter, r *http.Request) {
	kind, role, resourceID, targetTokenID, err := roleParams(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := h.service.GrantRole(r.Context(), resourceID, kind, targetTokenID, role, access.TokenFromContext(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "added access for token"})
}

// RevokeRole handles DELETE /api/roles/{kind}/{resourceID}/{role}/{tokenID}
func (h *Handlers) RevokeRole(w http.ResponseWriter, r *http.Request) {
	kind, role, resourceID, targetTokenID, err := roleParams(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := h.service.RevokeRole(r.Context(), resourceID, kind, targetTokenID, role, access.TokenFromContext(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "removed access for token"})
}

func roleParams(r *http.Request) (models.ResourceKind, models.Role, string, string, error) {
	kind, err := models.ParseResourceKind(chi.URLParam(r, "kind"))
	if err != nil {
		return "", 0, "", "", err
	}
	role, err := models.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		return "", 0, "", "", err
	}
	return kind, role, chi.URLParam(r, "resourceID"), chi.URLParam(r, "tokenID"), nil
}
