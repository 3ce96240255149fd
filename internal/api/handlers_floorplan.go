// handlers_floorplan.go - Floorplan operation handlers
package api

import (
	"net/http"
	"strings"

	"github.com/home-manager/backend/internal/models"
	"github.com/home-manager/backend/internal/storage"
	"github.com/home-manager/backend/internal/store"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// FloorplanHandlerImpl implements the FloorplanHandler interface
type FloorplanHandlerImpl struct {
	store     FloorplanStore
	uploads   imageUploader
	assets    AssetResolver
	editors   EditorManager
	validator *Validator
	log       zerolog.Logger
}

// NewFloorplanHandler creates a new floorplan handler instance
func NewFloorplanHandler(deps *Dependencies) FloorplanHandler {
	return &FloorplanHandlerImpl{
		store:     deps.Store,
		uploads:   imageUploader{files: deps.Files, allowed: deps.AllowedImageTypes, maxBytes: deps.MaxImageBytes},
		assets:    deps.Assets,
		editors:   deps.Editors,
		validator: deps.Validator,
		log:       deps.Logger.With().Str("component", "floorplans").Logger(),
	}
}

// floorplanResponse adds the resolved background image to a floorplan.
type floorplanResponse struct {
	*models.FloorplanWithDevices
	Image models.ImageRef `json:"image"`
}

// HandleListFloorplans returns all floorplans, newest first
func (h *FloorplanHandlerImpl) HandleListFloorplans(c echo.Context) error {
	floorplans, err := h.store.ListFloorplans(c.Request().Context())
	if err != nil {
		return NewInternalError("failed to list floorplans", err)
	}
	return c.JSON(http.StatusOK, floorplans)
}

// HandleCreateFloorplan stores the uploaded image and creates a floorplan.
// Width and height default to the image's pixel size, then to 800x600.
func (h *FloorplanHandlerImpl) HandleCreateFloorplan(c echo.Context) error {
	var req createFloorplanRequest
	if err := h.validator.Bind(c, SchemaFloorplanCreate, &req); err != nil {
		return err
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return NewValidationError("name")
	}

	img, apiErr := h.uploads.decode("image", req.Image, req.ImageName, req.Name)
	if apiErr != nil {
		return apiErr
	}
	if req.Width <= 0 || req.Height <= 0 {
		if w, hgt, ok := imageSize(img.data); ok {
			req.Width, req.Height = w, hgt
		}
	}

	ctx := c.Request().Context()
	info, err := h.uploads.save(ctx, storage.FolderFloorplans, img)
	if err != nil {
		return NewInternalError("failed to save floorplan image", err)
	}

	fp, err := h.store.CreateFloorplan(ctx, store.FloorplanInput{
		Name:      req.Name,
		ImagePath: info.Path,
		Width:     req.Width,
		Height:    req.Height,
	})
	if err != nil {
		if rmErr := h.uploads.remove(ctx, info.Path); rmErr != nil {
			h.log.Warn().Err(rmErr).Str("ref", info.Path).Msg("Failed to remove orphaned floorplan image")
		}
		return mapError(err, "floorplan", "", "failed to create floorplan")
	}

	h.log.Info().Str("floorplan", fp.ID).Str("image", info.Path).
		Float64("width", fp.Width).Float64("height", fp.Height).
		Msg("Floorplan created")
	return c.JSON(http.StatusCreated, h.response(&models.FloorplanWithDevices{Floorplan: *fp, Devices: []models.Device{}}))
}

// HandleGetFloorplan returns a floorplan with its devices
func (h *FloorplanHandlerImpl) HandleGetFloorplan(c echo.Context) error {
	id := c.Param("id")
	fp, err := h.store.GetFloorplan(c.Request().Context(), id)
	if err != nil {
		return mapError(err, "floorplan", id, "failed to load floorplan")
	}
	return c.JSON(http.StatusOK, h.response(fp))
}

// HandleDeleteFloorplan deletes a floorplan, its devices and their files,
// and closes editors open on it.
func (h *FloorplanHandlerImpl) HandleDeleteFloorplan(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()

	fp, err := h.store.GetFloorplan(ctx, id)
	if err != nil {
		return mapError(err, "floorplan", id, "failed to load floorplan")
	}
	if err := h.store.DeleteFloorplan(ctx, id); err != nil {
		return mapError(err, "floorplan", id, "failed to delete floorplan")
	}

	refs := []string{fp.ImagePath}
	for _, d := range fp.Devices {
		refs = append(refs, d.QRCodePath)
	}
	for _, ref := range refs {
		if err := h.uploads.remove(ctx, ref); err != nil {
			h.log.Warn().Err(err).Str("ref", ref).Msg("Failed to remove floorplan file")
		}
		if h.assets != nil && ref != "" {
			h.assets.Forget(ref)
		}
	}

	closed := 0
	if h.editors != nil {
		for _, sess := range h.editors.List() {
			if sess.FloorplanID == id && h.editors.Close(sess.ID) == nil {
				closed++
			}
		}
	}

	h.log.Info().Str("floorplan", id).Int("devices", len(fp.Devices)).Int("editorsClosed", closed).Msg("Floorplan deleted")
	return c.NoContent(http.StatusNoContent)
}

func (h *FloorplanHandlerImpl) response(fp *models.FloorplanWithDevices) floorplanResponse {
	resp := floorplanResponse{
		FloorplanWithDevices: fp,
		Image:                models.ImageRef{Ref: fp.ImagePath, URL: fp.ImagePath},
	}
	if h.assets != nil {
		resp.Image = h.assets.Resolve(fp.ImagePath, "")
	}
	return resp
}

// Request types

type createFloorplanRequest struct {
	Name      string  `json:"name"`
	Image     string  `json:"image"` // base64 or data URL
	ImageName string  `json:"imageName"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
}
