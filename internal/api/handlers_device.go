// handlers_device.go - Device operation handlers
package api

import (
	"net/http"
	"strings"

	"github.com/home-manager/backend/internal/catalog"
	"github.com/home-manager/backend/internal/models"
	"github.com/home-manager/backend/internal/storage"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// DeviceHandlerImpl implements the DeviceHandler interface
type DeviceHandlerImpl struct {
	store     FloorplanStore
	uploads   imageUploader
	catalog   *catalog.Catalog
	assets    AssetResolver
	validator *Validator
	log       zerolog.Logger
}

// NewDeviceHandler creates a new device handler instance
func NewDeviceHandler(deps *Dependencies) DeviceHandler {
	return &DeviceHandlerImpl{
		store:     deps.Store,
		uploads:   imageUploader{files: deps.Files, allowed: deps.AllowedImageTypes, maxBytes: deps.MaxImageBytes},
		catalog:   deps.Catalog,
		assets:    deps.Assets,
		validator: deps.Validator,
		log:       deps.Logger.With().Str("component", "devices").Logger(),
	}
}

// deviceResponse adds resolved icons to a device.
type deviceResponse struct {
	models.Device
	TypeIcon     models.ImageRef  `json:"typeIcon"`
	ProtocolIcon models.ImageRef  `json:"protocolIcon"`
	QRCode       *models.ImageRef `json:"qrCode,omitempty"`
}

// HandleCreateDevice creates a device on the floorplan in the path
func (h *DeviceHandlerImpl) HandleCreateDevice(c echo.Context) error {
	var req deviceRequest
	if err := h.validator.Bind(c, SchemaDevice, &req); err != nil {
		return err
	}
	req.FloorplanID = c.Param("id")

	input, apiErr := h.input(req)
	if apiErr != nil {
		return apiErr
	}

	ctx := c.Request().Context()
	qr, apiErr := h.saveQRCode(c, req)
	if apiErr != nil {
		return apiErr
	}
	if qr != nil {
		input.QRCodePath = qr.Path
	}

	device, err := h.store.CreateDevice(ctx, input)
	if err != nil {
		if qr != nil {
			h.removeFile(c, qr.Path)
		}
		return mapError(err, "floorplan", req.FloorplanID, "failed to create device")
	}

	h.log.Info().Str("device", device.ID).Str("floorplan", device.FloorplanID).Str("type", device.Type).Msg("Device created")
	return c.JSON(http.StatusCreated, h.response(*device))
}

// HandleListDevices lists devices, optionally of one floorplan
func (h *DeviceHandlerImpl) HandleListDevices(c echo.Context) error {
	devices, err := h.store.ListDevices(c.Request().Context(), c.QueryParam("floorplanId"))
	if err != nil {
		return NewInternalError("failed to list devices", err)
	}

	out := make([]deviceResponse, 0, len(devices))
	for _, d := range devices {
		out = append(out, h.response(d))
	}
	return c.JSON(http.StatusOK, out)
}

// HandleGetDevice returns one device
func (h *DeviceHandlerImpl) HandleGetDevice(c echo.Context) error {
	id := c.Param("id")
	device, err := h.store.GetDevice(c.Request().Context(), id)
	if err != nil {
		return mapError(err, "device", id, "failed to load device")
	}
	return c.JSON(http.StatusOK, h.response(*device))
}

// HandleUpdateDevice replaces the form fields of a device. A new QR code
// replaces the stored one; omitting it keeps the current image.
func (h *DeviceHandlerImpl) HandleUpdateDevice(c echo.Context) error {
	id := c.Param("id")
	var req deviceRequest
	if err := h.validator.Bind(c, SchemaDevice, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	current, err := h.store.GetDevice(ctx, id)
	if err != nil {
		return mapError(err, "device", id, "failed to load device")
	}
	if req.FloorplanID == "" {
		req.FloorplanID = current.FloorplanID
	}

	input, apiErr := h.input(req)
	if apiErr != nil {
		return apiErr
	}
	qr, apiErr := h.saveQRCode(c, req)
	if apiErr != nil {
		return apiErr
	}
	if qr != nil {
		input.QRCodePath = qr.Path
	}

	device, err := h.store.UpdateDevice(ctx, id, input)
	if err != nil {
		if qr != nil {
			h.removeFile(c, qr.Path)
		}
		return mapError(err, "device", id, "failed to update device")
	}
	if qr != nil && current.QRCodePath != "" && current.QRCodePath != qr.Path {
		h.removeFile(c, current.QRCodePath)
	}

	h.log.Info().Str("device", id).Msg("Device updated")
	return c.JSON(http.StatusOK, h.response(*device))
}

// HandleUpdatePosition stores a device position in floorplan percentages.
// Values outside 0..100 are kept as sent.
func (h *DeviceHandlerImpl) HandleUpdatePosition(c echo.Context) error {
	id := c.Param("id")
	var req positionRequest
	if err := h.validator.Bind(c, SchemaDevicePosition, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.store.UpdateDevicePosition(ctx, id, req.XPos, req.YPos, req.FloorplanID); err != nil {
		return mapError(err, "device", id, "failed to update position")
	}
	device, err := h.store.GetDevice(ctx, id)
	if err != nil {
		return mapError(err, "device", id, "failed to load device")
	}
	return c.JSON(http.StatusOK, h.response(*device))
}

// HandleUpdateScale stores a device scale
func (h *DeviceHandlerImpl) HandleUpdateScale(c echo.Context) error {
	id := c.Param("id")
	var req scaleRequest
	if err := h.validator.Bind(c, SchemaDeviceScale, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.store.UpdateDeviceScale(ctx, id, req.Scale); err != nil {
		return mapError(err, "device", id, "failed to update scale")
	}
	device, err := h.store.GetDevice(ctx, id)
	if err != nil {
		return mapError(err, "device", id, "failed to load device")
	}
	return c.JSON(http.StatusOK, h.response(*device))
}

// HandleDeleteDevice deletes a device and its QR code image
func (h *DeviceHandlerImpl) HandleDeleteDevice(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()

	device, err := h.store.GetDevice(ctx, id)
	if err != nil {
		return mapError(err, "device", id, "failed to load device")
	}
	if err := h.store.DeleteDevice(ctx, id, c.QueryParam("floorplanId")); err != nil {
		return mapError(err, "device", id, "failed to delete device")
	}
	h.removeFile(c, device.QRCodePath)

	h.log.Info().Str("device", id).Str("floorplan", device.FloorplanID).Msg("Device deleted")
	return c.NoContent(http.StatusNoContent)
}

// input checks type and protocol against the catalog and returns their
// canonical values.
func (h *DeviceHandlerImpl) input(req deviceRequest) (models.DeviceInput, *APIError) {
	in := models.DeviceInput{
		FloorplanID: req.FloorplanID,
		Name:        strings.TrimSpace(req.Name),
		Type:        strings.TrimSpace(req.Type),
		Protocol:    strings.TrimSpace(req.Protocol),
		Description: req.Description,
		PinCode:     req.PinCode,
	}
	if in.Name == "" {
		return in, NewValidationError("name")
	}

	if in.Type != "" {
		entry, ok := h.catalog.DeviceType(in.Type)
		if !ok {
			return in, NewValidationError("type")
		}
		in.Type = entry.Value
	}
	entry, ok := h.catalog.Protocol(in.Protocol)
	if !ok {
		return in, NewValidationError("protocol")
	}
	in.Protocol = entry.Value
	return in, nil
}

func (h *DeviceHandlerImpl) saveQRCode(c echo.Context, req deviceRequest) (*models.FileInfo, *APIError) {
	if req.QRCode == "" {
		return nil, nil
	}
	img, apiErr := h.uploads.decode("qrCode", req.QRCode, req.QRCodeName, "qrcode")
	if apiErr != nil {
		return nil, apiErr
	}
	info, err := h.uploads.save(c.Request().Context(), storage.FolderQRCodes, img)
	if err != nil {
		return nil, NewInternalError("failed to save QR code", err)
	}
	return info, nil
}

func (h *DeviceHandlerImpl) removeFile(c echo.Context, ref string) {
	if err := h.uploads.remove(c.Request().Context(), ref); err != nil {
		h.log.Warn().Err(err).Str("ref", ref).Msg("Failed to remove file")
	}
	if h.assets != nil && ref != "" {
		h.assets.Forget(ref)
	}
}

func (h *DeviceHandlerImpl) response(d models.Device) deviceResponse {
	resp := deviceResponse{Device: d}
	if h.assets == nil {
		return resp
	}
	resp.TypeIcon = h.assets.DeviceIcon(d.Type)
	resp.ProtocolIcon = h.assets.ProtocolIcon(d.Protocol)
	if d.QRCodePath != "" {
		qr := h.assets.Resolve(d.QRCodePath, "")
		resp.QRCode = &qr
	}
	return resp
}

// Request types

type deviceRequest struct {
	FloorplanID string `json:"floorplanId"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Protocol    string `json:"protocol"`
	Description string `json:"description"`
	PinCode     string `json:"pinCode"`
	QRCode      string `json:"qrCode"` // base64 or data URL
	QRCodeName  string `json:"qrCodeName"`
}

type positionRequest struct {
	XPos        float64 `json:"xPos"`
	YPos        float64 `json:"yPos"`
	FloorplanID string  `json:"floorplanId"`
}

type scaleRequest struct {
	Scale float64 `json:"scale"`
}
