// handlers_asset.go - Catalog, image resolution and uploaded file handlers
package api

import (
	"mime"
	"net/http"
	"path"

	"github.com/home-manager/backend/internal/catalog"
	"github.com/home-manager/backend/internal/models"
	"github.com/home-manager/backend/internal/storage"
	"github.com/labstack/echo/v4"
)

// AssetHandlerImpl implements the AssetHandler interface
type AssetHandlerImpl struct {
	files   storage.Store
	catalog *catalog.Catalog
	assets  AssetResolver
}

// NewAssetHandler creates a new asset handler instance
func NewAssetHandler(files storage.Store, cat *catalog.Catalog, assets AssetResolver) AssetHandler {
	return &AssetHandlerImpl{
		files:   files,
		catalog: cat,
		assets:  assets,
	}
}

// HandleGetCatalog returns the device types and protocols with their icons
func (h *AssetHandlerImpl) HandleGetCatalog(c echo.Context) error {
	data := h.catalog.Data()
	if h.assets != nil {
		for i := range data.DeviceTypes {
			data.DeviceTypes[i].Icon = h.assets.DeviceIcon(data.DeviceTypes[i].Value)
		}
		for i := range data.Protocols {
			data.Protocols[i].Icon = h.assets.ProtocolIcon(data.Protocols[i].Value)
		}
	}
	return c.JSON(http.StatusOK, data)
}

// HandleResolveAsset resolves ?ref= to a URL or a fallback glyph (?glyph=)
func (h *AssetHandlerImpl) HandleResolveAsset(c echo.Context) error {
	ref := c.QueryParam("ref")
	glyph := c.QueryParam("glyph")
	if h.assets == nil {
		return c.JSON(http.StatusOK, models.ImageRef{Ref: ref, Fallback: true, Glyph: glyph})
	}
	return c.JSON(http.StatusOK, h.assets.Resolve(ref, glyph))
}

// HandleServeUpload streams an uploaded file from the configured backend
func (h *AssetHandlerImpl) HandleServeUpload(c echo.Context) error {
	ref := storage.RefPrefix + c.Param("*")
	rc, info, err := h.files.Open(c.Request().Context(), ref)
	if err != nil {
		return mapError(err, "file", ref, "failed to open file")
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(info.Name))
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	// Upload names carry their timestamp and are never rewritten.
	c.Response().Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	return c.Stream(http.StatusOK, contentType, rc)
}
