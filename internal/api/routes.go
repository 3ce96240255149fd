// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"github.com/home-manager/backend/internal/catalog"
	"github.com/home-manager/backend/internal/storage"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store     FloorplanStore
	Files     storage.Store
	Catalog   *catalog.Catalog
	Assets    AssetResolver
	Editors   EditorManager
	Validator *Validator
	Version   string
	Logger    zerolog.Logger

	// AllowedImageTypes lists accepted upload extensions; empty accepts any.
	AllowedImageTypes []string
	// MaxImageBytes limits decoded uploads; 0 means unlimited.
	MaxImageBytes int64
	// WSMaxMessageBytes limits inbound WebSocket messages; 0 uses the default.
	WSMaxMessageBytes int64
}

// Handlers holds all handler instances
type Handlers struct {
	Health    HealthHandler
	Floorplan FloorplanHandler
	Device    DeviceHandler
	Asset     AssetHandler
	Editor    EditorHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	if deps.Validator == nil {
		deps.Validator = MustValidator()
	}
	if deps.Catalog == nil {
		deps.Catalog = catalog.Default()
	}
	return &Handlers{
		Health:    NewHealthHandler(deps.Version, deps.Store, deps.Editors),
		Floorplan: NewFloorplanHandler(deps),
		Device:    NewDeviceHandler(deps),
		Asset:     NewAssetHandler(deps.Files, deps.Catalog, deps.Assets),
		Editor:    NewEditorHandler(deps.Editors, deps.Validator, deps.WSMaxMessageBytes, deps.Logger),
	}
}

// RouteOptions toggles optional routes
type RouteOptions struct {
	AllowDeletion bool
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers, opts RouteOptions) {
	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	// Catalog and assets
	apiGroup.GET("/catalog", handlers.Asset.HandleGetCatalog)
	apiGroup.GET("/assets/resolve", handlers.Asset.HandleResolveAsset)
	e.GET(storage.RefPrefix+"*", handlers.Asset.HandleServeUpload)

	// Floorplans
	apiGroup.GET("/floorplans", handlers.Floorplan.HandleListFloorplans)
	apiGroup.POST("/floorplans", handlers.Floorplan.HandleCreateFloorplan)
	apiGroup.GET("/floorplans/:id", handlers.Floorplan.HandleGetFloorplan)
	apiGroup.POST("/floorplans/:id/devices", handlers.Device.HandleCreateDevice)

	// Devices
	apiGroup.GET("/devices", handlers.Device.HandleListDevices)
	apiGroup.GET("/devices/:id", handlers.Device.HandleGetDevice)
	apiGroup.PUT("/devices/:id", handlers.Device.HandleUpdateDevice)
	apiGroup.PUT("/devices/:id/position", handlers.Device.HandleUpdatePosition)
	apiGroup.PUT("/devices/:id/scale", handlers.Device.HandleUpdateScale)

	// Conditional delete based on config
	if opts.AllowDeletion {
		apiGroup.DELETE("/floorplans/:id", handlers.Floorplan.HandleDeleteFloorplan)
		apiGroup.DELETE("/devices/:id", handlers.Device.HandleDeleteDevice)
	}

	// Editor sessions
	editorGroup := apiGroup.Group("/editor/sessions")
	editorGroup.GET("", handlers.Editor.HandleListSessions)
	editorGroup.POST("", handlers.Editor.HandleOpenSession)
	editorGroup.GET("/:id", handlers.Editor.HandleGetSession)
	editorGroup.DELETE("/:id", handlers.Editor.HandleCloseSession)
	editorGroup.POST("/:id/input", handlers.Editor.HandleInput)
	editorGroup.POST("/:id/reload", handlers.Editor.HandleReload)
	editorGroup.GET("/:id/frame", handlers.Editor.HandleFrame)
	editorGroup.GET("/:id/ws", handlers.Editor.HandleWebSocket)
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo) {
	// Use custom error handler
	e.HTTPErrorHandler = ErrorHandler
}
