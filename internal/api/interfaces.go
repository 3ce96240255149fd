// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/home-manager/backend/internal/canvas"
	"github.com/home-manager/backend/internal/models"
	"github.com/home-manager/backend/internal/session"
	"github.com/home-manager/backend/internal/store"
	"github.com/labstack/echo/v4"
)

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// FloorplanHandler handles floorplan operations
type FloorplanHandler interface {
	HandleListFloorplans(c echo.Context) error
	HandleCreateFloorplan(c echo.Context) error
	HandleGetFloorplan(c echo.Context) error
	HandleDeleteFloorplan(c echo.Context) error
}

// DeviceHandler handles device operations
type DeviceHandler interface {
	HandleCreateDevice(c echo.Context) error
	HandleListDevices(c echo.Context) error
	HandleGetDevice(c echo.Context) error
	HandleUpdateDevice(c echo.Context) error
	HandleUpdatePosition(c echo.Context) error
	HandleUpdateScale(c echo.Context) error
	HandleDeleteDevice(c echo.Context) error
}

// AssetHandler handles uploaded files, icons and the device catalog
type AssetHandler interface {
	HandleGetCatalog(c echo.Context) error
	HandleResolveAsset(c echo.Context) error
	HandleServeUpload(c echo.Context) error
}

// EditorHandler handles interactive floorplan editor sessions
type EditorHandler interface {
	HandleOpenSession(c echo.Context) error
	HandleListSessions(c echo.Context) error
	HandleGetSession(c echo.Context) error
	HandleCloseSession(c echo.Context) error
	HandleInput(c echo.Context) error
	HandleReload(c echo.Context) error
	HandleFrame(c echo.Context) error
	HandleWebSocket(c echo.Context) error
}

// FloorplanStore defines the persistence used by the handlers.
// *store.SQLStore implements it; testutil.MockStore mocks it.
type FloorplanStore interface {
	Ping(ctx context.Context) error
	CreateFloorplan(ctx context.Context, in store.FloorplanInput) (*models.Floorplan, error)
	ListFloorplans(ctx context.Context) ([]models.Floorplan, error)
	GetFloorplan(ctx context.Context, id string) (*models.FloorplanWithDevices, error)
	DeleteFloorplan(ctx context.Context, id string) error
	CreateDevice(ctx context.Context, in models.DeviceInput) (*models.Device, error)
	GetDevice(ctx context.Context, id string) (*models.Device, error)
	ListDevices(ctx context.Context, floorplanID string) ([]models.Device, error)
	UpdateDevice(ctx context.Context, id string, in models.DeviceInput) (*models.Device, error)
	UpdateDevicePosition(ctx context.Context, deviceID string, xPercent, yPercent float64, floorplanID string) error
	UpdateDeviceScale(ctx context.Context, deviceID string, scale float64) error
	DeleteDevice(ctx context.Context, deviceID, floorplanID string) error
}

// EditorManager defines the editor session operations used by the handlers.
// *session.Manager implements it.
type EditorManager interface {
	Open(ctx context.Context, floorplanID string, container canvas.Size, locked bool) (*models.EditorSession, error)
	Get(id string) (*models.EditorSession, bool)
	List() []*models.EditorSession
	Count() int
	TouchSession(id string) bool
	Dispatch(id string, inputs ...canvas.Input) (canvas.Frame, []canvas.Notice, error)
	Frame(id string) (canvas.Frame, error)
	Reload(ctx context.Context, id string) (canvas.Frame, []canvas.Notice, error)
	Subscribe(id string) (<-chan session.Event, func(), error)
	Close(id string) error
}

// AssetResolver resolves image references. *assets.Resolver implements it.
type AssetResolver interface {
	canvas.ImageResolver
	Forget(ref string)
}
