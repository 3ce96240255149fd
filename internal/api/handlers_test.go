package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/home-manager/backend/internal/assets"
	"github.com/home-manager/backend/internal/catalog"
	"github.com/home-manager/backend/internal/models"
	"github.com/home-manager/backend/internal/session"
	"github.com/home-manager/backend/internal/storage"
	"github.com/home-manager/backend/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	e       *echo.Echo
	store   *testutil.MockStore
	files   *testutil.MockStorage
	editors *session.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := testutil.NewMockStore()
	files := testutil.NewMockStorage()
	icons := fstest.MapFS{
		"devices/switch.png":   {Data: []byte("png")},
		"devices/sensor.png":   {Data: []byte("png")},
		"protocols/zigbee.png": {Data: []byte("png")},
	}
	resolver := assets.NewResolver(icons, files)
	editors := session.NewManager(st, session.Options{
		Logger:           zerolog.Nop(),
		Resolver:         resolver,
		SerializeCommits: true,
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = editors.Shutdown(ctx)
	})

	h := NewHandlers(&Dependencies{
		Store:             st,
		Files:             files,
		Catalog:           catalog.Default(),
		Assets:            resolver,
		Editors:           editors,
		Version:           "test",
		Logger:            zerolog.Nop(),
		AllowedImageTypes: []string{".png", ".jpg", ".svg"},
		MaxImageBytes:     1 << 20,
	})
	e := echo.New()
	SetupMiddleware(e)
	RegisterRoutes(e, h, RouteOptions{AllowDeletion: true})

	return &testEnv{e: e, store: st, files: files, editors: editors}
}

func (env *testEnv) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func pngData(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func b64(data []byte) string { return base64.StdEncoding.EncodeToString(data) }

func TestHealthHandler(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.Equal(t, float64(0), body["editorSessions"])

	env.store.PingErr = errors.New("disk I/O error")
	rec = env.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body = decode[map[string]interface{}](t, rec)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "disk I/O error", body["database"])
}

func TestFloorplanHandler_Create(t *testing.T) {
	env := newTestEnv(t)
	img := pngData(t, 1024, 768)

	t.Run("size from image", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/floorplans", map[string]interface{}{
			"name": "Ground floor", "image": b64(img), "imageName": "ground floor.png",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		fp := decode[floorplanResponse](t, rec)
		assert.Equal(t, "Ground floor", fp.Name)
		assert.Equal(t, 1024.0, fp.Width)
		assert.Equal(t, 768.0, fp.Height)
		assert.True(t, strings.HasPrefix(fp.ImagePath, "/uploads/floorplans/"))
		assert.True(t, strings.HasSuffix(fp.ImagePath, "-ground-floor.png"))
		assert.Equal(t, fp.ImagePath, fp.Image.URL)
		assert.False(t, fp.Image.Fallback)
		assert.Empty(t, fp.Devices)

		data, ok := env.files.GetFileData(fp.ImagePath)
		require.True(t, ok)
		assert.Equal(t, img, data)
	})

	t.Run("explicit size and data URL", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/floorplans", map[string]interface{}{
			"name": "attic", "image": "data:image/png;base64," + b64(img), "width": 800, "height": 600,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		fp := decode[floorplanResponse](t, rec)
		assert.Equal(t, 800.0, fp.Width)
		assert.Equal(t, 600.0, fp.Height)
		assert.True(t, strings.HasSuffix(fp.ImagePath, "-attic.png"))
	})

	t.Run("undecodable image gets default size", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/floorplans", map[string]interface{}{
			"name": "vector", "image": b64([]byte("<svg/>")), "imageName": "plan.svg",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		fp := decode[floorplanResponse](t, rec)
		assert.Equal(t, float64(models.DefaultFloorplanWidth), fp.Width)
		assert.Equal(t, float64(models.DefaultFloorplanHeight), fp.Height)
	})

	tests := []struct {
		name    string
		body    interface{}
		errCode string
	}{
		{
			name:    "missing name",
			body:    map[string]interface{}{"image": b64(img)},
			errCode: "VALIDATION_ERROR",
		},
		{
			name:    "blank name",
			body:    map[string]interface{}{"name": "  ", "image": b64(img), "imageName": "a.png"},
			errCode: "VALIDATION_ERROR",
		},
		{
			name:    "unknown field",
			body:    map[string]interface{}{"name": "a", "image": b64(img), "owner": "x"},
			errCode: "VALIDATION_ERROR",
		},
		{
			name:    "negative width",
			body:    map[string]interface{}{"name": "a", "image": b64(img), "imageName": "a.png", "width": -1},
			errCode: "VALIDATION_ERROR",
		},
		{
			name:    "invalid base64",
			body:    map[string]interface{}{"name": "a", "image": "not-valid!!!", "imageName": "a.png"},
			errCode: "BAD_REQUEST",
		},
		{
			name:    "unsupported type",
			body:    map[string]interface{}{"name": "a", "image": b64(img), "imageName": "a.bmp"},
			errCode: "BAD_REQUEST",
		},
		{
			name:    "unknown type without name",
			body:    map[string]interface{}{"name": "a", "image": b64(img)},
			errCode: "BAD_REQUEST",
		},
		{
			name:    "malformed JSON",
			body:    `{"name":`,
			errCode: "BAD_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := env.files.GetFileCount()
			rec := env.do(t, http.MethodPost, "/api/floorplans", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			apiErr := decode[APIError](t, rec)
			assert.Equal(t, tt.errCode, apiErr.Code, rec.Body.String())
			assert.Equal(t, before, env.files.GetFileCount(), "nothing is stored")
		})
	}
}

func TestFloorplanHandler_GetListDelete(t *testing.T) {
	env := newTestEnv(t)
	qr := env.files.AddFile(storage.FolderQRCodes, "1-qr.png", []byte("qr"))
	plan := env.files.AddFile(storage.FolderFloorplans, "2-other.png", []byte("plan"))
	fp := env.store.AddFloorplan("plan", 800, 600,
		models.Device{Name: "Lamp", Protocol: "zigbee", XPos: 10, YPos: 20, QRCodePath: qr.Path})

	rec := env.do(t, http.MethodGet, "/api/floorplans", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Floorplan](t, rec), 1)

	rec = env.do(t, http.MethodGet, "/api/floorplans/"+fp.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[floorplanResponse](t, rec)
	require.Len(t, got.Devices, 1)
	assert.Equal(t, "Lamp", got.Devices[0].Name)
	// AddFloorplan points at a file that is not stored.
	assert.True(t, got.Image.Fallback)

	rec = env.do(t, http.MethodGet, "/api/floorplans/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode[APIError](t, rec).Code)

	sess, err := env.editors.Open(context.Background(), fp.ID, canvasSize(400, 300), false)
	require.NoError(t, err)

	rec = env.do(t, http.MethodDelete, "/api/floorplans/"+fp.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	assert.False(t, env.files.Exists(context.Background(), qr.Path), "device QR code is removed")
	assert.True(t, env.files.Exists(context.Background(), plan.Path), "unrelated files stay")
	_, ok := env.editors.Get(sess.ID)
	assert.False(t, ok, "editors on the floorplan are closed")

	rec = env.do(t, http.MethodGet, "/api/floorplans/"+fp.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/floorplans/"+fp.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteRoutesDisabled(t *testing.T) {
	env := newTestEnv(t)
	e := echo.New()
	SetupMiddleware(e)
	RegisterRoutes(e, NewHandlers(&Dependencies{Store: env.store, Files: env.files, Editors: env.editors, Logger: zerolog.Nop()}), RouteOptions{})
	fp := env.store.AddFloorplan("plan", 800, 600)

	req := httptest.NewRequest(http.MethodDelete, "/api/floorplans/"+fp.ID, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestDeviceHandler_Create(t *testing.T) {
	env := newTestEnv(t)
	fp := env.store.AddFloorplan("plan", 800, 600)

	rec := env.do(t, http.MethodPost, "/api/floorplans/"+fp.ID+"/devices", map[string]interface{}{
		"name": " Hall light ", "protocol": "Zigbee", "description": "ceiling",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	d := decode[deviceResponse](t, rec)
	assert.Equal(t, "Hall light", d.Name)
	assert.Equal(t, fp.ID, d.FloorplanID)
	assert.Equal(t, "zigbee", d.Protocol, "catalog value is canonical")
	assert.Equal(t, models.DefaultDeviceType, d.Type)
	assert.Equal(t, models.DefaultDevicePosition, d.XPos)
	assert.Equal(t, models.DefaultDevicePosition, d.YPos)
	assert.Equal(t, "/assets/icons/devices/switch.png", d.TypeIcon.URL)
	assert.Equal(t, "/assets/icons/protocols/zigbee.png", d.ProtocolIcon.URL)
	assert.Nil(t, d.QRCode)

	t.Run("with QR code", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/floorplans/"+fp.ID+"/devices", map[string]interface{}{
			"name": "Door", "type": "window-door_sensor", "protocol": "zwave",
			"qrCode": b64(pngData(t, 4, 4)), "qrCodeName": "door.png",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		d := decode[deviceResponse](t, rec)
		assert.True(t, strings.HasPrefix(d.QRCodePath, "/uploads/qrcodes/"))
		require.NotNil(t, d.QRCode)
		assert.Equal(t, d.QRCodePath, d.QRCode.URL)
		assert.True(t, d.TypeIcon.Fallback)
		assert.Equal(t, "?", d.TypeIcon.Glyph)
		assert.True(t, d.ProtocolIcon.Fallback)
		assert.Equal(t, "Z", d.ProtocolIcon.Glyph)
	})

	tests := []struct {
		name       string
		floorplan  string
		body       map[string]interface{}
		wantStatus int
		errCode    string
	}{
		{
			name:       "missing protocol",
			floorplan:  fp.ID,
			body:       map[string]interface{}{"name": "x"},
			wantStatus: http.StatusBadRequest,
			errCode:    "VALIDATION_ERROR",
		},
		{
			name:       "unknown protocol",
			floorplan:  fp.ID,
			body:       map[string]interface{}{"name": "x", "protocol": "bluetooth"},
			wantStatus: http.StatusBadRequest,
			errCode:    "VALIDATION_ERROR",
		},
		{
			name:       "unknown type",
			floorplan:  fp.ID,
			body:       map[string]interface{}{"name": "x", "protocol": "wifi", "type": "toaster"},
			wantStatus: http.StatusBadRequest,
			errCode:    "VALIDATION_ERROR",
		},
		{
			name:       "unknown floorplan",
			floorplan:  "missing",
			body:       map[string]interface{}{"name": "x", "protocol": "wifi"},
			wantStatus: http.StatusNotFound,
			errCode:    "NOT_FOUND",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/floorplans/"+tt.floorplan+"/devices", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.errCode, decode[APIError](t, rec).Code)
		})
	}
}

func TestDeviceHandler_CreateRemovesQRCodeOnFailure(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/floorplans/missing/devices", map[string]interface{}{
		"name": "x", "protocol": "wifi", "qrCode": b64(pngData(t, 2, 2)), "qrCodeName": "x.png",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 0, env.files.GetFileCount())
}

func TestDeviceHandler_UpdateAndList(t *testing.T) {
	env := newTestEnv(t)
	oldQR := env.files.AddFile(storage.FolderQRCodes, "1-old.png", []byte("old"))
	fp := env.store.AddFloorplan("plan", 800, 600,
		models.Device{ID: "d1", Name: "Lamp", Protocol: "zigbee", QRCodePath: oldQR.Path})
	other := env.store.AddFloorplan("other", 800, 600, models.Device{ID: "d2", Name: "Plug", Protocol: "wifi"})

	rec := env.do(t, http.MethodPut, "/api/devices/d1", map[string]interface{}{
		"name": "Desk lamp", "type": "sensor", "protocol": "matter", "pinCode": "1234",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	d := decode[deviceResponse](t, rec)
	assert.Equal(t, "Desk lamp", d.Name)
	assert.Equal(t, "sensor", d.Type)
	assert.Equal(t, "matter", d.Protocol)
	assert.Equal(t, oldQR.Path, d.QRCodePath, "QR code kept when none is sent")

	rec = env.do(t, http.MethodPut, "/api/devices/d1", map[string]interface{}{
		"name": "Desk lamp", "protocol": "matter", "qrCode": "data:image/png;base64," + b64(pngData(t, 2, 2)),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	d = decode[deviceResponse](t, rec)
	assert.NotEqual(t, oldQR.Path, d.QRCodePath)
	assert.True(t, strings.HasSuffix(d.QRCodePath, "-qrcode.png"))
	assert.False(t, env.files.Exists(context.Background(), oldQR.Path), "replaced QR code is removed")

	rec = env.do(t, http.MethodPut, "/api/devices/missing", map[string]interface{}{"name": "x", "protocol": "wifi"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/devices", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]deviceResponse](t, rec), 2)

	rec = env.do(t, http.MethodGet, "/api/devices?floorplanId="+other.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]deviceResponse](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "d2", list[0].ID)

	rec = env.do(t, http.MethodGet, "/api/devices/d1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, fp.ID, decode[deviceResponse](t, rec).FloorplanID)
}

func TestDeviceHandler_PositionAndScale(t *testing.T) {
	env := newTestEnv(t)
	fp := env.store.AddFloorplan("plan", 800, 600, models.Device{ID: "d1", Name: "Lamp", Protocol: "zigbee"})

	tests := []struct {
		name       string
		target     string
		body       interface{}
		wantStatus int
		check      func(t *testing.T, d deviceResponse)
	}{
		{
			name:       "position outside the image is kept",
			target:     "/api/devices/d1/position",
			body:       map[string]interface{}{"xPos": 120, "yPos": -5, "floorplanId": fp.ID},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, d deviceResponse) {
				assert.Equal(t, 120.0, d.XPos)
				assert.Equal(t, -5.0, d.YPos)
			},
		},
		{
			name:       "position on another floorplan",
			target:     "/api/devices/d1/position",
			body:       map[string]interface{}{"xPos": 1, "yPos": 2, "floorplanId": "other"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "position missing y",
			target:     "/api/devices/d1/position",
			body:       map[string]interface{}{"xPos": 1},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "scale",
			target:     "/api/devices/d1/scale",
			body:       map[string]interface{}{"scale": 2.5},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, d deviceResponse) {
				assert.Equal(t, 2.5, d.Scale)
			},
		},
		{
			name:       "zero scale",
			target:     "/api/devices/d1/scale",
			body:       map[string]interface{}{"scale": 0},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "scale of missing device",
			target:     "/api/devices/nope/scale",
			body:       map[string]interface{}{"scale": 1},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPut, tt.target, tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.check != nil {
				tt.check(t, decode[deviceResponse](t, rec))
			}
		})
	}
}

func TestDeviceHandler_Delete(t *testing.T) {
	env := newTestEnv(t)
	qr := env.files.AddFile(storage.FolderQRCodes, "1-qr.png", []byte("qr"))
	fp := env.store.AddFloorplan("plan", 800, 600, models.Device{ID: "d1", Name: "Lamp", Protocol: "zigbee", QRCodePath: qr.Path})

	rec := env.do(t, http.MethodDelete, "/api/devices/d1?floorplanId=other", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/devices/d1?floorplanId="+fp.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, env.files.Exists(context.Background(), qr.Path))

	rec = env.do(t, http.MethodDelete, "/api/devices/d1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAssetHandler(t *testing.T) {
	env := newTestEnv(t)
	plan := env.files.AddFile(storage.FolderFloorplans, "1700000000000-plan.png", []byte("png-bytes"))

	t.Run("resolve", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/assets/resolve?ref="+plan.Path, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, models.ImageRef{Ref: plan.Path, URL: plan.Path}, decode[models.ImageRef](t, rec))

		rec = env.do(t, http.MethodGet, "/api/assets/resolve?ref=/uploads/floorplans/missing.png&glyph=Z", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		img := decode[models.ImageRef](t, rec)
		assert.True(t, img.Fallback)
		assert.Equal(t, "Z", img.Glyph)

		rec = env.do(t, http.MethodGet, "/api/assets/resolve", nil)
		img = decode[models.ImageRef](t, rec)
		assert.True(t, img.Fallback)
		assert.Equal(t, assets.FallbackGlyph, img.Glyph)
	})

	t.Run("serve upload", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, plan.Path, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
		assert.Equal(t, "png-bytes", rec.Body.String())

		rec = env.do(t, http.MethodGet, "/uploads/floorplans/missing.png", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = env.do(t, http.MethodGet, "/uploads/../etc/passwd", nil)
		assert.NotEqual(t, http.StatusOK, rec.Code)
	})

	t.Run("catalog", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/catalog", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		cat := decode[models.Catalog](t, rec)
		require.NotEmpty(t, cat.DeviceTypes)
		require.NotEmpty(t, cat.Protocols)

		icons := map[string]models.ImageRef{}
		for _, e := range append(cat.DeviceTypes, cat.Protocols...) {
			icons[e.Value] = e.Icon
		}
		assert.Equal(t, "/assets/icons/devices/switch.png", icons["switch"].URL)
		assert.True(t, icons["camera"].Fallback)
		assert.Equal(t, "/assets/icons/protocols/zigbee.png", icons["zigbee"].URL)
		assert.Equal(t, "M", icons["matter"].Glyph)
	})
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"api error", NewNotFoundError("device", "d9"), http.StatusNotFound, "NOT_FOUND"},
		{"echo error", echo.NewHTTPError(http.StatusTeapot, "short"), http.StatusTeapot, "HTTP_ERROR"},
		{"plain error", assert.AnError, http.StatusInternalServerError, "UNKNOWN_ERROR"},
		{"limit", mapError(session.ErrLimit, "session", "", "open"), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			ErrorHandler(tt.err, e.NewContext(req, rec))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decode[APIError](t, rec).Code)
		})
	}
}
