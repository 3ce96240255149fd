package web

import (
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIconFS(t *testing.T) {
	icons := IconFS()

	for _, name := range []string{"devices/switch.png", "devices/window-door_sensor.png", "protocols/zigbee.png"} {
		_, err := fs.Stat(icons, name)
		assert.NoError(t, err, name)
	}
	_, err := fs.Stat(icons, "devices/toaster.png")
	assert.Error(t, err)
}

func TestRegisterStaticRoutes(t *testing.T) {
	require.True(t, HasEmbeddedFiles())

	e := echo.New()
	require.NoError(t, RegisterStaticRoutes(e))

	tests := []struct {
		path   string
		status int
		ctype  string
	}{
		{"/", http.StatusOK, "text/html"},
		{"/floorplans/abc", http.StatusOK, "text/html"},
		{"/assets/icons/devices/camera.png", http.StatusOK, "image/png"},
		{"/assets/icons/devices/toaster.png", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.ctype != "" {
				assert.Contains(t, rec.Header().Get("Content-Type"), tt.ctype)
			}
		})
	}
}
