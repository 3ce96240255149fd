// mock_store.go - In-memory floorplan and device store for testing
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/home-manager/backend/internal/models"
	"github.com/home-manager/backend/internal/store"
)

// MockStore mirrors store.SQLStore in memory.
type MockStore struct {
	mu         sync.Mutex
	floorplans map[string]models.Floorplan
	devices    map[string]models.Device
	seq        int

	// WriteErr, when set, fails every position, scale and delete write.
	WriteErr error
	// Writes counts successful position, scale and delete writes.
	Writes int
	// PingErr is returned by Ping.
	PingErr error
}

// NewMockStore creates an empty mock store.
func NewMockStore() *MockStore {
	return &MockStore{
		floorplans: make(map[string]models.Floorplan),
		devices:    make(map[string]models.Device),
	}
}

func (m *MockStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *MockStore) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.PingErr
}

func (m *MockStore) CreateFloorplan(ctx context.Context, in store.FloorplanInput) (*models.Floorplan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if strings.TrimSpace(in.Name) == "" || in.ImagePath == "" {
		return nil, fmt.Errorf("%w: name and image are required", store.ErrInvalid)
	}
	if in.Width <= 0 {
		in.Width = models.DefaultFloorplanWidth
	}
	if in.Height <= 0 {
		in.Height = models.DefaultFloorplanHeight
	}
	fp := models.Floorplan{
		ID:        m.nextID("fp"),
		Name:      strings.TrimSpace(in.Name),
		ImagePath: in.ImagePath,
		Width:     in.Width,
		Height:    in.Height,
		CreatedAt: time.Now(),
	}
	m.floorplans[fp.ID] = fp
	return &fp, nil
}

func (m *MockStore) ListFloorplans(ctx context.Context) ([]models.Floorplan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Floorplan, 0, len(m.floorplans))
	for _, fp := range m.floorplans {
		out = append(out, fp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockStore) GetFloorplan(ctx context.Context, id string) (*models.FloorplanWithDevices, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fp, ok := m.floorplans[id]
	if !ok {
		return nil, fmt.Errorf("floorplan %s: %w", id, store.ErrNotFound)
	}
	return &models.FloorplanWithDevices{Floorplan: fp, Devices: m.devicesOf(id)}, nil
}

func (m *MockStore) DeleteFloorplan(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.floorplans[id]; !ok {
		return fmt.Errorf("floorplan %s: %w", id, store.ErrNotFound)
	}
	delete(m.floorplans, id)
	for did, d := range m.devices {
		if d.FloorplanID == id {
			delete(m.devices, did)
		}
	}
	return nil
}

func (m *MockStore) CreateDevice(ctx context.Context, in models.DeviceInput) (*models.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if in.Name == "" || in.FloorplanID == "" || in.Protocol == "" {
		return nil, fmt.Errorf("%w: name, floorplan and protocol are required", store.ErrInvalid)
	}
	if _, ok := m.floorplans[in.FloorplanID]; !ok {
		return nil, fmt.Errorf("floorplan %s: %w", in.FloorplanID, store.ErrNotFound)
	}
	if in.Type == "" {
		in.Type = models.DefaultDeviceType
	}
	now := time.Now()
	d := models.Device{
		ID:          m.nextID("dev"),
		FloorplanID: in.FloorplanID,
		Name:        in.Name,
		Type:        in.Type,
		Protocol:    in.Protocol,
		Description: in.Description,
		PinCode:     in.PinCode,
		QRCodePath:  in.QRCodePath,
		XPos:        models.DefaultDevicePosition,
		YPos:        models.DefaultDevicePosition,
		Scale:       models.DefaultDeviceScale,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.devices[d.ID] = d
	return &d, nil
}

func (m *MockStore) GetDevice(ctx context.Context, id string) (*models.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.devices[id]
	if !ok {
		return nil, fmt.Errorf("device %s: %w", id, store.ErrNotFound)
	}
	return &d, nil
}

func (m *MockStore) ListDevices(ctx context.Context, floorplanID string) ([]models.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.devicesOf(floorplanID), nil
}

func (m *MockStore) devicesOf(floorplanID string) []models.Device {
	out := make([]models.Device, 0)
	for _, d := range m.devices {
		if floorplanID == "" || d.FloorplanID == floorplanID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MockStore) UpdateDevice(ctx context.Context, id string, in models.DeviceInput) (*models.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.devices[id]
	if !ok {
		return nil, fmt.Errorf("device %s: %w", id, store.ErrNotFound)
	}
	if in.Name == "" || in.Protocol == "" {
		return nil, fmt.Errorf("%w: name and protocol are required", store.ErrInvalid)
	}
	if in.Type == "" {
		in.Type = models.DefaultDeviceType
	}
	d.Name, d.Type, d.Protocol = in.Name, in.Type, in.Protocol
	d.Description, d.PinCode = in.Description, in.PinCode
	if in.QRCodePath != "" {
		d.QRCodePath = in.QRCodePath
	}
	d.UpdatedAt = time.Now()
	m.devices[id] = d
	return &d, nil
}

func (m *MockStore) UpdateDevicePosition(ctx context.Context, deviceID string, x, y float64, floorplanID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.WriteErr != nil {
		return m.WriteErr
	}
	d, ok := m.devices[deviceID]
	if !ok || (floorplanID != "" && d.FloorplanID != floorplanID) {
		return fmt.Errorf("device %s: %w", deviceID, store.ErrNotFound)
	}
	d.XPos, d.YPos = x, y
	m.devices[deviceID] = d
	m.Writes++
	return nil
}

func (m *MockStore) UpdateDeviceScale(ctx context.Context, deviceID string, scale float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.WriteErr != nil {
		return m.WriteErr
	}
	if scale <= 0 {
		return fmt.Errorf("%w: scale must be positive", store.ErrInvalid)
	}
	d, ok := m.devices[deviceID]
	if !ok {
		return fmt.Errorf("device %s: %w", deviceID, store.ErrNotFound)
	}
	d.Scale = scale
	m.devices[deviceID] = d
	m.Writes++
	return nil
}

func (m *MockStore) DeleteDevice(ctx context.Context, deviceID, floorplanID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.WriteErr != nil {
		return m.WriteErr
	}
	d, ok := m.devices[deviceID]
	if !ok || (floorplanID != "" && d.FloorplanID != floorplanID) {
		return fmt.Errorf("device %s: %w", deviceID, store.ErrNotFound)
	}
	delete(m.devices, deviceID)
	m.Writes++
	return nil
}

// SetWriteErr sets WriteErr under the store lock.
func (m *MockStore) SetWriteErr(err error) {
	m.mu.Lock()
	m.WriteErr = err
	m.mu.Unlock()
}

// WriteCount returns Writes under the store lock.
func (m *MockStore) WriteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Writes
}

// AddFloorplan inserts a floorplan with devices placed at the given percentages.
func (m *MockStore) AddFloorplan(name string, width, height float64, devices ...models.Device) *models.FloorplanWithDevices {
	fp, _ := m.CreateFloorplan(context.Background(), store.FloorplanInput{
		Name: name, ImagePath: "/uploads/floorplans/1-" + name + ".png", Width: width, Height: height,
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range devices {
		if d.ID == "" {
			d.ID = m.nextID("dev")
		}
		d.FloorplanID = fp.ID
		if d.Type == "" {
			d.Type = models.DefaultDeviceType
		}
		if d.Scale == 0 {
			d.Scale = models.DefaultDeviceScale
		}
		m.devices[d.ID] = d
	}
	return &models.FloorplanWithDevices{Floorplan: *fp, Devices: m.devicesOf(fp.ID)}
}
