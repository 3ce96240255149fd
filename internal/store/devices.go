package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/home-manager/backend/internal/models"
)

const deviceColumns = `id, floorplan_id, name, type, protocol, description, pin_code,
	qr_code_path, x_pos, y_pos, scale, created_at, updated_at`

// CreateDevice adds a device to a floorplan at the default position.
// Name, floorplan and protocol are required; the type defaults to "switch".
func (s *SQLStore) CreateDevice(ctx context.Context, in models.DeviceInput) (*models.Device, error) {
	in = normalizeInput(in)
	if in.Name == "" || in.FloorplanID == "" || in.Protocol == "" {
		return nil, fmt.Errorf("%w: name, floorplan and protocol are required", ErrInvalid)
	}
	if in.Type == "" {
		in.Type = models.DefaultDeviceType
	}
	if _, err := s.floorplan(ctx, in.FloorplanID); err != nil {
		return nil, err
	}

	now := nowMillis()
	d := &models.Device{
		ID:          uuid.New().String(),
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
		CreatedAt:   fromMillis(now),
		UpdatedAt:   fromMillis(now),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO devices (`+deviceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.FloorplanID, d.Name, d.Type, d.Protocol, d.Description, d.PinCode,
		d.QRCodePath, d.XPos, d.YPos, d.Scale, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert device: %w", err)
	}
	return d, nil
}

// GetDevice returns a single device.
func (s *SQLStore) GetDevice(ctx context.Context, id string) (*models.Device, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE id = ?`, id)
	d, err := scanDevice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("device %s: %w", id, ErrNotFound)
	}
	return d, err
}

// ListDevices returns the devices of one floorplan, or of all floorplans
// when floorplanID is empty, in creation order.
func (s *SQLStore) ListDevices(ctx context.Context, floorplanID string) ([]models.Device, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if floorplanID == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT `+deviceColumns+` FROM devices ORDER BY created_at, id`)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE floorplan_id = ? ORDER BY created_at, id`, floorplanID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	out := make([]models.Device, 0)
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// UpdateDevice replaces the form fields of a device. Position, scale and
// floorplan are left untouched. An empty QRCodePath keeps the current one.
func (s *SQLStore) UpdateDevice(ctx context.Context, id string, in models.DeviceInput) (*models.Device, error) {
	in = normalizeInput(in)
	if in.Name == "" || in.Protocol == "" {
		return nil, fmt.Errorf("%w: name and protocol are required", ErrInvalid)
	}
	if in.Type == "" {
		in.Type = models.DefaultDeviceType
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE devices
		SET name = ?, type = ?, protocol = ?, description = ?, pin_code = ?,
			qr_code_path = CASE WHEN ? = '' THEN qr_code_path ELSE ? END,
			updated_at = ?
		WHERE id = ?
	`, in.Name, in.Type, in.Protocol, in.Description, in.PinCode,
		in.QRCodePath, in.QRCodePath, nowMillis(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update device: %w", err)
	}
	if err := expectOne(res, "device", id); err != nil {
		return nil, err
	}
	return s.GetDevice(ctx, id)
}

// UpdateDevicePosition stores a marker position in percent of the floorplan's
// native size. Values outside 0..100 are accepted unchanged. A non-empty
// floorplanID must match the device's floorplan.
func (s *SQLStore) UpdateDevicePosition(ctx context.Context, deviceID string, xPercent, yPercent float64, floorplanID string) error {
	if !finite(xPercent) || !finite(yPercent) {
		return fmt.Errorf("%w: position must be finite", ErrInvalid)
	}
	query := `UPDATE devices SET x_pos = ?, y_pos = ?, updated_at = ? WHERE id = ?`
	args := []any{xPercent, yPercent, nowMillis(), deviceID}
	if floorplanID != "" {
		query += ` AND floorplan_id = ?`
		args = append(args, floorplanID)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update device position: %w", err)
	}
	return expectOne(res, "device", deviceID)
}

// UpdateDeviceScale stores a marker's visual scale.
func (s *SQLStore) UpdateDeviceScale(ctx context.Context, deviceID string, scale float64) error {
	if scale <= 0 || !finite(scale) {
		return fmt.Errorf("%w: scale must be positive", ErrInvalid)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE devices SET scale = ?, updated_at = ? WHERE id = ?`, scale, nowMillis(), deviceID)
	if err != nil {
		return fmt.Errorf("failed to update device scale: %w", err)
	}
	return expectOne(res, "device", deviceID)
}

// DeleteDevice removes a device. A non-empty floorplanID must match the
// device's floorplan.
func (s *SQLStore) DeleteDevice(ctx context.Context, deviceID, floorplanID string) error {
	query := `DELETE FROM devices WHERE id = ?`
	args := []any{deviceID}
	if floorplanID != "" {
		query += ` AND floorplan_id = ?`
		args = append(args, floorplanID)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}
	return expectOne(res, "device", deviceID)
}

func normalizeInput(in models.DeviceInput) models.DeviceInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Type = strings.TrimSpace(in.Type)
	in.Protocol = strings.TrimSpace(in.Protocol)
	in.FloorplanID = strings.TrimSpace(in.FloorplanID)
	return in
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func scanDevice(r scanner) (*models.Device, error) {
	var (
		dev              models.Device
		created, updated int64
	)
	if err := r.Scan(&dev.ID, &dev.FloorplanID, &dev.Name, &dev.Type, &dev.Protocol,
		&dev.Description, &dev.PinCode, &dev.QRCodePath, &dev.XPos, &dev.YPos,
		&dev.Scale, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan device: %w", err)
	}
	dev.CreatedAt = fromMillis(created)
	dev.UpdatedAt = fromMillis(updated)
	return &dev, nil
}
