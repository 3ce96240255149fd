package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/home-manager/backend/internal/models"
)

// FloorplanInput carries the fields of a new floorplan. Width and Height
// default to 800x600 when not positive.
type FloorplanInput struct {
	Name      string
	ImagePath string
	Width     float64
	Height    float64
}

func nowMillis() int64 { return time.Now().UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms) }

// CreateFloorplan inserts a new floorplan.
func (s *SQLStore) CreateFloorplan(ctx context.Context, in FloorplanInput) (*models.Floorplan, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, fmt.Errorf("%w: floorplan name is required", ErrInvalid)
	}
	if in.ImagePath == "" {
		return nil, fmt.Errorf("%w: floorplan image is required", ErrInvalid)
	}
	if in.Width <= 0 {
		in.Width = models.DefaultFloorplanWidth
	}
	if in.Height <= 0 {
		in.Height = models.DefaultFloorplanHeight
	}

	now := nowMillis()
	fp := &models.Floorplan{
		ID:        uuid.New().String(),
		Name:      in.Name,
		ImagePath: in.ImagePath,
		Width:     in.Width,
		Height:    in.Height,
		CreatedAt: fromMillis(now),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO floorplans (id, name, image_path, width, height, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, fp.ID, fp.Name, fp.ImagePath, fp.Width, fp.Height, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert floorplan: %w", err)
	}
	return fp, nil
}

// ListFloorplans returns all floorplans, newest first.
func (s *SQLStore) ListFloorplans(ctx context.Context) ([]models.Floorplan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, image_path, width, height, created_at
		FROM floorplans ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query floorplans: %w", err)
	}
	defer rows.Close()

	out := make([]models.Floorplan, 0)
	for rows.Next() {
		fp, err := scanFloorplan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *fp)
	}
	return out, rows.Err()
}

// GetFloorplan returns a floorplan with its devices.
func (s *SQLStore) GetFloorplan(ctx context.Context, id string) (*models.FloorplanWithDevices, error) {
	fp, err := s.floorplan(ctx, id)
	if err != nil {
		return nil, err
	}
	devices, err := s.ListDevices(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.FloorplanWithDevices{Floorplan: *fp, Devices: devices}, nil
}

func (s *SQLStore) floorplan(ctx context.Context, id string) (*models.Floorplan, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, image_path, width, height, created_at
		FROM floorplans WHERE id = ?
	`, id)
	fp, err := scanFloorplan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("floorplan %s: %w", id, ErrNotFound)
	}
	return fp, err
}

// DeleteFloorplan removes a floorplan and all of its devices.
func (s *SQLStore) DeleteFloorplan(ctx context.Context, id string) error {
	return s.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM devices WHERE floorplan_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete devices: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM floorplans WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete floorplan: %w", err)
		}
		return expectOne(res, "floorplan", id)
	})
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFloorplan(r scanner) (*models.Floorplan, error) {
	var (
		fp      models.Floorplan
		created int64
	)
	if err := r.Scan(&fp.ID, &fp.Name, &fp.ImagePath, &fp.Width, &fp.Height, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan floorplan: %w", err)
	}
	fp.CreatedAt = fromMillis(created)
	return &fp, nil
}
