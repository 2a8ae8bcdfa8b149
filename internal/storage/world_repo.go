package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/codeready-toolchain/hearth/internal/apperr"
	"github.com/codeready-toolchain/hearth/internal/domain"
)

// WorldRepo is the repository over world_state, cells, named_places and
// structures, grounded on original_source's storage/repositories/world.py.
type WorldRepo struct {
	client *Client
}

func NewWorldRepo(client *Client) *WorldRepo { return &WorldRepo{client: client} }

// InitWorldState creates the singleton world_state row if absent.
func (r *WorldRepo) InitWorldState(ctx context.Context, width, height int) error {
	q := r.client.querierFrom(ctx)
	_, err := q.ExecContext(ctx, `
		INSERT INTO world_state (id, current_tick, weather, width, height)
		VALUES (1, 0, 'clear', ?, ?)
		ON CONFLICT (id) DO NOTHING`, width, height)
	if err != nil {
		return fmt.Errorf("init world state: %w", err)
	}
	return nil
}

// GetWorldState returns current tick, weather and dimensions.
func (r *WorldRepo) GetWorldState(ctx context.Context) (tick int, weather domain.Weather, width, height int, err error) {
	q := r.client.querierFrom(ctx)
	var weatherStr string
	row := q.QueryRowContext(ctx, `SELECT current_tick, weather, width, height FROM world_state WHERE id = 1`)
	if err = row.Scan(&tick, &weatherStr, &width, &height); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.Clear, 0, 0, apperr.NotFoundf("world state")
		}
		return 0, domain.Clear, 0, 0, fmt.Errorf("get world state: %w", err)
	}
	w, _ := parseWeather(weatherStr)
	return tick, w, width, height, nil
}

// SetTick advances the persisted tick counter.
func (r *WorldRepo) SetTick(ctx context.Context, tick int) error {
	q := r.client.querierFrom(ctx)
	_, err := q.ExecContext(ctx, `UPDATE world_state SET current_tick = ? WHERE id = 1`, tick)
	if err != nil {
		return fmt.Errorf("set tick: %w", err)
	}
	return nil
}

// SetWeather persists the current weather.
func (r *WorldRepo) SetWeather(ctx context.Context, w domain.Weather) error {
	q := r.client.querierFrom(ctx)
	_, err := q.ExecContext(ctx, `UPDATE world_state SET weather = ? WHERE id = 1`, w.String())
	if err != nil {
		return fmt.Errorf("set weather: %w", err)
	}
	return nil
}

func parseWeather(s string) (domain.Weather, bool) {
	switch s {
	case "clear":
		return domain.Clear, true
	case "cloudy":
		return domain.Cloudy, true
	case "rainy":
		return domain.Rainy, true
	case "foggy":
		return domain.Foggy, true
	default:
		return domain.Clear, false
	}
}

// GetCell returns the stored cell at pos, or a default cell if no row
// exists (sparse storage: missing rows synthesize a default).
func (r *WorldRepo) GetCell(ctx context.Context, pos domain.Position) (domain.Cell, error) {
	q := r.client.querierFrom(ctx)
	row := q.QueryRowContext(ctx, `
		SELECT terrain, walls, doors, place_name, structure_id
		FROM cells WHERE x = ? AND y = ?`, pos.X, pos.Y)
	return scanCell(row, pos)
}

func scanCell(row *sql.Row, pos domain.Position) (domain.Cell, error) {
	var terrainStr, wallsRaw, doorsRaw string
	var placeName, structureID sql.NullString
	if err := row.Scan(&terrainStr, &wallsRaw, &doorsRaw, &placeName, &structureID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.DefaultCell(pos), nil
		}
		return domain.Cell{}, fmt.Errorf("get cell: %w", err)
	}
	terrain, _ := domain.ParseTerrain(terrainStr)
	walls, err := decodeDirectionSet(wallsRaw)
	if err != nil {
		return domain.Cell{}, err
	}
	doors, err := decodeDirectionSet(doorsRaw)
	if err != nil {
		return domain.Cell{}, err
	}
	return domain.Cell{
		Position:    pos,
		Terrain:     terrain,
		Walls:       walls,
		Doors:       doors,
		PlaceName:   placeName.String,
		StructureID: domain.ObjectId(structureID.String),
	}, nil
}

// SetCell writes cell, or deletes its row if the cell equals the default
// (sparse storage).
func (r *WorldRepo) SetCell(ctx context.Context, cell domain.Cell) error {
	q := r.client.querierFrom(ctx)
	if cell.IsDefault() {
		_, err := q.ExecContext(ctx, `DELETE FROM cells WHERE x = ? AND y = ?`, cell.Position.X, cell.Position.Y)
		if err != nil {
			return fmt.Errorf("delete default cell: %w", err)
		}
		return nil
	}
	wallsRaw, err := encodeDirectionSet(cell.Walls)
	if err != nil {
		return err
	}
	doorsRaw, err := encodeDirectionSet(cell.Doors)
	if err != nil {
		return err
	}
	var placeName, structureID any
	if cell.PlaceName != "" {
		placeName = cell.PlaceName
	}
	if cell.StructureID != "" {
		structureID = string(cell.StructureID)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO cells (x, y, terrain, walls, doors, place_name, structure_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (x, y) DO UPDATE SET
			terrain = excluded.terrain, walls = excluded.walls, doors = excluded.doors,
			place_name = excluded.place_name, structure_id = excluded.structure_id`,
		cell.Position.X, cell.Position.Y, cell.Terrain.String(), wallsRaw, doorsRaw, placeName, structureID)
	if err != nil {
		return fmt.Errorf("set cell: %w", err)
	}
	return nil
}

// SetCellsBulk is the batched upsert path used by world-generation's
// initial load.
func (r *WorldRepo) SetCellsBulk(ctx context.Context, cells []domain.Cell) error {
	return r.client.Transaction(ctx, func(ctx context.Context) error {
		for _, c := range cells {
			if err := r.SetCell(ctx, c); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetCellsInRect returns a cell (stored or default) for every position in
// rect.
func (r *WorldRepo) GetCellsInRect(ctx context.Context, rect domain.Rect, width, height int) ([]domain.Cell, error) {
	clamped := rect.Clamp(width, height)
	out := make([]domain.Cell, 0, clamped.Width()*clamped.Height())
	for _, p := range clamped.Positions() {
		c, err := r.GetCell(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// GetNamedPlace resolves a landmark name to a position.
func (r *WorldRepo) GetNamedPlace(ctx context.Context, name string) (domain.Position, error) {
	q := r.client.querierFrom(ctx)
	var x, y int
	row := q.QueryRowContext(ctx, `SELECT x, y FROM named_places WHERE name = ?`, name)
	if err := row.Scan(&x, &y); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Position{}, apperr.NotFoundf("named place %q", name)
		}
		return domain.Position{}, fmt.Errorf("get named place: %w", err)
	}
	return domain.Position{X: x, Y: y}, nil
}

// SetNamedPlace names (or renames) a landmark at pos.
func (r *WorldRepo) SetNamedPlace(ctx context.Context, name string, pos domain.Position) error {
	q := r.client.querierFrom(ctx)
	_, err := q.ExecContext(ctx, `
		INSERT INTO named_places (name, x, y) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET x = excluded.x, y = excluded.y`, name, pos.X, pos.Y)
	if err != nil {
		return fmt.Errorf("set named place: %w", err)
	}
	return nil
}

// RemoveNamedPlace deletes a landmark.
func (r *WorldRepo) RemoveNamedPlace(ctx context.Context, name string) error {
	q := r.client.querierFrom(ctx)
	_, err := q.ExecContext(ctx, `DELETE FROM named_places WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("remove named place: %w", err)
	}
	return nil
}

// GetStructure loads a structure by ID.
func (r *WorldRepo) GetStructure(ctx context.Context, id domain.ObjectId) (domain.Structure, error) {
	q := r.client.querierFrom(ctx)
	var interiorRaw string
	var createdBy, name sql.NullString
	var isPrivate int
	row := q.QueryRowContext(ctx, `
		SELECT interior_cells, created_by, name, is_private FROM structures WHERE id = ?`, string(id))
	if err := row.Scan(&interiorRaw, &createdBy, &name, &isPrivate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Structure{}, apperr.NotFoundf("structure %s", id)
		}
		return domain.Structure{}, fmt.Errorf("get structure: %w", err)
	}
	positions, err := decodePositions(interiorRaw)
	if err != nil {
		return domain.Structure{}, err
	}
	cells := make(map[domain.Position]bool, len(positions))
	for _, p := range positions {
		cells[p] = true
	}
	return domain.Structure{
		ID:            id,
		Name:          name.String,
		InteriorCells: cells,
		CreatedBy:     domain.AgentName(createdBy.String),
		IsPrivate:     isPrivate != 0,
	}, nil
}

// SaveStructure writes the structure and stamps structure_id into every
// interior cell, all within a single transaction (wall-symmetry-style
// multi-row write).
func (r *WorldRepo) SaveStructure(ctx context.Context, s domain.Structure) error {
	return r.client.Transaction(ctx, func(ctx context.Context) error {
		positions := make([]domain.Position, 0, len(s.InteriorCells))
		for p := range s.InteriorCells {
			positions = append(positions, p)
		}
		interiorRaw, err := encodePositions(positions)
		if err != nil {
			return err
		}
		q := r.client.querierFrom(ctx)
		var createdBy, name any
		if s.CreatedBy != "" {
			createdBy = string(s.CreatedBy)
		}
		if s.Name != "" {
			name = s.Name
		}
		isPrivate := 0
		if s.IsPrivate {
			isPrivate = 1
		}
		_, err = q.ExecContext(ctx, `
			INSERT INTO structures (id, interior_cells, created_by, name, is_private)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				interior_cells = excluded.interior_cells, created_by = excluded.created_by,
				name = excluded.name, is_private = excluded.is_private`,
			string(s.ID), interiorRaw, createdBy, name, isPrivate)
		if err != nil {
			return fmt.Errorf("save structure: %w", err)
		}
		for _, p := range positions {
			cell, err := r.GetCell(ctx, p)
			if err != nil {
				return err
			}
			if err := r.SetCell(ctx, cell.WithStructureID(s.ID)); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteStructure removes a structure (interior cells keep their
// structure_id stamp until explicitly cleared by the caller).
func (r *WorldRepo) DeleteStructure(ctx context.Context, id domain.ObjectId) error {
	q := r.client.querierFrom(ctx)
	_, err := q.ExecContext(ctx, `DELETE FROM structures WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("delete structure: %w", err)
	}
	return nil
}
