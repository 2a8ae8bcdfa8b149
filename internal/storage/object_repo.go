package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/codeready-toolchain/hearth/internal/apperr"
	"github.com/codeready-toolchain/hearth/internal/domain"
)

// ObjectRepo is the repository over the polymorphic objects table (signs
// and placed items share one row shape, discriminated by type), grounded
// on original_source's storage/repositories/objects.py.
type ObjectRepo struct {
	client *Client
}

func NewObjectRepo(client *Client) *ObjectRepo { return &ObjectRepo{client: client} }

// objectData is the JSON shape of the variant-specific fields stored in
// the data column.
type objectData struct {
	Text       string   `json:"text,omitempty"`
	ItemType   string   `json:"item_type,omitempty"`
	Properties []string `json:"properties,omitempty"`
}

func (r *ObjectRepo) GetObject(ctx context.Context, id domain.ObjectId) (domain.WorldObject, error) {
	q := r.client.querierFrom(ctx)
	row := q.QueryRowContext(ctx, `
		SELECT id, type, x, y, created_by, created_tick, passable, quantity, data
		FROM objects WHERE id = ?`, string(id))
	return scanObject(row)
}

func scanObject(row *sql.Row) (domain.WorldObject, error) {
	var id, typ, dataRaw string
	var x, y, createdTick, passable, quantity int
	var createdBy sql.NullString
	if err := row.Scan(&id, &typ, &x, &y, &createdBy, &createdTick, &passable, &quantity, &dataRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.WorldObject{}, apperr.NotFoundf("object %s", id)
		}
		return domain.WorldObject{}, fmt.Errorf("get object: %w", err)
	}
	var data objectData
	if err := decodeJSON(dataRaw, &data); err != nil {
		return domain.WorldObject{}, err
	}
	var kind domain.WorldObjectType
	switch typ {
	case "sign":
		kind = domain.ObjectSign
	default:
		kind = domain.ObjectPlacedItem
	}
	return domain.WorldObject{
		ID:          domain.ObjectId(id),
		Kind:        kind,
		Position:    domain.Position{X: x, Y: y},
		CreatedBy:   domain.AgentName(createdBy.String),
		CreatedTick: createdTick,
		Passable:    passable != 0,
		Text:        data.Text,
		ItemType:    data.ItemType,
		Properties:  data.Properties,
		Quantity:    quantity,
	}, nil
}

// GetObjectsAt returns every object at pos.
func (r *ObjectRepo) GetObjectsAt(ctx context.Context, pos domain.Position) ([]domain.WorldObject, error) {
	return r.queryObjects(ctx, `
		SELECT id, type, x, y, created_by, created_tick, passable, quantity, data
		FROM objects WHERE x = ? AND y = ?`, pos.X, pos.Y)
}

// GetObjectsInRect returns every object within rect.
func (r *ObjectRepo) GetObjectsInRect(ctx context.Context, rect domain.Rect) ([]domain.WorldObject, error) {
	return r.queryObjects(ctx, `
		SELECT id, type, x, y, created_by, created_tick, passable, quantity, data
		FROM objects WHERE x BETWEEN ? AND ? AND y BETWEEN ? AND ?`,
		rect.MinX, rect.MaxX, rect.MinY, rect.MaxY)
}

// GetObjectsByType lists every object of a given item type, used by
// give/take quantity bookkeeping for stackable placed items.
func (r *ObjectRepo) GetObjectsByType(ctx context.Context, itemType string) ([]domain.WorldObject, error) {
	rows, err := r.queryObjects(ctx, `
		SELECT id, type, x, y, created_by, created_tick, passable, quantity, data
		FROM objects WHERE type = 'item'`)
	if err != nil {
		return nil, err
	}
	out := rows[:0]
	for _, o := range rows {
		if o.ItemType == itemType {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *ObjectRepo) queryObjects(ctx context.Context, query string, args ...any) ([]domain.WorldObject, error) {
	q := r.client.querierFrom(ctx)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query objects: %w", err)
	}
	defer rows.Close()
	var out []domain.WorldObject
	for rows.Next() {
		var id, typ, dataRaw string
		var x, y, createdTick, passable, quantity int
		var createdBy sql.NullString
		if err := rows.Scan(&id, &typ, &x, &y, &createdBy, &createdTick, &passable, &quantity, &dataRaw); err != nil {
			return nil, fmt.Errorf("scan object: %w", err)
		}
		var data objectData
		if err := decodeJSON(dataRaw, &data); err != nil {
			return nil, err
		}
		kind := domain.ObjectPlacedItem
		if typ == "sign" {
			kind = domain.ObjectSign
		}
		out = append(out, domain.WorldObject{
			ID:          domain.ObjectId(id),
			Kind:        kind,
			Position:    domain.Position{X: x, Y: y},
			CreatedBy:   domain.AgentName(createdBy.String),
			CreatedTick: createdTick,
			Passable:    passable != 0,
			Text:        data.Text,
			ItemType:    data.ItemType,
			Properties:  data.Properties,
			Quantity:    quantity,
		})
	}
	return out, rows.Err()
}

// SaveObject upserts a world object.
func (r *ObjectRepo) SaveObject(ctx context.Context, o domain.WorldObject) error {
	typ := "item"
	if o.Kind == domain.ObjectSign {
		typ = "sign"
	}
	dataRaw, err := encodeJSON(objectData{Text: o.Text, ItemType: o.ItemType, Properties: o.Properties})
	if err != nil {
		return err
	}
	passable := 0
	if o.Passable {
		passable = 1
	}
	var createdBy any
	if o.CreatedBy != "" {
		createdBy = string(o.CreatedBy)
	}
	quantity := o.Quantity
	if quantity == 0 {
		quantity = 1
	}
	q := r.client.querierFrom(ctx)
	_, err = q.ExecContext(ctx, `
		INSERT INTO objects (id, type, x, y, created_by, created_tick, passable, quantity, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			type = excluded.type, x = excluded.x, y = excluded.y, created_by = excluded.created_by,
			created_tick = excluded.created_tick, passable = excluded.passable,
			quantity = excluded.quantity, data = excluded.data`,
		string(o.ID), typ, o.Position.X, o.Position.Y, createdBy, o.CreatedTick, passable, quantity, dataRaw)
	if err != nil {
		return fmt.Errorf("save object: %w", err)
	}
	return nil
}

// RemoveObject deletes an object from the world.
func (r *ObjectRepo) RemoveObject(ctx context.Context, id domain.ObjectId) error {
	q := r.client.querierFrom(ctx)
	_, err := q.ExecContext(ctx, `DELETE FROM objects WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}
