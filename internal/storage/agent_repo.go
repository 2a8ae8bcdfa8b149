package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/codeready-toolchain/hearth/internal/apperr"
	"github.com/codeready-toolchain/hearth/internal/domain"
)

// AgentRepo is the repository over agents and the two inventory child
// tables, grounded on original_source's storage/repositories/agents.py.
type AgentRepo struct {
	client *Client
}

func NewAgentRepo(client *Client) *AgentRepo { return &AgentRepo{client: client} }

// GetAgent loads an agent and its full inventory.
func (r *AgentRepo) GetAgent(ctx context.Context, name domain.AgentName) (domain.Agent, error) {
	q := r.client.querierFrom(ctx)
	var modelID, modelDisplay, personality, knownRaw string
	var x, y, isSleeping, lastActive, inputTokens, outputTokens int
	var sessionID sql.NullString
	var journeyRaw sql.NullString
	row := q.QueryRowContext(ctx, `
		SELECT model_id, model_display_name, personality, x, y, is_sleeping,
		       session_id, last_active_tick, known_agents, journey,
		       input_tokens, output_tokens
		FROM agents WHERE name = ?`, string(name))
	if err := row.Scan(&modelID, &modelDisplay, &personality, &x, &y, &isSleeping,
		&sessionID, &lastActive, &knownRaw, &journeyRaw, &inputTokens, &outputTokens); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Agent{}, apperr.NotFoundf("agent %s", name)
		}
		return domain.Agent{}, fmt.Errorf("get agent: %w", err)
	}
	known, err := decodeKnownAgents(knownRaw)
	if err != nil {
		return domain.Agent{}, err
	}
	var journeyPtr *string
	if journeyRaw.Valid {
		journeyPtr = &journeyRaw.String
	}
	journey, err := decodeJourney(journeyPtr)
	if err != nil {
		return domain.Agent{}, err
	}
	inv, err := r.loadInventory(ctx, name)
	if err != nil {
		return domain.Agent{}, err
	}
	return domain.Agent{
		Name:           name,
		Model:          domain.AgentModel{ID: modelID, DisplayName: modelDisplay},
		Personality:    personality,
		Position:       domain.Position{X: x, Y: y},
		Journey:        journey,
		Inventory:      inv,
		IsSleeping:     isSleeping != 0,
		KnownAgents:    known,
		SessionID:      sessionID.String,
		LastActiveTick: lastActive,
		TokenUsage:     domain.TokenUsage{InputTokens: inputTokens, OutputTokens: outputTokens},
	}, nil
}

// GetAllAgents returns every agent in the world.
func (r *AgentRepo) GetAllAgents(ctx context.Context) ([]domain.Agent, error) {
	q := r.client.querierFrom(ctx)
	rows, err := q.QueryContext(ctx, `SELECT name FROM agents`)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()
	var names []domain.AgentName
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan agent name: %w", err)
		}
		names = append(names, domain.AgentName(n))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.Agent, 0, len(names))
	for _, n := range names {
		a, err := r.GetAgent(ctx, n)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// GetAgentsInRect returns every agent positioned within rect.
func (r *AgentRepo) GetAgentsInRect(ctx context.Context, rect domain.Rect) ([]domain.Agent, error) {
	q := r.client.querierFrom(ctx)
	rows, err := q.QueryContext(ctx, `
		SELECT name FROM agents WHERE x BETWEEN ? AND ? AND y BETWEEN ? AND ?`,
		rect.MinX, rect.MaxX, rect.MinY, rect.MaxY)
	if err != nil {
		return nil, fmt.Errorf("list agents in rect: %w", err)
	}
	defer rows.Close()
	var names []domain.AgentName
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan agent name: %w", err)
		}
		names = append(names, domain.AgentName(n))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.Agent, 0, len(names))
	for _, n := range names {
		a, err := r.GetAgent(ctx, n)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// SaveAgent upserts an agent's scalar fields, then replaces its inventory
// wholesale within a single transaction.
func (r *AgentRepo) SaveAgent(ctx context.Context, a domain.Agent) error {
	return r.client.Transaction(ctx, func(ctx context.Context) error {
		knownRaw, err := encodeKnownAgents(a.KnownAgents)
		if err != nil {
			return err
		}
		journeyRaw, err := encodeJourney(a.Journey)
		if err != nil {
			return err
		}
		isSleeping := 0
		if a.IsSleeping {
			isSleeping = 1
		}
		var sessionID any
		if a.SessionID != "" {
			sessionID = a.SessionID
		}
		q := r.client.querierFrom(ctx)
		_, err = q.ExecContext(ctx, `
			INSERT INTO agents (name, model_id, model_display_name, personality, x, y,
			                     is_sleeping, session_id, last_active_tick, known_agents, journey,
			                     input_tokens, output_tokens)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (name) DO UPDATE SET
				model_id = excluded.model_id, model_display_name = excluded.model_display_name,
				personality = excluded.personality, x = excluded.x, y = excluded.y,
				is_sleeping = excluded.is_sleeping, session_id = excluded.session_id,
				last_active_tick = excluded.last_active_tick, known_agents = excluded.known_agents,
				journey = excluded.journey, input_tokens = excluded.input_tokens,
				output_tokens = excluded.output_tokens`,
			string(a.Name), a.Model.ID, a.Model.DisplayName, a.Personality, a.Position.X, a.Position.Y,
			isSleeping, sessionID, a.LastActiveTick, knownRaw, journeyRaw,
			a.TokenUsage.InputTokens, a.TokenUsage.OutputTokens)
		if err != nil {
			return fmt.Errorf("save agent: %w", err)
		}
		return r.saveInventory(ctx, a.Name, a.Inventory)
	})
}

// DeleteAgent removes an agent; cascades clear its inventory rows.
func (r *AgentRepo) DeleteAgent(ctx context.Context, name domain.AgentName) error {
	q := r.client.querierFrom(ctx)
	_, err := q.ExecContext(ctx, `DELETE FROM agents WHERE name = ?`, string(name))
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	return nil
}

// UpdatePosition is the narrow write the movement phase issues every tick,
// avoiding a full inventory round-trip for the common case.
func (r *AgentRepo) UpdatePosition(ctx context.Context, name domain.AgentName, pos domain.Position) error {
	q := r.client.querierFrom(ctx)
	_, err := q.ExecContext(ctx, `UPDATE agents SET x = ?, y = ? WHERE name = ?`, pos.X, pos.Y, string(name))
	if err != nil {
		return fmt.Errorf("update agent position: %w", err)
	}
	return nil
}

// UpdateSession persists the LLM session id and last-active tick together,
// the pair AgentBrain.Act refreshes after every turn.
func (r *AgentRepo) UpdateSession(ctx context.Context, name domain.AgentName, sessionID string, lastActiveTick int) error {
	q := r.client.querierFrom(ctx)
	_, err := q.ExecContext(ctx, `
		UPDATE agents SET session_id = ?, last_active_tick = ? WHERE name = ?`,
		sessionID, lastActiveTick, string(name))
	if err != nil {
		return fmt.Errorf("update agent session: %w", err)
	}
	return nil
}

// AccumulateTokenUsage adds usage onto the agent's running token totals in
// place, the same per-execution accumulation tarsy's
// AgentExecution/LLMInteraction schema performs — a narrow write so the
// commit phase doesn't need a full SaveAgent round-trip just to record
// token spend.
func (r *AgentRepo) AccumulateTokenUsage(ctx context.Context, name domain.AgentName, usage domain.TokenUsage) error {
	q := r.client.querierFrom(ctx)
	_, err := q.ExecContext(ctx, `
		UPDATE agents SET input_tokens = input_tokens + ?, output_tokens = output_tokens + ?
		WHERE name = ?`,
		usage.InputTokens, usage.OutputTokens, string(name))
	if err != nil {
		return fmt.Errorf("accumulate agent token usage: %w", err)
	}
	return nil
}

func (r *AgentRepo) loadInventory(ctx context.Context, name domain.AgentName) (domain.Inventory, error) {
	q := r.client.querierFrom(ctx)

	stackRows, err := q.QueryContext(ctx, `
		SELECT item_type, quantity FROM inventory_stacks WHERE agent = ?`, string(name))
	if err != nil {
		return domain.Inventory{}, fmt.Errorf("load inventory stacks: %w", err)
	}
	defer stackRows.Close()
	var stacks []domain.InventoryStack
	for stackRows.Next() {
		var s domain.InventoryStack
		if err := stackRows.Scan(&s.ItemType, &s.Quantity); err != nil {
			return domain.Inventory{}, fmt.Errorf("scan inventory stack: %w", err)
		}
		stacks = append(stacks, s)
	}
	if err := stackRows.Err(); err != nil {
		return domain.Inventory{}, err
	}

	itemRows, err := q.QueryContext(ctx, `
		SELECT id, item_type, properties FROM inventory_items WHERE agent = ?`, string(name))
	if err != nil {
		return domain.Inventory{}, fmt.Errorf("load inventory items: %w", err)
	}
	defer itemRows.Close()
	var items []domain.Item
	for itemRows.Next() {
		var id, itemType, propsRaw string
		if err := itemRows.Scan(&id, &itemType, &propsRaw); err != nil {
			return domain.Inventory{}, fmt.Errorf("scan inventory item: %w", err)
		}
		props, err := decodeStringSlice(propsRaw)
		if err != nil {
			return domain.Inventory{}, err
		}
		items = append(items, domain.Item{
			ID:         domain.ObjectId(id),
			ItemType:   itemType,
			Properties: props,
			Quantity:   1,
		})
	}
	if err := itemRows.Err(); err != nil {
		return domain.Inventory{}, err
	}

	return domain.Inventory{Stacks: stacks, Items: items}, nil
}

// saveInventory replaces both child tables wholesale — simpler and safer
// than diffing, and inventories are small.
func (r *AgentRepo) saveInventory(ctx context.Context, name domain.AgentName, inv domain.Inventory) error {
	q := r.client.querierFrom(ctx)
	if _, err := q.ExecContext(ctx, `DELETE FROM inventory_stacks WHERE agent = ?`, string(name)); err != nil {
		return fmt.Errorf("clear inventory stacks: %w", err)
	}
	for _, s := range inv.Stacks {
		if s.Quantity <= 0 {
			continue
		}
		if _, err := q.ExecContext(ctx, `
			INSERT INTO inventory_stacks (agent, item_type, quantity) VALUES (?, ?, ?)`,
			string(name), s.ItemType, s.Quantity); err != nil {
			return fmt.Errorf("insert inventory stack: %w", err)
		}
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM inventory_items WHERE agent = ?`, string(name)); err != nil {
		return fmt.Errorf("clear inventory items: %w", err)
	}
	for _, it := range inv.Items {
		propsRaw, err := encodeStringSlice(it.Properties)
		if err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `
			INSERT INTO inventory_items (id, agent, item_type, properties) VALUES (?, ?, ?, ?)`,
			string(it.ID), string(name), it.ItemType, propsRaw); err != nil {
			return fmt.Errorf("insert inventory item: %w", err)
		}
	}
	return nil
}
