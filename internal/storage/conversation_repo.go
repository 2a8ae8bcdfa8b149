package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/codeready-toolchain/hearth/internal/apperr"
	"github.com/codeready-toolchain/hearth/internal/domain"
)

// ConversationRepo is the repository over conversations, their
// participants, turn history and pending invitations, grounded on
// original_source's storage/repositories/conversations.py and the calls
// ConversationService makes against it.
type ConversationRepo struct {
	client *Client
}

func NewConversationRepo(client *Client) *ConversationRepo { return &ConversationRepo{client: client} }

// GetConversation loads a conversation with its participants and full
// turn history.
func (r *ConversationRepo) GetConversation(ctx context.Context, id domain.ConversationID) (domain.Conversation, error) {
	q := r.client.querierFrom(ctx)
	var privacyStr, createdBy string
	var startedAt int
	var endedAt sql.NullInt64
	row := q.QueryRowContext(ctx, `
		SELECT privacy, started_at_tick, created_by, ended_at_tick
		FROM conversations WHERE id = ?`, string(id))
	if err := row.Scan(&privacyStr, &startedAt, &createdBy, &endedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Conversation{}, apperr.NotFoundf("conversation %s", id)
		}
		return domain.Conversation{}, fmt.Errorf("get conversation: %w", err)
	}

	participants, err := r.participants(ctx, id)
	if err != nil {
		return domain.Conversation{}, err
	}
	history, err := r.turns(ctx, id)
	if err != nil {
		return domain.Conversation{}, err
	}

	var ended *int
	if endedAt.Valid {
		v := int(endedAt.Int64)
		ended = &v
	}
	privacy := domain.Public
	if privacyStr == "private" {
		privacy = domain.Private
	}
	return domain.Conversation{
		ID:            id,
		Privacy:       privacy,
		Participants:  participants,
		History:       history,
		StartedAtTick: startedAt,
		CreatedBy:     domain.AgentName(createdBy),
		EndedAtTick:   ended,
	}, nil
}

func (r *ConversationRepo) participants(ctx context.Context, id domain.ConversationID) (map[domain.AgentName]bool, error) {
	q := r.client.querierFrom(ctx)
	rows, err := q.QueryContext(ctx, `
		SELECT agent FROM conversation_participants
		WHERE conversation_id = ? AND left_at_tick IS NULL`, string(id))
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	defer rows.Close()
	out := map[domain.AgentName]bool{}
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		out[domain.AgentName(a)] = true
	}
	return out, rows.Err()
}

func (r *ConversationRepo) turns(ctx context.Context, id domain.ConversationID) ([]domain.ConversationTurn, error) {
	q := r.client.querierFrom(ctx)
	rows, err := q.QueryContext(ctx, `
		SELECT speaker, message, tick, timestamp FROM conversation_turns
		WHERE conversation_id = ? ORDER BY id ASC`, string(id))
	if err != nil {
		return nil, fmt.Errorf("load turns: %w", err)
	}
	defer rows.Close()
	var out []domain.ConversationTurn
	for rows.Next() {
		var speaker, message, ts string
		var tick int
		if err := rows.Scan(&speaker, &message, &tick, &ts); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		parsed, _ := time.Parse(time.RFC3339Nano, ts)
		out = append(out, domain.ConversationTurn{
			Speaker:   domain.AgentName(speaker),
			Message:   message,
			Tick:      tick,
			Timestamp: parsed,
		})
	}
	return out, rows.Err()
}

// GetConversationForAgent returns the one active conversation agent
// currently participates in, or apperr.ErrNotFound if none.
func (r *ConversationRepo) GetConversationForAgent(ctx context.Context, agent domain.AgentName) (domain.Conversation, error) {
	q := r.client.querierFrom(ctx)
	var id string
	row := q.QueryRowContext(ctx, `
		SELECT cp.conversation_id FROM conversation_participants cp
		JOIN conversations c ON c.id = cp.conversation_id
		WHERE cp.agent = ? AND cp.left_at_tick IS NULL AND c.ended_at_tick IS NULL
		LIMIT 1`, string(agent))
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Conversation{}, apperr.NotFoundf("active conversation for %s", agent)
		}
		return domain.Conversation{}, fmt.Errorf("get conversation for agent: %w", err)
	}
	return r.GetConversation(ctx, domain.ConversationID(id))
}

// GetAllActiveConversations lists every conversation not yet ended.
func (r *ConversationRepo) GetAllActiveConversations(ctx context.Context) ([]domain.Conversation, error) {
	q := r.client.querierFrom(ctx)
	rows, err := q.QueryContext(ctx, `SELECT id FROM conversations WHERE ended_at_tick IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("list active conversations: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan conversation id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.Conversation, 0, len(ids))
	for _, id := range ids {
		c, err := r.GetConversation(ctx, domain.ConversationID(id))
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// CreateConversation inserts a new conversation with its initial
// participant set.
func (r *ConversationRepo) CreateConversation(ctx context.Context, c domain.Conversation) error {
	return r.client.Transaction(ctx, func(ctx context.Context) error {
		q := r.client.querierFrom(ctx)
		_, err := q.ExecContext(ctx, `
			INSERT INTO conversations (id, privacy, started_at_tick, created_by, ended_at_tick)
			VALUES (?, ?, ?, ?, NULL)`,
			string(c.ID), c.Privacy.String(), c.StartedAtTick, string(c.CreatedBy))
		if err != nil {
			return fmt.Errorf("create conversation: %w", err)
		}
		for agent := range c.Participants {
			if _, err := q.ExecContext(ctx, `
				INSERT INTO conversation_participants (conversation_id, agent, joined_at_tick)
				VALUES (?, ?, ?)`, string(c.ID), string(agent), c.StartedAtTick); err != nil {
				return fmt.Errorf("add initial participant: %w", err)
			}
		}
		return nil
	})
}

// AddParticipant adds agent to an in-progress conversation.
func (r *ConversationRepo) AddParticipant(ctx context.Context, id domain.ConversationID, agent domain.AgentName, tick int) error {
	q := r.client.querierFrom(ctx)
	_, err := q.ExecContext(ctx, `
		INSERT INTO conversation_participants (conversation_id, agent, joined_at_tick)
		VALUES (?, ?, ?)
		ON CONFLICT (conversation_id, agent) DO UPDATE SET
			joined_at_tick = excluded.joined_at_tick, left_at_tick = NULL`,
		string(id), string(agent), tick)
	if err != nil {
		return fmt.Errorf("add participant: %w", err)
	}
	return nil
}

// RemoveParticipant marks agent as having left at tick (without deleting
// its turn history) and returns the number of participants still active.
func (r *ConversationRepo) RemoveParticipant(ctx context.Context, id domain.ConversationID, agent domain.AgentName, tick int) (int, error) {
	q := r.client.querierFrom(ctx)
	if _, err := q.ExecContext(ctx, `
		UPDATE conversation_participants SET left_at_tick = ?
		WHERE conversation_id = ? AND agent = ?`, tick, string(id), string(agent)); err != nil {
		return 0, fmt.Errorf("remove participant: %w", err)
	}
	var remaining int
	row := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM conversation_participants
		WHERE conversation_id = ? AND left_at_tick IS NULL`, string(id))
	if err := row.Scan(&remaining); err != nil {
		return 0, fmt.Errorf("count remaining participants: %w", err)
	}
	return remaining, nil
}

// EndConversation stamps the conversation's end tick.
func (r *ConversationRepo) EndConversation(ctx context.Context, id domain.ConversationID, tick int) error {
	q := r.client.querierFrom(ctx)
	_, err := q.ExecContext(ctx, `UPDATE conversations SET ended_at_tick = ? WHERE id = ?`, tick, string(id))
	if err != nil {
		return fmt.Errorf("end conversation: %w", err)
	}
	return nil
}

// AddTurn appends a turn to history.
func (r *ConversationRepo) AddTurn(ctx context.Context, id domain.ConversationID, turn domain.ConversationTurn) error {
	q := r.client.querierFrom(ctx)
	_, err := q.ExecContext(ctx, `
		INSERT INTO conversation_turns (conversation_id, speaker, message, tick, timestamp)
		VALUES (?, ?, ?, ?, ?)`,
		string(id), string(turn.Speaker), turn.Message, turn.Tick, turn.Timestamp.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("add turn: %w", err)
	}
	return nil
}

// GetLastTurnTick returns the tick at which agent last observed a turn in
// this conversation, used for unseen-turn tracking.
func (r *ConversationRepo) GetLastTurnTick(ctx context.Context, id domain.ConversationID, agent domain.AgentName) (int, error) {
	q := r.client.querierFrom(ctx)
	var tick sql.NullInt64
	row := q.QueryRowContext(ctx, `
		SELECT last_turn_tick FROM conversation_participants
		WHERE conversation_id = ? AND agent = ?`, string(id), string(agent))
	if err := row.Scan(&tick); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperr.NotFoundf("participant %s in conversation %s", agent, id)
		}
		return 0, fmt.Errorf("get last turn tick: %w", err)
	}
	if !tick.Valid {
		return 0, nil
	}
	return int(tick.Int64), nil
}

// SetLastTurnTick records that agent has now seen every turn up to tick.
func (r *ConversationRepo) SetLastTurnTick(ctx context.Context, id domain.ConversationID, agent domain.AgentName, tick int) error {
	q := r.client.querierFrom(ctx)
	_, err := q.ExecContext(ctx, `
		UPDATE conversation_participants SET last_turn_tick = ?
		WHERE conversation_id = ? AND agent = ?`, tick, string(id), string(agent))
	if err != nil {
		return fmt.Errorf("set last turn tick: %w", err)
	}
	return nil
}

// GetTurnsSince returns every turn strictly after sinceTick, the unseen
// slice a perception build surfaces to a returning participant.
func (r *ConversationRepo) GetTurnsSince(ctx context.Context, id domain.ConversationID, sinceTick int) ([]domain.ConversationTurn, error) {
	q := r.client.querierFrom(ctx)
	rows, err := q.QueryContext(ctx, `
		SELECT speaker, message, tick, timestamp FROM conversation_turns
		WHERE conversation_id = ? AND tick > ? ORDER BY id ASC`, string(id), sinceTick)
	if err != nil {
		return nil, fmt.Errorf("get turns since: %w", err)
	}
	defer rows.Close()
	var out []domain.ConversationTurn
	for rows.Next() {
		var speaker, message, ts string
		var tick int
		if err := rows.Scan(&speaker, &message, &tick, &ts); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		parsed, _ := time.Parse(time.RFC3339Nano, ts)
		out = append(out, domain.ConversationTurn{
			Speaker:   domain.AgentName(speaker),
			Message:   message,
			Tick:      tick,
			Timestamp: parsed,
		})
	}
	return out, rows.Err()
}

// --- Invitations ---

// GetPendingInvitation returns the invitation addressed to invitee, if
// any is still outstanding.
func (r *ConversationRepo) GetPendingInvitation(ctx context.Context, invitee domain.AgentName) (domain.Invitation, error) {
	q := r.client.querierFrom(ctx)
	row := q.QueryRowContext(ctx, `
		SELECT id, conversation_id, inviter, invitee, privacy, created_at_tick, expires_at_tick
		FROM conversation_invitations WHERE invitee = ? LIMIT 1`, string(invitee))
	return scanInvitation(row)
}

// GetPendingOutgoingInvite returns the invitation inviter currently has
// outstanding, if any — used to block double-inviting.
func (r *ConversationRepo) GetPendingOutgoingInvite(ctx context.Context, inviter domain.AgentName) (domain.Invitation, error) {
	q := r.client.querierFrom(ctx)
	row := q.QueryRowContext(ctx, `
		SELECT id, conversation_id, inviter, invitee, privacy, created_at_tick, expires_at_tick
		FROM conversation_invitations WHERE inviter = ? LIMIT 1`, string(inviter))
	return scanInvitation(row)
}

func scanInvitation(row *sql.Row) (domain.Invitation, error) {
	var id, convID, inviter, invitee, privacyStr string
	var createdAt, expiresAt int
	if err := row.Scan(&id, &convID, &inviter, &invitee, &privacyStr, &createdAt, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Invitation{}, apperr.NotFoundf("invitation")
		}
		return domain.Invitation{}, fmt.Errorf("get invitation: %w", err)
	}
	privacy := domain.Public
	if privacyStr == "private" {
		privacy = domain.Private
	}
	return domain.Invitation{
		ID:             domain.ObjectId(id),
		ConversationID: domain.ConversationID(convID),
		Inviter:        domain.AgentName(inviter),
		Invitee:        domain.AgentName(invitee),
		Privacy:        privacy,
		CreatedAtTick:  createdAt,
		ExpiresAtTick:  expiresAt,
	}, nil
}

// CreateInvitation records a new pending invitation.
func (r *ConversationRepo) CreateInvitation(ctx context.Context, inv domain.Invitation) error {
	q := r.client.querierFrom(ctx)
	_, err := q.ExecContext(ctx, `
		INSERT INTO conversation_invitations
			(id, conversation_id, inviter, invitee, privacy, created_at_tick, expires_at_tick)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(inv.ID), string(inv.ConversationID), string(inv.Inviter), string(inv.Invitee),
		inv.Privacy.String(), inv.CreatedAtTick, inv.ExpiresAtTick)
	if err != nil {
		return fmt.Errorf("create invitation: %w", err)
	}
	return nil
}

// DeleteInvitation removes an invitation once accepted, declined or
// expired.
func (r *ConversationRepo) DeleteInvitation(ctx context.Context, id domain.ObjectId) error {
	q := r.client.querierFrom(ctx)
	_, err := q.ExecContext(ctx, `DELETE FROM conversation_invitations WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("delete invitation: %w", err)
	}
	return nil
}

// GetExpiredInvitations lists every invitation whose expiry is strictly
// before currentTick, the InvitationExpiryPhase's input set.
func (r *ConversationRepo) GetExpiredInvitations(ctx context.Context, currentTick int) ([]domain.Invitation, error) {
	q := r.client.querierFrom(ctx)
	rows, err := q.QueryContext(ctx, `
		SELECT id, conversation_id, inviter, invitee, privacy, created_at_tick, expires_at_tick
		FROM conversation_invitations WHERE expires_at_tick < ?`, currentTick)
	if err != nil {
		return nil, fmt.Errorf("get expired invitations: %w", err)
	}
	defer rows.Close()
	var out []domain.Invitation
	for rows.Next() {
		var id, convID, inviter, invitee, privacyStr string
		var createdAt, expiresAt int
		if err := rows.Scan(&id, &convID, &inviter, &invitee, &privacyStr, &createdAt, &expiresAt); err != nil {
			return nil, fmt.Errorf("scan invitation: %w", err)
		}
		privacy := domain.Public
		if privacyStr == "private" {
			privacy = domain.Private
		}
		out = append(out, domain.Invitation{
			ID:             domain.ObjectId(id),
			ConversationID: domain.ConversationID(convID),
			Inviter:        domain.AgentName(inviter),
			Invitee:        domain.AgentName(invitee),
			Privacy:        privacy,
			CreatedAtTick:  createdAt,
			ExpiresAtTick:  expiresAt,
		})
	}
	return out, rows.Err()
}
