package storage

import (
	"context"
	"log/slog"
)

// Storage aggregates the four repositories behind one handle, mirroring
// the original Python Storage facade that ConversationService and its
// siblings are constructed against.
type Storage struct {
	Client        *Client
	World         *WorldRepo
	Agents        *AgentRepo
	Objects       *ObjectRepo
	Conversations *ConversationRepo
	Snapshots     *SnapshotManager
	Audit         *AuditLog
}

// Open connects to the SQLite database at path, runs migrations, and
// wires every repository plus the snapshot manager and audit log against
// it.
func Open(ctx context.Context, path, auditLogPath string, width, height int, logger *slog.Logger) (*Storage, error) {
	client, err := NewClient(ctx, path, logger)
	if err != nil {
		return nil, err
	}

	world := NewWorldRepo(client)
	if err := world.InitWorldState(ctx, width, height); err != nil {
		return nil, err
	}

	audit, err := NewAuditLog(auditLogPath)
	if err != nil {
		return nil, err
	}

	return &Storage{
		Client:        client,
		World:         world,
		Agents:        NewAgentRepo(client),
		Objects:       NewObjectRepo(client),
		Conversations: NewConversationRepo(client),
		Snapshots:     NewSnapshotManager(client, logger),
		Audit:         audit,
	}, nil
}

// Close releases the database connection and the audit log file.
func (s *Storage) Close() error {
	if err := s.Audit.Close(); err != nil {
		return err
	}
	return s.Client.Close()
}
