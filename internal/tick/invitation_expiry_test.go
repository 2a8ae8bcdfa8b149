package tick

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/hearth/internal/conversationsvc"
	"github.com/codeready-toolchain/hearth/internal/domain"
	"github.com/codeready-toolchain/hearth/internal/storage"
)

func newTestInvitationExpiryPhase(t *testing.T) (*InvitationExpiryPhase, *conversationsvc.ConversationService) {
	t.Helper()
	dir := t.TempDir()
	st, err := storage.Open(context.Background(), filepath.Join(dir, "hearth.db"), filepath.Join(dir, "events.jsonl"), 10, 10, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	conv := conversationsvc.NewConversationService(st, slog.Default())
	return NewInvitationExpiryPhase(conv), conv
}

// A pending invitation past its expiry tick is dropped and turned into an
// invitation_expired event; one still within its window is untouched.
func TestInvitationExpiryPhaseExpiresPastDueInvitations(t *testing.T) {
	ctx := context.Background()
	phase, conv := newTestInvitationExpiryPhase(t)

	_, err := conv.CreateInvite(ctx, "elio", "sola", domain.Public, 1)
	require.NoError(t, err)
	_, err = conv.CreateInvite(ctx, "rook", "nia", domain.Public, 1000)
	require.NoError(t, err)

	tc := domain.NewTickContext(1+domain.InviteExpiryTicks+1, "afternoon", domain.Clear, map[domain.AgentName]domain.Agent{})

	tc, err = phase.Execute(ctx, tc)
	require.NoError(t, err)

	require.Len(t, tc.Events, 1)
	expired, ok := tc.Events[0].(domain.InvitationExpiredEvent)
	require.True(t, ok)
	require.Equal(t, domain.AgentName("elio"), expired.Inviter)
	require.Equal(t, domain.AgentName("sola"), expired.Invitee)

	_, err = conv.GetPendingInvitation(ctx, "sola")
	require.Error(t, err)
	_, err = conv.GetPendingInvitation(ctx, "nia")
	require.NoError(t, err, "the invite created at tick 1000 has not expired yet")
}

func TestInvitationExpiryPhaseNoOpWhenNothingExpired(t *testing.T) {
	ctx := context.Background()
	phase, conv := newTestInvitationExpiryPhase(t)

	_, err := conv.CreateInvite(ctx, "elio", "sola", domain.Public, 1)
	require.NoError(t, err)

	tc := domain.NewTickContext(1, "afternoon", domain.Clear, map[domain.AgentName]domain.Agent{})
	tc, err = phase.Execute(ctx, tc)
	require.NoError(t, err)
	require.Empty(t, tc.Events)
}
