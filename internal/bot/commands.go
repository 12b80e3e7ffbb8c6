package bot

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/EgorLis/Verifybot/internal/dcapi"
	"github.com/EgorLis/Verifybot/internal/gateway"
	"github.com/EgorLis/Verifybot/internal/tracker"
)

const (
	msgNoVerifiedRole = "❌ I can't find the **Verified** role. Check the role ID in my config."
	msgAlreadyDone    = "✅ You are already verified!"
	msgNoPermission   = "❌ I don't have permission to manage roles. " +
		"Give me **Manage Roles** and place my bot role **above** the roles I assign."
	msgVerified   = "🎉 You are now verified!"
	msgOops       = "⚠️ Something went wrong. Please try again."
	msgAdminOnly  = "⛔ This command is for administrators only."
	msgResetDone  = "✅ First-200 tracker reset."
	msgRosterFile = "First-200 roster:"
)

// handleInteraction dispatches one slash command. Everything is
// acknowledged first (the platform gives 3 seconds) and answered via an
// ephemeral followup; errors stop at this boundary as user messages.
func (b *VerifyBot) handleInteraction(ctx context.Context, i *gateway.Interaction) {
	followup := func(msg string) {
		if err := b.api.Followup(ctx, i.Token, msg); err != nil {
			b.log.Warn("followup failed",
				zap.String("command", i.Data.Name), zap.Error(err))
		}
	}

	if err := b.api.Defer(ctx, i.ID, i.Token); err != nil {
		b.log.Warn("defer failed",
			zap.String("command", i.Data.Name), zap.Error(err))
		return
	}

	switch i.Data.Name {

	case "verify":
		b.handleVerify(ctx, i, followup)

	case "first200":
		st := b.tracker.Status()
		state := "open"
		if st.Locked {
			state = "🔒 locked"
		}
		followup(fmt.Sprintf("Early members: **%d/%d** (%s)", st.Tracked, st.Capacity, state))

	case "first200_export":
		data, err := b.tracker.ExportCSV()
		if err != nil {
			b.log.Error("export failed", zap.Error(err))
			followup(msgOops)
			return
		}
		if err := b.api.FollowupFile(ctx, i.Token, "first200.csv", data, msgRosterFile); err != nil {
			b.log.Warn("export upload failed", zap.Error(err))
			followup(msgOops)
		}

	case "first200_reset":
		if !i.Member.IsAdmin() {
			followup(msgAdminOnly)
			return
		}
		b.tracker.Reset()
		followup(msgResetDone)

	default:
		followup("Unknown command.")
	}
}

// handleVerify mirrors the verification flow: resolve the verified role,
// short-circuit repeat callers, grant it, drop the waiting room, then let
// the tracker decide about the early bonus.
func (b *VerifyBot) handleVerify(ctx context.Context, i *gateway.Interaction, followup func(string)) {
	member := &i.Member

	if _, err := b.api.ResolveRole(ctx, b.cfg.GuildID, b.cfg.VerifiedRoleID); err != nil {
		b.log.Warn("verified role unresolved",
			zap.Uint64("role", b.cfg.VerifiedRoleID), zap.Error(err))
		followup(msgNoVerifiedRole)
		return
	}

	if member.HasRole(b.cfg.VerifiedRoleID) {
		followup(msgAlreadyDone)
		return
	}

	err := b.api.GrantRole(ctx, b.cfg.GuildID, member.User.ID, b.cfg.VerifiedRoleID,
		"Human verification passed")
	if err != nil {
		if errors.Is(err, dcapi.ErrPermission) {
			followup(msgNoPermission)
			return
		}
		b.log.Error("grant verified role", zap.Uint64("user", member.User.ID), zap.Error(err))
		followup(msgOops)
		return
	}

	// waiting room removal is best effort
	if b.cfg.WaitingRoomRoleID != 0 && member.HasRole(b.cfg.WaitingRoomRoleID) {
		if err := b.api.RevokeRole(ctx, b.cfg.GuildID, member.User.ID,
			b.cfg.WaitingRoomRoleID, "Left waiting room"); err != nil {
			b.log.Warn("remove waiting room role",
				zap.Uint64("user", member.User.ID), zap.Error(err))
		}
	}

	b.tracker.Allocate(ctx, tracker.User{
		ID:       member.User.ID,
		Name:     member.DisplayName(),
		JoinedAt: member.JoinedAt,
	})

	followup(msgVerified)
}
