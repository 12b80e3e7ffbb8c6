package bot

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// RewardGranter plugs the REST client into the tracker as its bonus-role
// side effect.
type RewardGranter struct {
	api API
	cfg Config
	log *zap.Logger
}

func NewRewardGranter(api API, cfg Config, log *zap.Logger) *RewardGranter {
	return &RewardGranter{api: api, cfg: cfg, log: log}
}

// GrantReward gives the early role to a slot holder. Skips quietly when no
// early role is configured or the member already carries it.
func (r *RewardGranter) GrantReward(ctx context.Context, userID uint64) error {
	if r.cfg.EarlyRoleID == 0 {
		return nil
	}

	if m, err := r.api.Member(ctx, r.cfg.GuildID, userID); err == nil && m.HasRole(r.cfg.EarlyRoleID) {
		return nil
	} else if err != nil {
		r.log.Debug("member lookup before bonus grant failed",
			zap.Uint64("user", userID), zap.Error(err))
	}

	return r.api.GrantRole(ctx, r.cfg.GuildID, userID, r.cfg.EarlyRoleID,
		fmt.Sprintf("Early member bonus (first %d)", r.cfg.EarlyCap))
}
