package bot

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/EgorLis/Verifybot/internal/dcapi"
	"github.com/EgorLis/Verifybot/internal/gateway"
	"github.com/EgorLis/Verifybot/internal/tracker"
)

// API is the slice of the platform client the bot depends on. dcapi.Client
// implements it; tests swap in a fake with no network behind it.
type API interface {
	SetApplicationID(id uint64)
	ResolveRole(ctx context.Context, guildID, roleID uint64) (*dcapi.Role, error)
	Member(ctx context.Context, guildID, userID uint64) (*dcapi.Member, error)
	GrantRole(ctx context.Context, guildID, userID, roleID uint64, reason string) error
	RevokeRole(ctx context.Context, guildID, userID, roleID uint64, reason string) error
	Defer(ctx context.Context, interactionID uint64, token string) error
	Followup(ctx context.Context, token, content string) error
	FollowupFile(ctx context.Context, token, filename string, file []byte, content string) error
	RegisterCommands(ctx context.Context, guildID uint64, cmds []dcapi.Command) error
}

type VerifyBot struct {
	gw      *gateway.Gateway
	api     API
	tracker *tracker.Tracker

	cfg Config
	log *zap.Logger

	ctx    context.Context
	stopCh chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func New(cfg Config, log *zap.Logger) *VerifyBot {
	return &VerifyBot{cfg: cfg, log: log}
}

func (b *VerifyBot) SetClient(api API) {
	b.api = api
}

func (b *VerifyBot) SetTracker(t *tracker.Tracker) {
	b.tracker = t
}

func (b *VerifyBot) SetGateway(gw *gateway.Gateway) {
	b.gw = gw

	gw.OnConnecting = func() { b.log.Info("gateway connecting") }
	gw.OnConnected = func() { b.log.Info("gateway connected") }
	gw.OnDisconnected = func() { b.log.Info("gateway disconnected") }
	gw.OnError = func(err error) { b.log.Warn("gateway error", zap.Error(err)) }
	gw.OnEvent = b.handleEvent
}

func (b *VerifyBot) Start() error {
	if b.gw == nil {
		return errors.New("gateway not set")
	}
	if b.api == nil {
		return errors.New("api client not set")
	}
	if b.tracker == nil {
		return errors.New("tracker not set")
	}
	if b.stopCh != nil {
		return errors.New("already started")
	}
	b.stopCh = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	b.ctx = ctx
	if err := b.gw.Connect(ctx); err != nil {
		cancel()
		return err
	}

	// watcher for shutdown
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		<-b.stopCh
		cancel()
		b.gw.Disconnect()
	}()

	return nil
}

func (b *VerifyBot) Stop() {
	b.mu.Lock()
	ch := b.stopCh
	b.stopCh = nil
	b.mu.Unlock()

	if ch != nil {
		close(ch) // repeated Stop() is a no-op
		b.wg.Wait()
	}
}

func (b *VerifyBot) runCtx() context.Context {
	if b.ctx != nil {
		return b.ctx
	}
	return context.Background()
}

// handleEvent runs on the gateway read loop, so events arrive one at a
// time: tracker mutation is serialized by delivery before it is serialized
// by the tracker's own mutex.
func (b *VerifyBot) handleEvent(t string, d json.RawMessage) {
	ctx := b.runCtx()

	switch t {
	case gateway.EventReady:
		var r gateway.Ready
		if err := json.Unmarshal(d, &r); err != nil {
			b.log.Warn("bad READY payload", zap.Error(err))
			return
		}
		b.api.SetApplicationID(r.Application.ID)
		b.log.Info("ready",
			zap.String("user", r.User.Username),
			zap.Uint64("application", r.Application.ID))
		b.registerCommands(ctx)

	case gateway.EventInteractionCreate:
		var i gateway.Interaction
		if err := json.Unmarshal(d, &i); err != nil {
			b.log.Warn("bad interaction payload", zap.Error(err))
			return
		}
		if b.cfg.GuildID != 0 && i.GuildID != b.cfg.GuildID {
			return
		}
		b.handleInteraction(ctx, &i)

	case gateway.EventGuildMemberAdd:
		var m gateway.MemberAdd
		if err := json.Unmarshal(d, &m); err != nil {
			b.log.Warn("bad member add payload", zap.Error(err))
			return
		}
		if b.cfg.GuildID != 0 && m.GuildID != b.cfg.GuildID {
			return
		}
		b.tracker.Allocate(ctx, tracker.User{
			ID:       m.User.ID,
			Name:     m.DisplayName(),
			JoinedAt: m.JoinedAt,
		})

	case gateway.EventGuildMemberRemove:
		var m gateway.MemberRemove
		if err := json.Unmarshal(d, &m); err != nil {
			b.log.Warn("bad member remove payload", zap.Error(err))
			return
		}
		if b.cfg.GuildID != 0 && m.GuildID != b.cfg.GuildID {
			return
		}
		b.tracker.Release(m.User.ID)
	}
}

func (b *VerifyBot) registerCommands(ctx context.Context) {
	cmds := []dcapi.Command{
		{Name: "verify", Description: "Verify yourself to get access"},
		{Name: "first200", Description: "How many early slots are taken"},
		{Name: "first200_export", Description: "Export the first-200 roster as CSV"},
		{Name: "first200_reset", Description: "Clear the first-200 roster (admin only)"},
	}
	if err := b.api.RegisterCommands(ctx, b.cfg.GuildID, cmds); err != nil {
		b.log.Warn("command sync failed", zap.Error(err))
		return
	}
	b.log.Info("commands synced",
		zap.Int("count", len(cmds)), zap.Uint64("guild", b.cfg.GuildID))
}
