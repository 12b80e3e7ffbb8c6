// Package bot glues gateway, dcapi and tracker into the verification bot:
//   - listens for gateway dispatches and slash-command interactions;
//   - handles /verify (verified role grant, waiting-room removal,
//     early-member slot), /first200, /first200_export, /first200_reset;
//   - feeds guild joins and leaves into the first-200 tracker;
//   - registers the guild commands on READY.
//
// Lifecycle:
//   - Create the bot with New(cfg, logger).
//   - Wire the collaborators: SetClient(...), SetTracker(...),
//     SetGateway(...).
//   - Run Start() and stop with Stop().
//
// Example:
//
//	b := bot.New(cfg, logger)
//	b.SetClient(dcapi.New(cfg.APIURL, cfg.Token, logger))
//	b.SetTracker(tr)
//	b.SetGateway(gateway.New(cfg.GatewayURL, cfg.Token, logger))
//
//	if err := b.Start(); err != nil { logger.Fatal("start", zap.Error(err)) }
//	defer b.Stop()
//
// Every per-command error is converted to an ephemeral user message at the
// dispatch boundary; nothing short of a missing token at startup takes the
// process down.
package bot
