// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package lifecycle closes elections automatically.

A Closer runs in the background:

	closer := lifecycle.NewCloser(s, engine, cfg.TallyGrace, cfg.LifecycleTick)
	go closer.Run(ctx)

On every tick it closes open elections whose end time plus the grace
period has passed, then publishes their tally. Elections found closed but
untallied (for example after a crash between the two steps) are published
too. It stops when ctx is cancelled.
*/
package lifecycle
