// Package ringsock provides an embeddable ring buffer record server.
//
// Clients connect over TCP and send newline-terminated records. Every data
// record is appended to a journal and stored in a fixed-capacity ring that
// evicts its oldest entry when full. After each record the client receives
// the ring contents from its read cursor to the end. A record of the form
//
//	SEEKTO:<entry>,<offset>
//
// moves the cursor to byte offset of the entry-th live entry instead of
// being stored. Seeks that name a missing entry or offset are ignored.
//
// # Basic Usage
//
//	cfg := ringsock.DefaultConfig()
//	cfg.ListenAddr = ":9000"
//	cfg.Capacity = 10
//
//	srv, err := ringsock.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer srv.Stop()
//
// # Cursor Modes
//
// With CursorMode "persist" (the default) a resolved seek applies to every
// later reply on the connection. With "once" it applies to the next reply
// only, after which replies start from the beginning again.
//
// # Reply Sources
//
// ReplySource "ring" streams the live entries. ReplySource "journal"
// streams the whole journal, evicted records included; seeks still name
// live entries and are translated into journal offsets.
//
// # Journal
//
// JournalKind selects a plain file ("file", the default), a pebble
// database ("pebble") or nothing ("none"). A journal left on disk with
// KeepJournal is replayed into the ring on the next Start.
//
// # Event Handling and Plugins
//
// Implement [EventHandler] (embedding [BaseEventHandler]) to observe state
// changes and connections, and register [Plugin] values with [WithPlugin].
// The configwatcher plugin reloads cursor mode and log level from the
// configuration file through [Ringsock.ApplySettings].
//
// # Lifecycle States
//
// A Ringsock instance can be in one of five states: [StateStopped],
// [StateStarting], [StateRunning], [StateStopping], or [StateCrashed].
package ringsock
