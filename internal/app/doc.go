// Package app contains the ring server's application layer.
//
// The Coordinator owns the ring store and the journal and hands out
// exclusive access to them. A Session serves one client connection: it
// frames incoming bytes into records, commits data records or resolves seek
// commands, and streams a reply after every record. The Server accepts
// connections, runs one Session per connection, and tears everything down
// on shutdown.
package app
