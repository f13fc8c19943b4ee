// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// Ports are the boundaries between the application core and the outside
// world. They define what the application needs from external systems
// without specifying how those needs are fulfilled.
//
// # Port Interfaces
//
//   - [Journal]: Backing sequential store mirroring every committed record
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with a plain
// append-only file, a pebble database, or a discarding stub.
package ports
