// Package domain contains the core domain entities and value objects for ringsock.
//
// This package represents the innermost layer of the Clean Architecture. It has
// no dependencies on infrastructure concerns (sockets, file system, logging) and
// contains only the record model and the control-record grammar.
//
// # Entities
//
//   - [Entry]: one committed, immutable, newline-terminated record
//   - [Cursor]: a connection's read position in the reply address space
//   - [SeekCommand]: a parsed SEEKTO control record
//
// # Design Principles
//
// Domain entities are:
//   - Immutable after construction (where practical)
//   - Free of infrastructure dependencies
//   - Testable without mocks or external systems
package domain
