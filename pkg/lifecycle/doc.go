// Package lifecycle provides the server state machine and worker accounting.
//
// A Manager tracks whether the server is Stopped, Starting, Running,
// Stopping or Crashed, counts the connection workers it has handed out,
// and waits for them on shutdown with a deadline.
//
// # Usage
//
//	manager := lifecycle.NewManager(logger, eventEmitter)
//
//	if !manager.CanStart() {
//	    return ErrAlreadyRunning
//	}
//	if err := manager.TransitionTo(lifecycle.StateStarting, "start requested"); err != nil {
//	    return err
//	}
//
//	manager.AddWorker()
//	go func() {
//	    defer manager.WorkerDone()
//	    // serve one connection
//	}()
//
//	if err := manager.WaitWithTimeout(lifecycle.ShutdownTimeout); err != nil {
//	    return err
//	}
//
// # State Machine
//
// Valid state transitions:
//   - Stopped -> Starting
//   - Starting -> Running, Stopping, Crashed
//   - Running -> Stopping, Crashed
//   - Stopping -> Stopped, Crashed
//   - Crashed -> Starting
//
// # Version
//
// Current version: 1.1.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package lifecycle
