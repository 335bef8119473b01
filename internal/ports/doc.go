// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// Ports are the boundaries between the controller core and the outside
// world. They define what the core needs from external systems without
// specifying how those needs are fulfilled.
//
// # Port Interfaces
//
//   - [Link]: a live send channel to the actuator controller
//   - [Dialer]: opens a Link for an endpoint (TCP or serial)
//   - [Logger]: structured logging abstraction
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with concrete
// implementations (net, go.bug.st/serial, zerolog).
package ports
