// Package domain contains the core value types of the gait controller.
//
// This package is the innermost layer of the controller. It has no
// dependencies on infrastructure concerns (sockets, serial ports, logging)
// and contains only the data model and its invariants.
//
// # Entities
//
//   - [JointConfig]: per-joint calibration offsets and horizontal masks
//   - [SerpentineParams], [SidewindingParams]: gait parameters per gait kind
//   - [Profile]: the immutable parameter bundle captured by a session at start
//   - [Frame]: one ordered set of joint angles sent per tick
//
// Profiles are validated once at startup; a session never sees a
// configuration that failed [Profile.Validate].
package domain
