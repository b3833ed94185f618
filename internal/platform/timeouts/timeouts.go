// Package timeouts defines shared timeout constants used across the engine.
// Centralizing these values prevents drift between the service layer and the
// background sweeper and makes the durations discoverable.
package timeouts

import "time"

// Turn caps how long a participant may sit on its response slot before the
// sweeper forfeits the turn on its behalf.
const Turn = 30 * time.Second

// VotingWindow is the default spectator voting window opened when the final
// round completes.
const VotingWindow = 24 * time.Hour

// Sweep is the default interval between deadline sweeper passes.
const Sweep = 5 * time.Second

// Shutdown limits how long the runtime waits for in-flight work during
// graceful shutdown.
const Shutdown = 5 * time.Second
