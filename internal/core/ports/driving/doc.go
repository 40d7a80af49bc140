// Package driving defines the interfaces through which the outside world
// calls INTO the core (primary ports). The CLI and the watcher drive the
// application exclusively through these interfaces.
package driving
