// Package config loads the HCL configuration surface for the flow
// orchestrator and resolves it into concrete job configurations.
//
// Loading happens once at startup: every path-valued field is
// environment-expanded at that point and never re-expanded at use time. The
// Resolver is immutable after construction and is handed to every component
// that needs per-operation configuration.
package config
