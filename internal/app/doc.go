// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the run lifecycle for a batch of flow
// operations, decoupled from any specific entrypoint like a CLI.
package app
