// Package app contains the core application logic. It wires configuration,
// registered packages, the core control loop and the HTTP surface into one
// lifecycle, decoupled from any specific entrypoint like a CLI.
package app
