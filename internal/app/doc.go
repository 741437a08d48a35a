// Package app provides the application service layer.
//
// Orchestrates the dashboard use cases: selecting the guilds a user may manage,
// loading a guild's settings, and toggling its protections. Sits between HTTP
// handlers and the domain ports. Depends on domain interfaces, not concrete implementations.
package app
