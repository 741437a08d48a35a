// Package domain defines the guild settings document, the Discord guild view,
// and the storage and upstream contracts the rest of the service is built on.
//
// Interfaces live here so adapters (file, memory, Postgres, Redis, Discord) and
// the application layer can depend on them without importing each other.
package domain
