// Package store provides storage and pub/sub functionality for widget renders.
//
// This package is internal to statsboard. It keeps the most recent render of
// every widget and fans draw and alert events out to connected dashboard
// clients.
//
// The main components are:
//
//   - [Store]: Interface defining storage and subscription operations
//   - [MemoryStore]: In-memory implementation of Store with pub/sub
//   - [Render]: The last successful draw of a widget
//   - [Alert]: A failed query, published to subscribers but never stored
//
// Subscribers receive events via channels with non-blocking sends (slow
// subscribers will miss events rather than block the system).
package store
