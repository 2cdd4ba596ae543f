// Package poller issues the dashboard's stats queries on a fixed interval.
//
// This package is internal to statsboard. The [Scheduler] fires every
// query immediately and then once per interval, unconditionally: a tick
// does not wait for the previous tick's requests, and overlapping requests
// for the same query are neither deduplicated nor cancelled. Each response
// is decoded into a table and emitted as a [Result] in completion order.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with per-request timeout and size limits
//   - [Scheduler]: the tick loop and per-query fetch goroutines
//   - [Result]: outcome of a single query within a tick
//   - [QueryInfo]: configuration for a query to issue
package poller
