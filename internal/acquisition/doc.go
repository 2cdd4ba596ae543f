// Package acquisition reads interface counters from the data acquisition
// system and derives the rates served to the dashboard.
//
// The acquisition system answers a "get stats" command with a <cmd_resp>
// XML document listing per-interface counters. A [Source] produces such
// documents: [LoggerSource] asks the logging system over TCP, [FakeSource]
// generates them locally. A [Collector] polls a source on an interval and
// keeps the latest counters together with per-interface byte rates.
package acquisition
