// Package settings holds logbook's runtime settings: whether trace output
// goes to the console and the caps of the two event logs.
//
// A Cache is loaded once per process with EnsureLoaded and then read
// synchronously with Snapshot. Every value that enters the cache, whether
// read from storage, passed to Set or delivered by a change notification,
// goes through Normalize first, so a snapshot is always inside its ranges.
package settings
