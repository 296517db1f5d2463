// Package pebblekv provides a kv.Adapter backed by a Pebble LSM store.
//
// Keys are stored verbatim; values are the JSON documents handed to Set.
// Multi-key Set and Remove calls are committed as a single Pebble batch.
package pebblekv
