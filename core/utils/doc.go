// Package utils renders field values as text for the diff engine's
// change records, key strings and hash buckets.
package utils
