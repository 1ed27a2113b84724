// Package catalog holds the table of Tuya LAN command codes, the
// per-profile JSON payload templates for each command, and the
// command-code override rules a profile can apply at build time.
//
// Templates are embedded YAML, loaded once and deep-copied via a CBOR
// round trip before every field substitution so the stored template
// data is never mutated in place.
package catalog
