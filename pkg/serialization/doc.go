// Package serialization persists pulse templates as YAML records. Objects
// are stored under a reference name in a pluggable storage backend;
// records carry a type tag that is resolved against a global registry of
// deserialization functions, so nested objects round-trip by reference.
package serialization
