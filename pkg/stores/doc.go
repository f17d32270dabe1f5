// Package stores provides persistent storage for serialized pulse
// template records and a device event log, backed by SQLite.
package stores
