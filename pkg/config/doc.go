// Package config loads and validates the YAML setup file describing
// hardware devices, storage, logging, and metrics.
package config
