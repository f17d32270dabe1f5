package stores

import (
	"time"
)

// DeviceAction identifies a recorded device operation.
type DeviceAction string

const (
	DeviceActionUpload DeviceAction = "upload"
	DeviceActionRemove DeviceAction = "remove"
	DeviceActionArm    DeviceAction = "arm"
	DeviceActionClear  DeviceAction = "clear"
)

// TemplateRecord is a serialized pulse template stored under its
// reference name. Record holds the YAML document produced by the
// serialization layer.
type TemplateRecord struct {
	Name      string
	Record    []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DeviceEvent is one entry in the device operation log.
type DeviceEvent struct {
	ID        int64
	Device    string
	Program   string
	Action    DeviceAction
	Detail    *string
	CreatedAt time.Time
}

// ResidentProgram mirrors a program uploaded to a device: its name, a
// generated handle, and the slot assignment used for the upload. Empty
// strings in Channels and Markers mark unassigned slots.
type ResidentProgram struct {
	Device     string
	Name       string
	Handle     string
	Channels   []string
	Markers    []string
	UploadedAt time.Time
}
