package config

import "github.com/survextract/survextract/pkg/record"

type Config interface {
	// Axis is the axis configuration of images without a record.
	Axis() record.AxisConfig
	Autosave() bool
	AnchorRadius() float64
	// Socket is the unix socket of the session server.
	Socket() string
	// Listen is a TCP address used instead of Socket when set.
	Listen() string
	// Dataset is the dataset folder opened at startup.
	Dataset() string

	SetAxis(record.AxisConfig)
	SetAutosave(bool)
	SetDataset(string)

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error
}
