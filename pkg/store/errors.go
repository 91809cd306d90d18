package store

import "errors"

var (
	ErrNotFound      = errors.New("record not found")
	ErrCorruptRecord = errors.New("record is not valid JSON")
	ErrNoDataset     = errors.New("dataset has no png folder")
)
