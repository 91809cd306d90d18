package store

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// readJSON decodes the file at path into v. A missing file yields
// os.ErrNotExist; an empty or undecodable file yields ErrCorruptRecord.
func readJSON(path string, v any) error {
	fp, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return os.ErrNotExist
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", path)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", path)
		}
	}(fp)

	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", path)
	}

	if strings.TrimSpace(string(b)) == "" {
		return pkgerrors.Wrapf(ErrCorruptRecord, "file %s is empty", path)
	}

	err = json.Unmarshal(b, v)
	if err != nil {
		return pkgerrors.Wrapf(ErrCorruptRecord, "failed to unmarshal file %s: %v", path, err)
	}

	return nil
}

// writeJSON replaces the file at path with v as indented JSON.
func writeJSON(path string, v any) error {
	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to create directory %s", filepath.Dir(path))
	}

	fp, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", path)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", path)
		}
	}(fp)

	enc := json.NewEncoder(fp)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	err = enc.Encode(v)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode file %s", path)
	}

	return nil
}

// encodeRaw marshals v without HTML escaping, so raw sections keep their
// original string escapes.
func encodeRaw(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func rawString(s string) json.RawMessage {
	b, _ := encodeRaw(s)
	return b
}
