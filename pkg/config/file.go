package config

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/survextract/survextract/pkg/record"
	"github.com/survextract/survextract/pkg/utils/ptr"
)

const (
	DefaultSocket = "/tmp/survextract.sock"
)

var (
	defaultAxis       = record.DefaultAxisConfig()
	defaultFileConfig = &RawFileConfig{
		XAxisType:    ptr.To(defaultAxis.XAxisType),
		XAxisUnits:   ptr.To(defaultAxis.XAxisUnits),
		YAxisUnits:   ptr.To(defaultAxis.YAxisUnits),
		Autosave:     ptr.To(true),
		AnchorRadius: ptr.To(15.0),
		Socket:       ptr.To(DefaultSocket),
		Listen:       ptr.To(""),
		Dataset:      ptr.To(""),
	}
)

var _ Config = &File{}

// DefaultPath returns ~/.config/survextract/config.json.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "survextract", "config.json")
}

type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = &RawFileConfig{}
	}

	return &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}
}

// RawFileConfig is the file format. Unset fields take their default.
type RawFileConfig struct {
	XAxisType    *string  `json:"xAxisType,omitempty"`
	XAxisUnits   *string  `json:"xAxisUnits,omitempty"`
	YAxisUnits   *string  `json:"yAxisUnits,omitempty"`
	Autosave     *bool    `json:"autosave,omitempty"`
	AnchorRadius *float64 `json:"anchorRadius,omitempty"`
	Socket       *string  `json:"socket,omitempty"`
	Listen       *string  `json:"listen,omitempty"`
	Dataset      *string  `json:"dataset,omitempty"`
}

func (r *RawFileConfig) validate() error {
	if r.XAxisType != nil {
		if _, err := defaultAxis.WithXAxisType(*r.XAxisType); err != nil {
			return pkgerrors.Wrapf(err, "invalid xAxisType")
		}
	}
	if r.AnchorRadius != nil && *r.AnchorRadius <= 0 {
		return pkgerrors.Errorf("anchorRadius must be positive, got %v", *r.AnchorRadius)
	}
	return nil
}

func value[T any](v, def *T) T {
	if v != nil {
		return *v
	}
	return *def
}

func (f *File) Axis() record.AxisConfig {
	f.mu.RLock()
	defer f.mu.RUnlock()

	axis, err := defaultAxis.WithXAxisType(value(f.c.XAxisType, defaultFileConfig.XAxisType))
	if err != nil {
		axis = defaultAxis
	}
	axis.XAxisUnits = value(f.c.XAxisUnits, defaultFileConfig.XAxisUnits)
	axis.YAxisUnits = value(f.c.YAxisUnits, defaultFileConfig.YAxisUnits)
	return axis
}

func (f *File) Autosave() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return value(f.c.Autosave, defaultFileConfig.Autosave)
}

func (f *File) AnchorRadius() float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return value(f.c.AnchorRadius, defaultFileConfig.AnchorRadius)
}

func (f *File) Socket() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return value(f.c.Socket, defaultFileConfig.Socket)
}

func (f *File) Listen() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return value(f.c.Listen, defaultFileConfig.Listen)
}

func (f *File) Dataset() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return value(f.c.Dataset, defaultFileConfig.Dataset)
}

func (f *File) SetAxis(a record.AxisConfig) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.XAxisType = &a.XAxisType
	f.c.XAxisUnits = &a.XAxisUnits
	f.c.YAxisUnits = &a.YAxisUnits
}

func (f *File) SetAutosave(b bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.Autosave = &b
}

func (f *File) SetDataset(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.Dataset = &path
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// Missing file means defaults. Do not make f.c a nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	// json.Decoder cannot tell an empty file from a broken one.
	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	if strings.TrimSpace(string(b)) == "" {
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	err = json.Unmarshal(b, &conf)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	if err := conf.validate(); err != nil {
		return pkgerrors.Wrapf(err, "invalid config in file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	err := os.MkdirAll(filepath.Dir(f.filepath), 0755)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to create directory for %s", f.filepath)
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	enc := json.NewEncoder(fp)
	enc.SetIndent("", "  ")
	err = enc.Encode(f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	axis := f.Axis()
	return logrus.Fields{
		"xAxisType":    axis.XAxisType,
		"xAxisUnits":   axis.XAxisUnits,
		"yAxisUnits":   axis.YAxisUnits,
		"autosave":     f.Autosave(),
		"anchorRadius": f.AnchorRadius(),
		"socket":       f.Socket(),
		"listen":       f.Listen(),
		"dataset":      f.Dataset(),
	}
}
