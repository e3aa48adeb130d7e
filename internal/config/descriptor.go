package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/DavidRicoCodes/AmarisoftAPI/internal/core"
)

// Descriptor is the experiment request that accompanies a log. Only the
// fields the extractor and summary read are decoded; everything else is
// kept in Raw.
type Descriptor struct {
	ID       string         `mapstructure:"id"`
	Commands []Command      `mapstructure:"commands"`
	Raw      map[string]any `mapstructure:",remain"`
}

// Command is one scheduled command of the experiment, e.g. an iperf client.
type Command struct {
	Command string `mapstructure:"command"`
}

// LoadDescriptor reads a descriptor file. Files ending in .yaml or .yml are
// parsed as YAML, anything else as JSON. A missing or null id resolves to
// placeholder. Any parse failure wraps core.ErrDescriptorInvalid.
func LoadDescriptor(path, placeholder string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrDescriptorInvalid, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseDescriptor(data, yaml.Unmarshal, placeholder)
	default:
		return parseDescriptor(data, unmarshalJSON, placeholder)
	}
}

// ParseDescriptor decodes a JSON descriptor.
func ParseDescriptor(data []byte, placeholder string) (*Descriptor, error) {
	return parseDescriptor(data, unmarshalJSON, placeholder)
}

// unmarshalJSON keeps numbers as json.Number so a numeric id is used
// exactly as written.
func unmarshalJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("trailing data after descriptor object")
	}
	return nil
}

func parseDescriptor(data []byte, unmarshal func([]byte, any) error, placeholder string) (*Descriptor, error) {
	var raw map[string]any
	if err := unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrDescriptorInvalid, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: descriptor is not an object", core.ErrDescriptorInvalid)
	}
	if raw["id"] == nil {
		delete(raw, "id")
	}
	if _, ok := raw["commands"].([]any); !ok {
		delete(raw, "commands")
	}

	var d Descriptor
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &d,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrDescriptorInvalid, err)
	}

	if d.ID == "" {
		d.ID = placeholder
	}
	if strings.ContainsAny(d.ID, `/\`) || d.ID == "." || d.ID == ".." {
		return nil, fmt.Errorf("%w: id %q is not usable as a file name", core.ErrDescriptorInvalid, d.ID)
	}
	return &d, nil
}
