package importer

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/box-packer/internal/packing"
)

// Manifest is a YAML packing job: a container, the items to pack and the
// search settings. Unset settings are filled by the caller.
//
//	container: {name: Medium, width: 40, height: 30, depth: 30}
//	strategy: Maximize Space
//	items:
//	  - {name: books, width: 30, height: 20, depth: 15, weight: 9, can_stack: true}
type Manifest struct {
	Container   packing.ContainerSpec `yaml:"container"`
	Preset      string                `yaml:"preset"`
	Strategy    string                `yaml:"strategy"`
	MaxAttempts int                   `yaml:"max_attempts"`
	Options     packing.Options       `yaml:"options"`
	Items       []packing.ItemSpec    `yaml:"items"`
}

// ErrUnknownPreset is returned when a manifest names a preset that does not exist.
var ErrUnknownPreset = errors.New("unknown container preset")

// LoadManifest decodes a manifest, rejecting unknown keys.
func LoadManifest(r io.Reader) (Manifest, error) {
	// Options left out of the manifest keep their defaults.
	m := Manifest{Options: packing.DefaultOptions()}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return Manifest{}, errors.New("manifest is empty")
		}
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}

	if m.Preset != "" {
		preset, ok := packing.PresetByName(m.Preset)
		if !ok {
			return Manifest{}, fmt.Errorf("%w: %q", ErrUnknownPreset, m.Preset)
		}
		if m.Container.Name == "" {
			m.Container = preset
		}
	}
	return m, nil
}

// Request turns the manifest into a packing request, using defaultAttempts
// when the manifest leaves the attempt count unset.
func (m Manifest) Request(defaultAttempts int) packing.Request {
	attempts := m.MaxAttempts
	if attempts == 0 {
		attempts = defaultAttempts
	}
	return packing.Request{
		Container:   m.Container,
		Items:       m.Items,
		Strategy:    packing.Strategy(m.Strategy),
		MaxAttempts: attempts,
		Options:     m.Options,
	}
}

// ImportYAML reads the item list of a manifest, or a bare YAML list of items.
func ImportYAML(r io.Reader) Result {
	data, err := io.ReadAll(r)
	if err != nil {
		return Result{Errors: []string{fmt.Sprintf("Cannot read file: %v", err)}}
	}

	var items []packing.ItemSpec
	if err := yaml.Unmarshal(data, &items); err != nil {
		var m struct {
			Items []packing.ItemSpec `yaml:"items"`
		}
		if err := yaml.Unmarshal(data, &m); err != nil {
			return Result{Errors: []string{fmt.Sprintf("Cannot read YAML: %v", err)}}
		}
		items = m.Items
	}

	var result Result
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		label := fmt.Sprintf("Item %d", i+1)
		if err := packing.ValidateItem(item); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", label, err))
			continue
		}
		if _, dup := seen[item.Name]; dup {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: Duplicate item name '%s'", label, item.Name))
			continue
		}
		seen[item.Name] = struct{}{}
		result.Items = append(result.Items, item)
	}
	if len(result.Items) == 0 && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "No items found")
	}
	return result
}
