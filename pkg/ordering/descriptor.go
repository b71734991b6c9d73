package ordering

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Descriptor binds an entity type to the columns that hold its position.
// Records with an empty ParentColumn form one global sibling group.
type Descriptor struct {
	Entity       string `yaml:"entity"`
	Table        string `yaml:"table"`
	IDColumn     string `yaml:"id_column"`
	OrderColumn  string `yaml:"order_column"`
	ParentColumn string `yaml:"parent_column,omitempty"`
	ActiveColumn string `yaml:"active_column"`
}

var identifierRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func (d Descriptor) withDefaults() Descriptor {
	if d.IDColumn == "" {
		d.IDColumn = "id"
	}
	if d.ActiveColumn == "" {
		d.ActiveColumn = "active"
	}
	if d.Table == "" {
		d.Table = d.Entity
	}
	return d
}

// Validate checks that every name is a plain lower case SQL identifier.
// Descriptor values are interpolated into statements, so nothing else is
// accepted.
func (d Descriptor) Validate() error {
	if d.Entity == "" {
		return fmt.Errorf("%w: entity is required", ErrInvalidDescriptor)
	}
	if d.OrderColumn == "" {
		return fmt.Errorf("%w: %s: order_column is required", ErrInvalidDescriptor, d.Entity)
	}
	fields := []struct {
		name, value string
	}{
		{"table", d.Table},
		{"id_column", d.IDColumn},
		{"order_column", d.OrderColumn},
		{"active_column", d.ActiveColumn},
	}
	if d.ParentColumn != "" {
		fields = append(fields, struct{ name, value string }{"parent_column", d.ParentColumn})
	}
	for _, f := range fields {
		if !identifierRegex.MatchString(f.value) {
			return fmt.Errorf("%w: %s: %s %q is not an identifier", ErrInvalidDescriptor, d.Entity, f.name, f.value)
		}
	}
	return nil
}

// Grouped reports whether siblings are partitioned by a parent column.
func (d Descriptor) Grouped() bool {
	return d.ParentColumn != ""
}

// Descriptors is an ordered set of descriptors keyed by entity.
type Descriptors []Descriptor

func (ds Descriptors) Get(entity string) (Descriptor, error) {
	for _, d := range ds {
		if d.Entity == entity {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
}

func (ds Descriptors) MustGet(entity string) Descriptor {
	d, err := ds.Get(entity)
	if err != nil {
		panic(err)
	}
	return d
}

// Merge returns ds extended with the descriptors of overrides. An override
// may restate a descriptor ds already has, but not change its columns: the
// services write those columns directly.
func (ds Descriptors) Merge(overrides Descriptors) (Descriptors, error) {
	out := make(Descriptors, len(ds))
	copy(out, ds)
	for _, o := range overrides {
		existing, err := ds.Get(o.Entity)
		if err != nil {
			out = append(out, o)
			continue
		}
		if existing != o {
			return nil, fmt.Errorf("%w: %s", ErrBuiltinOverride, o.Entity)
		}
	}
	return out, nil
}

type descriptorFile struct {
	Descriptors []Descriptor `yaml:"descriptors"`
}

// LoadDescriptors decodes a YAML descriptor document. Unknown keys and
// duplicate entities are rejected.
func LoadDescriptors(r io.Reader) (Descriptors, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file descriptorFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return Descriptors{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}

	seen := make(map[string]struct{}, len(file.Descriptors))
	out := make(Descriptors, 0, len(file.Descriptors))
	for _, d := range file.Descriptors {
		d = d.withDefaults()
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[d.Entity]; dup {
			return nil, fmt.Errorf("%w: duplicate entity %q", ErrInvalidDescriptor, d.Entity)
		}
		seen[d.Entity] = struct{}{}
		out = append(out, d)
	}
	return out, nil
}

//go:embed descriptors.yaml
var builtinDescriptors []byte

// DefaultDescriptors returns the descriptors of story, adventure and quest.
func DefaultDescriptors() Descriptors {
	ds, err := LoadDescriptors(bytes.NewReader(builtinDescriptors))
	if err != nil {
		panic(err)
	}
	return ds
}
