// Package export writes tessellated meshes to files. Each format is an
// Exporter so callers can pick formats by name without knowing their
// details.
package export

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chazu/cornerpoint/pkg/mesh"
)

// Exporter writes a mesh to a file in one format.
type Exporter interface {
	// Name is the short format name, also used as the file extension.
	Name() string
	// Export writes m to path.
	Export(m *mesh.Mesh, path string) error
}

var registry = map[string]Exporter{}

// Register makes an exporter available by name. It panics on duplicates.
func Register(e Exporter) {
	name := e.Name()
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("export: duplicate exporter %q", name))
	}
	registry[name] = e
}

func init() {
	Register(STL{})
	Register(DXF{})
	Register(JSON{})
}

// Lookup returns the exporter with the given name.
func Lookup(name string) (Exporter, error) {
	e, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("export: unknown format %q (have %s)", name, strings.Join(Names(), ", "))
	}
	return e, nil
}

// ForPath returns the exporter matching the extension of path.
func ForPath(path string) (Exporter, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return nil, fmt.Errorf("export: %s has no extension", path)
	}
	return Lookup(ext)
}

// Names returns the registered format names in order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
