package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DriverKind tags a driver as a compiler or a runtime.
type DriverKind int

const (
	CompilerDriver DriverKind = iota
	RuntimeDriver
)

func (k DriverKind) String() string {
	if k == CompilerDriver {
		return "Compiler"
	}
	return "Runtime"
}

// Driver is an executable adapter invoking one compiler or runtime
// implementation under test. Drivers are read-only configuration.
type Driver struct {
	Name  string
	Path  string
	Label string
	Kind  DriverKind
}

// ProgramRecord is the driver's entry in the JSON summary.
type ProgramRecord struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// Describe returns the driver's summary record.
func (d *Driver) Describe() ProgramRecord {
	return ProgramRecord{Name: d.Name, Kind: d.Kind.String()}
}

const (
	runtimeDriverSuffix  = "_runtime_driver"
	compilerDriverSuffix = "_compiler_driver"
)

// DiscoverDrivers enumerates driver executables under <root>/drivers.
// An entry named <name>_runtime_driver or <name>_compiler_driver is a
// driver for <name>; directory entries must contain a "driver"
// executable. The result is sorted by name within each kind.
func DiscoverDrivers(root string) ([]*Driver, error) {
	folder := filepath.Join(root, "drivers")
	entries, err := os.ReadDir(folder)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("discovering drivers: %w", err)
	}

	var drivers []*Driver
	for _, entry := range entries {
		var kind DriverKind
		var name string
		switch {
		case strings.HasSuffix(entry.Name(), runtimeDriverSuffix):
			kind = RuntimeDriver
			name = strings.TrimSuffix(entry.Name(), runtimeDriverSuffix)
		case strings.HasSuffix(entry.Name(), compilerDriverSuffix):
			kind = CompilerDriver
			name = strings.TrimSuffix(entry.Name(), compilerDriverSuffix)
		default:
			continue
		}
		path := filepath.Join(folder, entry.Name())
		if entry.IsDir() {
			path = filepath.Join(path, "driver")
		}
		drivers = append(drivers, &Driver{
			Name:  name,
			Path:  path,
			Label: name,
			Kind:  kind,
		})
	}
	sort.Slice(drivers, func(i, j int) bool {
		if drivers[i].Kind != drivers[j].Kind {
			return drivers[i].Kind < drivers[j].Kind
		}
		return drivers[i].Name < drivers[j].Name
	})
	return drivers, nil
}

func filterKind(drivers []*Driver, kind DriverKind) []*Driver {
	var out []*Driver
	for _, d := range drivers {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

func findDriver(drivers []*Driver, name string) *Driver {
	for _, d := range drivers {
		if d.Name == name {
			return d
		}
	}
	return nil
}
