// Package migrate applies numbered SQL scripts to a database exactly once,
// recording each applied version in a migrations bookkeeping table.
package migrate

import (
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
)

// Migration is one versioned schema script.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Set is a list of migrations sorted by ascending version.
type Set []Migration

var fileRe = regexp.MustCompile(`^(\d+)_([A-Za-z0-9_]+)\.sql$`)

// Load reads every NNN_name.sql file in dir. Other files are ignored.
func Load(fsys fs.FS, dir string) (Set, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	seen := make(map[int]string)
	var set Set
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := fileRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}

		version, err := strconv.Atoi(m[1])
		if err != nil || version <= 0 {
			return nil, fmt.Errorf("invalid migration version in %s", e.Name())
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("duplicate migration version %d: %s and %s", version, prev, e.Name())
		}
		seen[version] = e.Name()

		body, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		set = append(set, Migration{Version: version, Name: m[2], SQL: string(body)})
	}

	sort.Slice(set, func(i, j int) bool { return set[i].Version < set[j].Version })
	return set, nil
}

// MustLoad is Load for embedded scripts compiled into the binary.
func MustLoad(fsys fs.FS, dir string) Set {
	set, err := Load(fsys, dir)
	if err != nil {
		panic(err)
	}
	return set
}

// Latest returns the highest version in the set, or 0 when empty.
func (s Set) Latest() int {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Version
}

// After returns the migrations with a version greater than current.
func (s Set) After(current int) Set {
	var out Set
	for _, m := range s {
		if m.Version > current {
			out = append(out, m)
		}
	}
	return out
}
