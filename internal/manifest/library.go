package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Library resolves manifests by game name through a fallback hierarchy of
// directories. Earlier directories shadow later ones.
type Library struct {
	dirs []string
}

// NewLibrary initializes a Library over dirs, searched in order.
func NewLibrary(dirs []string) *Library {
	return &Library{dirs: dirs}
}

var manifestExts = []string{".yaml", ".yml"}

// Find resolves ref to a manifest path. A ref naming an existing file is
// used as is; otherwise it is a game name looked up as <dir>/<name>.yaml.
func (l *Library) Find(ref string) (string, error) {
	if stat, err := os.Stat(ref); err == nil && !stat.IsDir() {
		return ref, nil
	}

	for _, dir := range l.dirs {
		for _, ext := range manifestExts {
			path := filepath.Join(dir, ref+ext)
			if stat, err := os.Stat(path); err == nil && !stat.IsDir() {
				return path, nil
			}
		}
	}
	return "", fmt.Errorf("could not find manifest %s in any games directory", ref)
}

// Load finds and parses the manifest ref names.
func (l *Library) Load(ref string) (*Manifest, error) {
	path, err := l.Find(ref)
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Names lists the games available across all directories, sorted.
func (l *Library) Names() ([]string, error) {
	seen := map[string]bool{}
	for _, dir := range l.dirs {
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			ext := filepath.Ext(e.Name())
			for _, known := range manifestExts {
				if ext == known {
					seen[strings.TrimSuffix(e.Name(), ext)] = true
				}
			}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
