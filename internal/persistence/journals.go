package persistence

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Journals bridges configuration settings with local file organization:
// one directory per game, one JSONL file per match.
type Journals struct {
	Dir string
}

// NewJournals returns a manager rooted at dir.
func NewJournals(dir string) *Journals {
	return &Journals{Dir: dir}
}

// Path produces the journal path of a match.
func (j *Journals) Path(game, matchID string) string {
	return filepath.Join(j.Dir, game, matchID+".jsonl")
}

// Create makes the game directory and opens a fresh journal for matchID.
func (j *Journals) Create(game, matchID string) (*Store, error) {
	dir := filepath.Join(j.Dir, game)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	path := j.Path(game, matchID)
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("journal already exists: %s", path)
	}
	return NewStore(path)
}

// Open loads the journal of an existing match.
func (j *Journals) Open(game, matchID string) (*Store, error) {
	path := j.Path(game, matchID)
	if stat, err := os.Stat(path); err != nil || stat.IsDir() {
		return nil, fmt.Errorf("journal not found: %s", path)
	}
	return NewStore(path)
}

// List returns the match ids journaled for game, sorted.
func (j *Journals) List(game string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(j.Dir, game))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".jsonl"))
	}
	sort.Strings(ids)
	return ids, nil
}
