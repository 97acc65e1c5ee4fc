package persistence

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/suderio/turnflow/internal/engine"
)

// RecordKind tags a journal line.
type RecordKind string

const (
	RecordMatch  RecordKind = "match"
	RecordAction RecordKind = "action"
)

// Record facilitates serialization of the two kinds of journal lines.
type Record struct {
	Kind RecordKind      `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// MatchInfo is the header of a journal: everything needed to recreate the
// initial state before replaying its actions.
type MatchInfo struct {
	ID         string `json:"id"`
	Game       string `json:"game"`
	NumPlayers int    `json:"numPlayers"`
	Seed       string `json:"seed"`
	SetupData  any    `json:"setupData,omitempty"`
}

// ErrNoHeader is returned when a journal has actions but no match header.
var ErrNoHeader = errors.New("journal has no match header")

// Store handles append-only storing of a match journal.
type Store struct {
	file *os.File
}

// NewStore opens or creates the file at path for appending lines
func NewStore(path string) (*Store, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open store file: %w", err)
	}
	return &Store{file: file}, nil
}

// WriteHeader records the match the journal belongs to.
func (s *Store) WriteHeader(info MatchInfo) error {
	return s.write(RecordMatch, info)
}

// Append records one accepted action.
func (s *Store) Append(a engine.Action) error {
	return s.write(RecordAction, a)
}

func (s *Store) write(kind RecordKind, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	line, err := json.Marshal(Record{Kind: kind, Data: data})
	if err != nil {
		return err
	}

	if _, err := s.file.Write(append(line, '\n')); err != nil {
		return err
	}
	return s.file.Sync()
}

// Load reads the journal back: its header and every action in order.
func (s *Store) Load() (*MatchInfo, []engine.Action, error) {
	var (
		info    *MatchInfo
		actions []engine.Action
	)

	// Reset file pointer to beginning
	if _, err := s.file.Seek(0, 0); err != nil {
		return nil, nil, err
	}

	scanner := bufio.NewScanner(s.file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, nil, fmt.Errorf("failed to decode record: %w", err)
		}

		switch rec.Kind {
		case RecordMatch:
			var m MatchInfo
			if err := json.Unmarshal(rec.Data, &m); err != nil {
				return nil, nil, fmt.Errorf("failed to parse match header: %w", err)
			}
			info = &m
		case RecordAction:
			var a engine.Action
			if err := json.Unmarshal(rec.Data, &a); err != nil {
				return nil, nil, fmt.Errorf("failed to parse action: %w", err)
			}
			actions = append(actions, a)
		default:
			return nil, nil, fmt.Errorf("unknown record kind in journal: %s", rec.Kind)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	if info == nil && len(actions) > 0 {
		return nil, nil, ErrNoHeader
	}

	return info, actions, nil
}

// Close handles safe shutdown.
func (s *Store) Close() error {
	return s.file.Close()
}
