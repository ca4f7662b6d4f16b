// Package session keeps the documents an editor has open and the
// diagnostics of their latest accepted version.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"whistle/internal/buildpipeline"
	"whistle/internal/diag"
	"whistle/internal/source"
)

var (
	// ErrNotOpen is returned for operations on a URI that is not open.
	ErrNotOpen = errors.New("document is not open")
	// ErrAlreadyOpen is returned when opening a URI twice.
	ErrAlreadyOpen = errors.New("document is already open")
	// ErrStaleVersion matches every *StaleVersionError.
	ErrStaleVersion = errors.New("stale document version")
)

// StaleVersionError rejects a change whose version does not exceed the
// stored one.
type StaleVersionError struct {
	URI     string
	Stored  int32
	Version int32
}

func (e *StaleVersionError) Error() string {
	return fmt.Sprintf("%s: version %d is not newer than %d", e.URI, e.Version, e.Stored)
}

func (e *StaleVersionError) Is(target error) bool {
	return target == ErrStaleVersion
}

// DocumentState is a snapshot of one open document.
type DocumentState struct {
	URI         string
	Text        string
	Version     int32
	Diagnostics []diag.Diagnostic
}

func (d DocumentState) clone() DocumentState {
	d.Diagnostics = slices.Clone(d.Diagnostics)
	return d
}

// DiagnoseFunc produces diagnostics for a unit.
type DiagnoseFunc func(ctx context.Context, unit source.Unit) ([]diag.Diagnostic, error)

type entry struct {
	mu     sync.RWMutex
	state  DocumentState
	closed bool
}

// Store maps URIs to document state. Mutations of one URI are serialized
// and exclude readers of that URI; different URIs proceed independently.
type Store struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	diagnose DiagnoseFunc
}

// NewStore returns an empty store. A nil diagnose runs the compiler
// pipeline.
func NewStore(diagnose DiagnoseFunc) *Store {
	if diagnose == nil {
		diagnose = buildpipeline.Diagnose
	}
	return &Store{
		entries:  make(map[string]*entry),
		diagnose: diagnose,
	}
}

func (s *Store) lookup(uri string) *entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[uri]
}

// Open registers uri and computes its diagnostics.
func (s *Store) Open(ctx context.Context, uri, text string, version int32) (DocumentState, error) {
	e := &entry{}
	e.mu.Lock()
	defer e.mu.Unlock()

	s.mu.Lock()
	if _, ok := s.entries[uri]; ok {
		s.mu.Unlock()
		return DocumentState{}, fmt.Errorf("%w: %s", ErrAlreadyOpen, uri)
	}
	s.entries[uri] = e
	s.mu.Unlock()

	diags, err := s.diagnose(ctx, source.NewUnit(uri, text))
	if err != nil {
		e.closed = true
		s.remove(uri, e)
		return DocumentState{}, err
	}
	e.state = DocumentState{URI: uri, Text: text, Version: version, Diagnostics: diags}
	return e.state.clone(), nil
}

// Change replaces the text of uri when version is newer than the stored
// one and recomputes diagnostics. A rejected change leaves the state
// untouched.
func (s *Store) Change(ctx context.Context, uri, text string, version int32) (DocumentState, error) {
	e := s.lookup(uri)
	if e == nil {
		return DocumentState{}, fmt.Errorf("%w: %s", ErrNotOpen, uri)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return DocumentState{}, fmt.Errorf("%w: %s", ErrNotOpen, uri)
	}
	if version <= e.state.Version {
		return DocumentState{}, &StaleVersionError{URI: uri, Stored: e.state.Version, Version: version}
	}

	diags, err := s.diagnose(ctx, source.NewUnit(uri, text))
	if err != nil {
		return DocumentState{}, err
	}
	e.state = DocumentState{URI: uri, Text: text, Version: version, Diagnostics: diags}
	return e.state.clone(), nil
}

// Close forgets uri.
func (s *Store) Close(uri string) error {
	e := s.lookup(uri)
	if e == nil {
		return fmt.Errorf("%w: %s", ErrNotOpen, uri)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return fmt.Errorf("%w: %s", ErrNotOpen, uri)
	}
	e.closed = true
	s.remove(uri, e)
	return nil
}

func (s *Store) remove(uri string, e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries[uri] == e {
		delete(s.entries, uri)
	}
}

// Get returns a snapshot of uri.
func (s *Store) Get(uri string) (DocumentState, bool) {
	e := s.lookup(uri)
	if e == nil {
		return DocumentState{}, false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return DocumentState{}, false
	}
	return e.state.clone(), true
}

// Diagnostics returns the diagnostics of the latest accepted version.
func (s *Store) Diagnostics(uri string) ([]diag.Diagnostic, bool) {
	st, ok := s.Get(uri)
	if !ok {
		return nil, false
	}
	return st.Diagnostics, true
}

// URIs lists the open documents in lexical order.
func (s *Store) URIs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uris := make([]string, 0, len(s.entries))
	for uri := range s.entries {
		uris = append(uris, uri)
	}
	slices.Sort(uris)
	return uris
}
