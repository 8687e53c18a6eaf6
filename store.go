//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package lemma

import (
	"errors"
	"fmt"

	"github.com/markkurossi/lemma/contract"
)

// Store errors.
var (
	ErrDuplicate = errors.New("lemma: duplicate lemma")
	ErrUnknown   = errors.New("lemma: unknown lemma")
)

// Store holds established lemmas by name, in insertion order.
type Store struct {
	names  []string
	lemmas map[string]*Lemma
}

// NewStore creates an empty lemma store.
func NewStore() *Store {
	return &Store{
		lemmas: make(map[string]*Lemma),
	}
}

// Seed installs axiom contracts, named by their contract names.
func (s *Store) Seed(axioms ...*contract.Contract) error {
	for _, c := range axioms {
		err := s.Add(&Lemma{
			Contract: c,
			Status:   Axiom,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Add inserts the lemma. Duplicate names are rejected: an established
// result is never replaced.
func (s *Store) Add(l *Lemma) error {
	name := l.Name()
	if _, ok := s.lemmas[name]; ok {
		return fmt.Errorf("lemma: %s: %w", name, ErrDuplicate)
	}
	for _, dep := range l.Deps {
		if _, ok := s.lemmas[dep]; !ok {
			return fmt.Errorf("lemma: %s depends on %s: %w",
				name, dep, ErrUnknown)
		}
	}
	s.names = append(s.names, name)
	s.lemmas[name] = l
	return nil
}

// Get returns the named lemma.
func (s *Store) Get(name string) (*Lemma, error) {
	l, ok := s.lemmas[name]
	if !ok {
		return nil, fmt.Errorf("lemma: %s: %w", name, ErrUnknown)
	}
	return l, nil
}

// Lookup returns the named lemma if it is established.
func (s *Store) Lookup(name string) (*Lemma, bool) {
	l, ok := s.lemmas[name]
	return l, ok
}

// Names returns the lemma names in insertion order.
func (s *Store) Names() []string {
	return s.names
}

// Size returns the number of established lemmas.
func (s *Store) Size() int {
	return len(s.names)
}

// Trusted reports if the named lemma rests only on checked results:
// false iff the lemma or any transitive dependency is admitted.
func (s *Store) Trusted(name string) (bool, error) {
	l, err := s.Get(name)
	if err != nil {
		return false, err
	}
	if l.Status == Admitted {
		return false, nil
	}
	for _, dep := range l.Deps {
		ok, err := s.Trusted(dep)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
