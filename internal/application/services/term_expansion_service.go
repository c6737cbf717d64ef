package services

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
)

// DefaultMuseumSynonyms widens the database search for common visitor wording
var DefaultMuseumSynonyms = map[string][]string{
	"art":       {"gallery", "painting"},
	"gallery":   {"art"},
	"history":   {"heritage", "historical"},
	"heritage":  {"history", "palace", "fort"},
	"science":   {"technology", "planetarium"},
	"train":     {"railway"},
	"railway":   {"train"},
	"war":       {"military"},
	"military":  {"war"},
	"coins":     {"coin", "numismatic"},
	"kids":      {"children", "science"},
	"gandhi":    {"freedom"},
	"palace":    {"heritage"},
	"sculpture": {"art"},
}

// TermExpansionService expands search terms into synonyms
type TermExpansionService struct {
	terms map[string][]string
	mu    sync.RWMutex
}

// NewTermExpansionService creates a service over mappings, or DefaultMuseumSynonyms when nil
func NewTermExpansionService(mappings map[string][]string) *TermExpansionService {
	if mappings == nil {
		mappings = DefaultMuseumSynonyms
	}
	s := &TermExpansionService{terms: make(map[string][]string, len(mappings))}
	s.merge(mappings)
	return s
}

// LoadTermExpansionFile adds the JSON object at path ({"term": ["synonym", ...]})
// on top of DefaultMuseumSynonyms
func LoadTermExpansionFile(path string) (*TermExpansionService, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var mappings map[string][]string
	if err := json.Unmarshal(data, &mappings); err != nil {
		return nil, fmt.Errorf("failed to parse synonyms file %s: %w", path, err)
	}

	s := NewTermExpansionService(nil)
	s.merge(mappings)
	return s, nil
}

func (s *TermExpansionService) merge(mappings map[string][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Keys are matched lowercase
	for k, v := range mappings {
		s.terms[strings.ToLower(k)] = v
	}
}

// Expand returns the query terms followed by their synonyms, without duplicates
func (s *TermExpansionService) Expand(query string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []string{}
	}

	rawTerms := strings.Fields(query)

	var expanded []string
	seen := make(map[string]bool)
	add := func(term string) {
		if !seen[term] {
			expanded = append(expanded, term)
			seen[term] = true
		}
	}

	for _, term := range rawTerms {
		add(term)
	}
	for _, term := range rawTerms {
		for _, syn := range s.terms[term] {
			add(strings.ToLower(syn))
		}
	}

	return expanded
}
