package identity

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewAnonymousID(t *testing.T) {
	p := NewProvider()

	id := p.NewAnonymousID()
	if !strings.HasPrefix(id, AnonymousPrefix) {
		t.Fatalf("Expected %q prefix, got %q", AnonymousPrefix, id)
	}
	if _, err := uuid.Parse(strings.TrimPrefix(id, AnonymousPrefix)); err != nil {
		t.Errorf("Expected uuid suffix, got %q: %v", id, err)
	}
	if other := p.NewAnonymousID(); other == id {
		t.Error("Expected unique ids")
	}
}

func TestIsAnonymous(t *testing.T) {
	tests := []struct {
		id       string
		expected bool
	}{
		{"anon_123", true},
		{"anon_", true},
		{"user-42", false},
		{"ANON_123", false},
		{"", false},
	}

	p := NewProvider()
	for _, test := range tests {
		if got := p.IsAnonymous(test.id); got != test.expected {
			t.Errorf("IsAnonymous(%q): expected %v, got %v", test.id, test.expected, got)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		given    string
		expected string
	}{
		{"explicit name wins", "anon_abcdef123", "  Ada ", "Ada"},
		{"anonymous short id", "anon_abcdef123", "", "Anonymous abcdef"},
		{"anonymous shorter than six", "anon_ab", "", "Anonymous ab"},
		{"registered user falls back to id", "user-42", "", "user-42"},
	}

	p := NewProvider()
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := p.DisplayName(test.id, test.given); got != test.expected {
				t.Errorf("Expected %q, got %q", test.expected, got)
			}
		})
	}
}
