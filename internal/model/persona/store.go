package persona

import (
	"fmt"
	"strings"
)

// Store exposes the character registry to handlers and services.
type Store interface {
	List() []Character
	Categories() []Category
	FindByID(id string) (Character, bool)
	FindByName(name string) (Character, bool)
}

// MemoryStore implements Store with a fixed in-memory roster.
type MemoryStore struct {
	categories []Category
	items      []Character
	byID       map[string]int
}

// NewMemoryStore builds a registry from categories, rejecting empty names and
// any two characters that would share an identifier or profile file.
func NewMemoryStore(categories []Category) (*MemoryStore, error) {
	s := &MemoryStore{byID: make(map[string]int)}
	files := make(map[string]string)

	for _, cat := range categories {
		copied := Category{Name: cat.Name, Members: make([]Character, 0, len(cat.Members))}
		for _, member := range cat.Members {
			if member.ID == "" {
				return nil, fmt.Errorf("character %q has an empty identifier", member.Name)
			}
			if _, dup := s.byID[member.ID]; dup {
				return nil, fmt.Errorf("duplicate character identifier %q", member.ID)
			}
			file := ProfileFilename(member.Name)
			if prev, dup := files[file]; dup {
				return nil, fmt.Errorf("characters %q and %q share profile file %s", prev, member.Name, file)
			}
			files[file] = member.Name

			s.byID[member.ID] = len(s.items)
			s.items = append(s.items, member)
			copied.Members = append(copied.Members, member)
		}
		s.categories = append(s.categories, copied)
	}
	return s, nil
}

// MustMemoryStore is NewMemoryStore for static rosters known to be valid.
func MustMemoryStore(categories []Category) *MemoryStore {
	s, err := NewMemoryStore(categories)
	if err != nil {
		panic(err)
	}
	return s
}

// List returns every character in registry order.
func (s *MemoryStore) List() []Character {
	return append([]Character(nil), s.items...)
}

// Categories returns the grouped registry.
func (s *MemoryStore) Categories() []Category {
	out := make([]Category, len(s.categories))
	for i, cat := range s.categories {
		out[i] = Category{Name: cat.Name, Members: append([]Character(nil), cat.Members...)}
	}
	return out
}

// FindByID looks up a character by identifier.
func (s *MemoryStore) FindByID(id string) (Character, bool) {
	idx, ok := s.byID[id]
	if !ok {
		return Character{}, false
	}
	return s.items[idx], true
}

// FindByName looks up a character by display name, ignoring case and surrounding space.
func (s *MemoryStore) FindByName(name string) (Character, bool) {
	return s.FindByID(Slug(name))
}

// ProfileFilename maps a display name to its profile file name:
// lowercase, spaces replaced by underscores, ".txt" suffix.
func ProfileFilename(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_") + ".txt"
}
