package persona

import (
	"strings"
	"unicode"
)

// DefaultCharacter is selected for a fresh session when the caller names none.
const DefaultCharacter = "Winston Churchill"

// Character is a historical figure the simulator can role-play.
type Character struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// Category groups characters for the "Library Wing" navigation.
type Category struct {
	Name    string      `json:"name"`
	Members []Character `json:"members"`
}

// NewCharacter derives the stable identifier for a display name.
func NewCharacter(name, category string) Character {
	name = strings.TrimSpace(name)
	return Character{ID: Slug(name), Name: name, Category: category}
}

// Slug lowercases the name, turns whitespace runs into '-' and drops other punctuation.
// "John F. Kennedy" -> "john-f-kennedy".
func Slug(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_':
			pendingDash = true
		}
	}
	return b.String()
}

// Seed returns the categorized pantheon shipped with the simulator.
func Seed() []Category {
	groups := []struct {
		name    string
		members []string
	}{
		{"Leaders & Statesmen", []string{"Winston Churchill", "John F. Kennedy", "Boudica"}},
		{"Scientists & Thinkers", []string{"Carl Sagan", "Albert Einstein"}},
		{"Artists & Rebels", []string{"John Lennon", "Frida Kahlo", "Bruce Lee"}},
		{"Warriors & Strategists", []string{"Muhammad Ali", "Doc Holliday"}},
		{"Modern Minds", []string{"Joe Rogan"}},
	}

	categories := make([]Category, 0, len(groups))
	for _, g := range groups {
		cat := Category{Name: g.name, Members: make([]Character, 0, len(g.members))}
		for _, name := range g.members {
			cat.Members = append(cat.Members, NewCharacter(name, g.name))
		}
		categories = append(categories, cat)
	}
	return categories
}

// Flat wraps an uncategorized roster into a single unnamed category.
func Flat(names ...string) []Category {
	members := make([]Character, 0, len(names))
	for _, name := range names {
		members = append(members, NewCharacter(name, ""))
	}
	return []Category{{Members: members}}
}
