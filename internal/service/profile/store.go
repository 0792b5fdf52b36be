package profile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zhouzirui/dialogue-sim/backend/internal/model/persona"
)

// ErrProfileNotFound is returned when a character has no readable profile file.
var ErrProfileNotFound = errors.New("profile not found")

// Loader resolves the persona text for a character display name.
type Loader interface {
	Load(ctx context.Context, name string) (string, error)
}

// Store reads profiles from <dir>/<lowercase_name>.txt. Files are read on
// every call so edits take effect on the next turn.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the directory profiles are read from.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file a character's profile is expected at.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, persona.ProfileFilename(name))
}

// Load returns the profile text verbatim.
func (s *Store) Load(_ context.Context, name string) (string, error) {
	path := s.Path(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w for %q (looking for %s)", ErrProfileNotFound, name, path)
		}
		return "", fmt.Errorf("read profile %s: %w", path, err)
	}
	return string(data), nil
}

// Validate checks that every character has a profile file and returns a
// single error naming all the missing ones.
func (s *Store) Validate(characters []persona.Character) error {
	var errs []error
	for _, c := range characters {
		path := s.Path(c.Name)
		info, err := os.Stat(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			errs = append(errs, fmt.Errorf("%w for %q (looking for %s)", ErrProfileNotFound, c.Name, path))
		case err != nil:
			errs = append(errs, fmt.Errorf("stat profile %s: %w", path, err))
		case info.IsDir():
			errs = append(errs, fmt.Errorf("%w for %q: %s is a directory", ErrProfileNotFound, c.Name, path))
		}
	}
	return errors.Join(errs...)
}

// Missing lists the characters whose profile file cannot be found.
func (s *Store) Missing(characters []persona.Character) []string {
	var missing []string
	for _, c := range characters {
		info, err := os.Stat(s.Path(c.Name))
		if err != nil || info.IsDir() {
			missing = append(missing, c.Name)
		}
	}
	return missing
}
