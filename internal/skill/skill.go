// Package skill loads skill documents (<name>/SKILL.md) from an ordered list
// of search directories.
package skill

import (
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/Iron-Ham/teamctl/internal/errors"
)

// FileName is the document a skill directory must contain.
const FileName = "SKILL.md"

// Skill is a loaded skill document.
type Skill struct {
	Name    string
	Path    string
	Content string
}

// Store finds skills in its search directories, first match wins.
type Store struct {
	fs   afero.Fs
	dirs []string
}

// NewStore returns a Store searching dirs in order.
func NewStore(fs afero.Fs, dirs []string) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{fs: fs, dirs: dirs}
}

// Load reads the named skill from the first directory that has it.
func (s *Store) Load(name string) (*Skill, error) {
	for _, dir := range s.dirs {
		path := filepath.Join(dir, name, FileName)
		info, err := s.fs.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		data, err := afero.ReadFile(s.fs, path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read skill %s", name)
		}
		return &Skill{Name: name, Path: path, Content: string(data)}, nil
	}
	return nil, errors.NewNotFoundError("skill", name)
}

// LoadAll loads each named skill in order. Names that cannot be loaded are
// returned in missing rather than failing the batch.
func (s *Store) LoadAll(names []string) (loaded []*Skill, missing []string) {
	for _, name := range names {
		sk, err := s.Load(name)
		if err != nil {
			missing = append(missing, name)
			continue
		}
		loaded = append(loaded, sk)
	}
	return loaded, missing
}
