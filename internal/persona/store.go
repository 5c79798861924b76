// Package persona persists named voice personas: a reference audio clip plus
// the generation parameters tuned for it. Each persona owns one directory
// under the store root, and the on-disk copy is always authoritative: loads
// re-read the filesystem every time.
package persona

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/unicode/norm"

	"github.com/voxworks/voxbench/internal/core"
	"github.com/voxworks/voxbench/internal/params"
)

const (
	// ConfigFileName is the per-persona parameter record. Its name and keys
	// are a durable contract with previously saved personas.
	ConfigFileName = "config.json"

	// ReferenceBaseName is the base name the reference clip is stored under,
	// with the source extension preserved.
	ReferenceBaseName = "reference"

	defaultAudioExt = ".wav"

	DirPermission  = 0755
	FilePermission = 0644
)

// Persona is a loaded bundle: the stored reference clip and its parameters.
type Persona struct {
	Name      string
	AudioPath string
	Params    params.Set
}

// SaveResult reports a completed save: the stored persona plus the refreshed
// name list so callers can update their selection without a second call.
type SaveResult struct {
	Persona Persona
	Names   []string
}

// configRecord is the flat on-disk shape of config.json. Pointers
// distinguish absent fields from explicit zeroes so older or hand-edited
// records stay loadable with defaults substituted.
type configRecord struct {
	RepetitionPenalty *float64 `json:"repetition_penalty,omitempty"`
	MinP              *float64 `json:"min_p,omitempty"`
	TopP              *float64 `json:"top_p,omitempty"`
	Exaggeration      *float64 `json:"exaggeration,omitempty"`
	CfgWeight         *float64 `json:"cfg_weight,omitempty"`
	Temperature       *float64 `json:"temperature,omitempty"`
	AudioFilename     string   `json:"audio_filename,omitempty"`
}

// Store maps persona names to directories under a fixed root.
type Store struct {
	root string
}

// NewStore creates a store rooted at the given directory. The directory is
// created lazily on first save.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// DefaultStore creates a store under the user's home directory.
func DefaultStore() (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	return NewStore(filepath.Join(homeDir, ".voxbench", "personas")), nil
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// Dir returns the directory a persona name maps to.
func (s *Store) Dir(name string) string {
	return filepath.Join(s.root, name)
}

// Exists reports whether a persona has a config record on disk.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(filepath.Join(s.Dir(name), ConfigFileName))
	return err == nil
}

// List returns all persona names sorted lexicographically ascending. An
// absent or empty root yields an empty list, not an error.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug().Str("root", s.root).Msg("Personas directory does not exist")
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read personas directory: %w", err)
	}

	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	return names, nil
}

// Save stores a persona under name, copying the reference clip into the
// persona directory and then writing the parameter record. Saving an
// existing name silently overwrites its audio and config. The config is
// written only after the audio copy succeeds, so a failed copy never leaves
// a config pointing at a corrupt clip.
func (s *Store) Save(name, audioPath string, p params.Set) (*SaveResult, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	if audioPath == "" {
		return nil, core.NewValidationError("audio prompt", "reference audio is required to save a persona")
	}

	dir := s.Dir(name)
	if err := os.MkdirAll(dir, DirPermission); err != nil {
		return nil, fmt.Errorf("failed to create persona directory: %w", err)
	}

	ext := filepath.Ext(audioPath)
	if ext == "" {
		ext = defaultAudioExt
	}
	audioFilename := ReferenceBaseName + ext
	storedAudio := filepath.Join(dir, audioFilename)

	if err := copyFile(audioPath, storedAudio); err != nil {
		return nil, fmt.Errorf("failed to copy reference audio: %w", err)
	}

	record := configRecord{
		RepetitionPenalty: &p.RepetitionPenalty,
		MinP:              &p.MinP,
		TopP:              &p.TopP,
		Exaggeration:      &p.Exaggeration,
		CfgWeight:         &p.CfgWeight,
		Temperature:       &p.Temperature,
		AudioFilename:     audioFilename,
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal persona config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), data, FilePermission); err != nil {
		return nil, fmt.Errorf("failed to write persona config: %w", err)
	}

	names, err := s.List()
	if err != nil {
		return nil, err
	}

	log.Info().Str("persona", name).Str("dir", dir).Msg("Saved persona")

	return &SaveResult{
		Persona: Persona{Name: name, AudioPath: storedAudio, Params: p},
		Names:   names,
	}, nil
}

// Load reads a persona from disk. An empty name means "no selection" and
// returns (nil, nil) without touching the filesystem. Fields absent from the
// config record are defaulted so older records remain loadable. The audio
// path is resolved but not checked for existence; a missing clip surfaces
// later as a collaborator failure.
func (s *Store) Load(name string) (*Persona, error) {
	if name == "" {
		return nil, nil
	}

	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(s.Dir(name), ConfigFileName)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.NewNotFoundError("persona", name)
		}
		return nil, fmt.Errorf("failed to read persona config: %w", err)
	}

	var record configRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse persona config: %w", err)
	}

	audioFilename := record.AudioFilename
	if audioFilename == "" {
		audioFilename = ReferenceBaseName + defaultAudioExt
	}

	p := params.Set{
		RepetitionPenalty: orDefault(record.RepetitionPenalty, params.DefaultRepetitionPenalty),
		MinP:              orDefault(record.MinP, params.DefaultMinP),
		TopP:              orDefault(record.TopP, params.DefaultTopP),
		Exaggeration:      orDefault(record.Exaggeration, params.DefaultExaggeration),
		CfgWeight:         orDefault(record.CfgWeight, params.DefaultCfgWeight),
		Temperature:       orDefault(record.Temperature, params.DefaultTemperature),
	}

	log.Debug().Str("persona", name).Msg("Loaded persona")

	return &Persona{
		Name:      name,
		AudioPath: filepath.Join(s.Dir(name), audioFilename),
		Params:    p,
	}, nil
}

// Delete removes a persona and everything stored under its directory.
func (s *Store) Delete(name string) error {
	name, err := normalizeName(name)
	if err != nil {
		return err
	}
	if !s.Exists(name) {
		return core.NewNotFoundError("persona", name)
	}

	if err := os.RemoveAll(s.Dir(name)); err != nil {
		return fmt.Errorf("failed to delete persona: %w", err)
	}

	log.Info().Str("persona", name).Msg("Deleted persona")
	return nil
}

// normalizeName NFC-normalizes a persona name and rejects anything that
// cannot serve as a single directory component.
func normalizeName(name string) (string, error) {
	name = norm.NFC.String(strings.TrimSpace(name))

	if name == "" {
		return "", core.NewValidationError("name", "persona name is required")
	}
	if name == "." || name == ".." {
		return "", core.NewValidationError("name", "persona name is reserved")
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return "", core.NewValidationError("name", "persona name must not contain path separators")
	}

	return name, nil
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}

	return out.Close()
}
