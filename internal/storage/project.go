package storage

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/valter-silva-au/wbs-gantt/pkg/models"
	"gopkg.in/yaml.v3"
)

// ProjectFileVersion is written into every project file.
const ProjectFileVersion = "1.0"

// Format selects the on-disk encoding of a project file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatCBOR Format = "cbor"
)

// FormatFor picks the encoding from the file extension. Anything other than
// .cbor is YAML.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".cbor") {
		return FormatCBOR
	}
	return FormatYAML
}

// ProjectFile is the top-level structure of a project file.
type ProjectFile struct {
	Version string          `yaml:"version" cbor:"version"`
	Project *models.Project `yaml:"project" cbor:"project"`
}

// ErrStaleProject is returned by Save when another process rewrote the
// project file after this manager last loaded or saved it.
var ErrStaleProject = errors.New("project file changed on disk since it was loaded")

// ProjectFileManager reads and writes a single project file.
type ProjectFileManager interface {
	Load() (*models.Project, error)
	Save(p *models.Project) error
	Path() string
	Format() Format
}

type fileProjectManager struct {
	path   string
	format Format

	mu   sync.Mutex
	seen bool
	sum  [sha256.Size]byte
}

// NewProjectFileManager creates a ProjectFileManager for path. The encoding
// follows the extension: .cbor files are deterministic CBOR, all others YAML.
func NewProjectFileManager(path string) ProjectFileManager {
	return &fileProjectManager{path: path, format: FormatFor(path)}
}

func (m *fileProjectManager) Path() string   { return m.path }
func (m *fileProjectManager) Format() Format { return m.format }

// Load reads the project file. A missing file yields an empty project so a
// fresh workspace can start adding tasks immediately.
func (m *fileProjectManager) Load() (*models.Project, error) {
	data, err := readIfExists(m.path)
	if err != nil {
		return nil, fmt.Errorf("loading project: %w", err)
	}
	m.mu.Lock()
	m.seen, m.sum = true, sha256.Sum256(data)
	m.mu.Unlock()
	if len(data) == 0 {
		return &models.Project{}, nil
	}

	pf, err := decodeProjectFile(data, m.format)
	if err != nil {
		return nil, fmt.Errorf("loading project %s: %w", m.path, err)
	}
	if pf.Version != "" && pf.Version != ProjectFileVersion {
		return nil, fmt.Errorf("loading project %s: unsupported version %q", m.path, pf.Version)
	}
	if pf.Project == nil {
		return &models.Project{}, nil
	}
	return pf.Project, nil
}

// Save writes p under the project lock. Once this manager has loaded or saved
// the file, Save fails with ErrStaleProject if the file no longer holds what
// it last saw, so a long-running process never overwrites another writer.
func (m *fileProjectManager) Save(p *models.Project) error {
	if p == nil {
		return fmt.Errorf("saving project: project is nil")
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o750); err != nil {
		return fmt.Errorf("saving project: creating directory: %w", err)
	}
	data, err := encodeProjectFile(ProjectFile{Version: ProjectFileVersion, Project: p}, m.format)
	if err != nil {
		return fmt.Errorf("saving project: %w", err)
	}

	unlock, err := lockFile(m.path + ".lock")
	if err != nil {
		return fmt.Errorf("saving project: %w", err)
	}
	defer func() { _ = unlock() }()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen {
		current, err := readIfExists(m.path)
		if err != nil {
			return fmt.Errorf("saving project: %w", err)
		}
		if sha256.Sum256(current) != m.sum {
			return fmt.Errorf("saving project %s: %w", m.path, ErrStaleProject)
		}
	}

	// Readers never observe a partially written file.
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("saving project: writing file: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("saving project: replacing file: %w", err)
	}
	m.seen, m.sum = true, sha256.Sum256(data)
	return nil
}

// readIfExists returns the file contents, or nil if the file does not exist.
func readIfExists(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return data, err
}

func encodeProjectFile(pf ProjectFile, format Format) ([]byte, error) {
	switch format {
	case FormatCBOR:
		data, err := cborEnc.Marshal(pf)
		if err != nil {
			return nil, fmt.Errorf("marshaling CBOR: %w", err)
		}
		return data, nil
	default:
		data, err := yaml.Marshal(&pf)
		if err != nil {
			return nil, fmt.Errorf("marshaling YAML: %w", err)
		}
		return data, nil
	}
}

func decodeProjectFile(data []byte, format Format) (ProjectFile, error) {
	var pf ProjectFile
	switch format {
	case FormatCBOR:
		if err := cborDec.Unmarshal(data, &pf); err != nil {
			return pf, fmt.Errorf("parsing CBOR: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &pf); err != nil {
			return pf, fmt.Errorf("parsing YAML: %w", err)
		}
	}
	return pf, nil
}

// ConvertProjectFile rewrites the project at src into dst, choosing each
// encoding from the file extension.
func ConvertProjectFile(src, dst string) error {
	p, err := NewProjectFileManager(src).Load()
	if err != nil {
		return err
	}
	return NewProjectFileManager(dst).Save(p)
}
