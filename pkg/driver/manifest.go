// Package driver reads records.yml suite manifests, pins remote fixture
// sources in records.lock and fetches them with git.
package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	ManifestName = "records.yml"
	LockfileName = "records.lock"
)

// Manifest represents the parsed contents of records.yml.
type Manifest struct {
	Path     string
	Name     string
	Fixtures []string
	Sources  map[string]*SourceSpec
}

// SourceSpec describes a git repository holding fixture files. Subdir
// narrows the fixtures to one directory of the checkout.
type SourceSpec struct {
	Git    string `yaml:"git"`
	Rev    string `yaml:"rev"`
	Tag    string `yaml:"tag"`
	Branch string `yaml:"branch"`
	Subdir string `yaml:"subdir"`
}

// ValidationError aggregates manifest validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "manifest: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("manifest validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

type manifestFile struct {
	Name     string                 `yaml:"name"`
	Fixtures []string               `yaml:"fixtures"`
	Sources  map[string]*SourceSpec `yaml:"sources"`
}

// LoadManifest parses records.yml from disk, returning a validated manifest.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw manifestFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest: %s is empty", absPath)
		}
		return nil, fmt.Errorf("manifest: parse %s: %w", absPath, err)
	}

	manifest := &Manifest{
		Path:     absPath,
		Name:     strings.TrimSpace(raw.Name),
		Fixtures: raw.Fixtures,
		Sources:  raw.Sources,
	}
	if manifest.Sources == nil {
		manifest.Sources = map[string]*SourceSpec{}
	}
	if err := manifest.validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}

// FindManifest walks up from dir looking for records.yml.
func FindManifest(dir string) (string, error) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(current, ManifestName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("manifest: no %s found from %s", ManifestName, dir)
		}
		current = parent
	}
}

func (m *Manifest) validate() error {
	var errs ValidationError
	if m.Name == "" {
		errs.Issues = append(errs.Issues, "name must be provided")
	}
	if len(m.Fixtures) == 0 && len(m.Sources) == 0 {
		errs.Issues = append(errs.Issues, "at least one fixture path or source is required")
	}
	for i, p := range m.Fixtures {
		if strings.TrimSpace(p) == "" {
			errs.Issues = append(errs.Issues, fmt.Sprintf("fixtures[%d] must be a non-empty path", i))
		}
	}
	for _, name := range m.SourceNames() {
		spec := m.Sources[name]
		if spec == nil {
			errs.Issues = append(errs.Issues, fmt.Sprintf("sources.%s: descriptor required", name))
			continue
		}
		spec.normalize()
		for _, issue := range spec.validate() {
			errs.Issues = append(errs.Issues, fmt.Sprintf("sources.%s: %s", name, issue))
		}
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

// SourceNames lists the source names in lexical order.
func (m *Manifest) SourceNames() []string {
	names := make([]string, 0, len(m.Sources))
	for name := range m.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FixturePaths resolves the local fixture paths against the manifest's
// directory.
func (m *Manifest) FixturePaths() []string {
	base := filepath.Dir(m.Path)
	out := make([]string, 0, len(m.Fixtures))
	for _, p := range m.Fixtures {
		if filepath.IsAbs(p) {
			out = append(out, filepath.Clean(p))
			continue
		}
		out = append(out, filepath.Join(base, p))
	}
	return out
}

// LockfilePath is the records.lock next to the manifest.
func (m *Manifest) LockfilePath() string {
	return filepath.Join(filepath.Dir(m.Path), LockfileName)
}

func (s *SourceSpec) normalize() {
	s.Git = strings.TrimSpace(s.Git)
	s.Rev = strings.TrimSpace(s.Rev)
	s.Tag = strings.TrimSpace(s.Tag)
	s.Branch = strings.TrimSpace(s.Branch)
	s.Subdir = strings.TrimSpace(s.Subdir)
}

func (s *SourceSpec) validate() []string {
	var issues []string
	if s.Git == "" {
		issues = append(issues, "git URL required")
	}
	set := 0
	for _, v := range []string{s.Rev, s.Tag, s.Branch} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		issues = append(issues, "exactly one of rev, tag or branch is required")
	}
	if filepath.IsAbs(s.Subdir) || strings.HasPrefix(filepath.Clean(s.Subdir), "..") {
		issues = append(issues, fmt.Sprintf("subdir %q must stay inside the repository", s.Subdir))
	}
	return issues
}
