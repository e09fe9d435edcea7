package driver

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Lockfile models the records.lock contents.
type Lockfile struct {
	Path      string
	Root      string
	Generated string
	Tool      string
	Sources   []*LockedSource
}

// LockedSource pins one fixture source to a commit.
type LockedSource struct {
	Name     string `yaml:"name"`
	Git      string `yaml:"git"`
	Version  string `yaml:"version"`
	Commit   string `yaml:"commit"`
	Checksum string `yaml:"checksum"`
}

// NewLockfile constructs a lockfile with metadata seeded for the provided root.
func NewLockfile(root, tool string) *Lockfile {
	return &Lockfile{
		Root:      strings.TrimSpace(root),
		Generated: time.Now().UTC().Format(time.RFC3339),
		Tool:      strings.TrimSpace(tool),
		Sources:   []*LockedSource{},
	}
}

type lockfileDisk struct {
	Root      string          `yaml:"root"`
	Generated string          `yaml:"generated"`
	Tool      string          `yaml:"tool"`
	Sources   []*LockedSource `yaml:"sources"`
}

// LoadLockfile parses records.lock from disk.
func LoadLockfile(path string) (*Lockfile, error) {
	if path == "" {
		return nil, fmt.Errorf("lockfile: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("lockfile: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var raw lockfileDisk
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("lockfile: parse %s: %w", abs, err)
	}

	lock := &Lockfile{
		Path:      abs,
		Root:      raw.Root,
		Generated: raw.Generated,
		Tool:      raw.Tool,
		Sources:   raw.Sources,
	}
	lock.normalize()
	return lock, nil
}

// WriteLockfile serialises the lockfile back to disk.
func WriteLockfile(lock *Lockfile, path string) error {
	if lock == nil {
		return fmt.Errorf("lockfile: nil lockfile")
	}
	if path == "" {
		if lock.Path == "" {
			return fmt.Errorf("lockfile: missing path")
		}
		path = lock.Path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("lockfile: resolve %s: %w", path, err)
	}
	if lock.Generated == "" {
		lock.Generated = time.Now().UTC().Format(time.RFC3339)
	}
	lock.Path = abs
	lock.normalize()

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(lockfileDisk{
		Root:      lock.Root,
		Generated: lock.Generated,
		Tool:      lock.Tool,
		Sources:   lock.Sources,
	}); err != nil {
		return fmt.Errorf("lockfile: marshal %s: %w", abs, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("lockfile: encoder close: %w", err)
	}
	if err := os.WriteFile(abs, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("lockfile: write %s: %w", abs, err)
	}
	return nil
}

// Find returns the pinned entry for name, or nil.
func (l *Lockfile) Find(name string) *LockedSource {
	if l == nil {
		return nil
	}
	for _, src := range l.Sources {
		if src != nil && src.Name == name {
			return src
		}
	}
	return nil
}

// Upsert replaces the entry named like src, or adds it. It reports whether
// the lockfile changed.
func (l *Lockfile) Upsert(src *LockedSource) bool {
	for i, existing := range l.Sources {
		if existing == nil || existing.Name != src.Name {
			continue
		}
		if *existing == *src {
			return false
		}
		l.Sources[i] = src
		return true
	}
	l.Sources = append(l.Sources, src)
	l.normalize()
	return true
}

// Prune drops entries whose names are not in keep and reports whether any
// were removed.
func (l *Lockfile) Prune(keep map[string]*SourceSpec) bool {
	kept := l.Sources[:0]
	for _, src := range l.Sources {
		if src == nil {
			continue
		}
		if _, ok := keep[src.Name]; ok {
			kept = append(kept, src)
		}
	}
	changed := len(kept) != len(l.Sources)
	l.Sources = kept
	return changed
}

func (l *Lockfile) normalize() {
	if l == nil {
		return
	}
	l.Root = strings.TrimSpace(l.Root)
	l.Tool = strings.TrimSpace(l.Tool)
	sources := l.Sources[:0]
	for _, src := range l.Sources {
		if src == nil {
			continue
		}
		src.Name = strings.TrimSpace(src.Name)
		src.Git = strings.TrimSpace(src.Git)
		src.Version = strings.TrimSpace(src.Version)
		src.Commit = strings.TrimSpace(src.Commit)
		src.Checksum = strings.TrimSpace(src.Checksum)
		sources = append(sources, src)
	}
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Name < sources[j].Name
	})
	l.Sources = sources
}
