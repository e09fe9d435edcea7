package driver

import (
	"context"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"able/records-go/pkg/logging"
)

// Installer brings the cache and the lockfile in line with a manifest.
type Installer struct {
	fetcher *GitFetcher
	logger  *zap.Logger
}

func NewInstaller(cacheDir string, logger *zap.Logger) *Installer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Installer{fetcher: NewGitFetcher(cacheDir, logger.Named(logging.NameFetcher)), logger: logger}
}

// Install fetches every source of m and pins it in lock. A source already
// locked against the same URL and revision is fetched at its pinned commit.
// Entries for sources no longer in m are dropped. Failures are collected so
// one bad source does not hide the others.
func (i *Installer) Install(ctx context.Context, m *Manifest, lock *Lockfile) (bool, error) {
	changed := lock.Prune(m.Sources)
	var errs error
	for _, name := range m.SourceNames() {
		spec := m.Sources[name]
		pin := lock.Find(name)
		if pin != nil && !pinMatches(pin, spec) {
			pin = nil
		}
		locked, err := i.fetcher.Fetch(ctx, name, spec, pin)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if lock.Upsert(locked) {
			changed = true
			i.logger.Info("pinned source", zap.String("source", name), zap.String("version", locked.Version))
		}
	}
	return changed, errs
}

// FixturePaths lists the manifest's local fixture paths followed by the
// checkout of every locked source.
func (i *Installer) FixturePaths(m *Manifest, lock *Lockfile) ([]string, error) {
	paths := m.FixturePaths()
	var errs error
	for _, name := range m.SourceNames() {
		locked := lock.Find(name)
		if locked == nil {
			errs = multierr.Append(errs, errSourceNotInstalled(name))
			continue
		}
		dir := i.fetcher.CheckoutDir(name, locked.Commit)
		if sub := m.Sources[name].Subdir; sub != "" {
			dir = filepath.Join(dir, sub)
		}
		paths = append(paths, dir)
	}
	if errs != nil {
		return nil, errs
	}
	return paths, nil
}

func pinMatches(pin *LockedSource, spec *SourceSpec) bool {
	if pin.Git != spec.Git {
		return false
	}
	_, descriptor, err := gitRevisionFromSpec(spec)
	if err != nil {
		return false
	}
	return pin.Version == gitPinnedVersion(descriptor, pin.Commit)
}
