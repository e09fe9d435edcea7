package driver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"go.uber.org/zap"
)

// GitFetcher clones fixture sources into a cache, one directory per commit.
type GitFetcher struct {
	cacheDir string
	logger   *zap.Logger
}

func NewGitFetcher(cacheDir string, logger *zap.Logger) *GitFetcher {
	if cacheDir == "" {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GitFetcher{cacheDir: cacheDir, logger: logger}
}

// CheckoutDir is where the given commit of source name is kept.
func (g *GitFetcher) CheckoutDir(name, commit string) string {
	return filepath.Join(g.cacheDir, "src", sanitizePathSegment(name), sanitizePathSegment(commit))
}

// Fetch checks out the source and returns its lock entry. When pin is set
// its commit is used instead of resolving the revision again.
func (g *GitFetcher) Fetch(ctx context.Context, name string, spec *SourceSpec, pin *LockedSource) (*LockedSource, error) {
	if g == nil {
		return nil, errors.New("git fetcher unavailable")
	}
	url := strings.TrimSpace(spec.Git)
	if url == "" {
		return nil, fmt.Errorf("source %q: git URL required", name)
	}
	revision, descriptor, err := gitRevisionFromSpec(spec)
	if err != nil {
		return nil, fmt.Errorf("source %q: %w", name, err)
	}
	if pin != nil && pin.Commit != "" {
		revision = plumbing.Revision(pin.Commit)
	}

	commit, err := g.ensureCheckout(ctx, name, url, revision)
	if err != nil {
		return nil, fmt.Errorf("source %q: %w", name, err)
	}
	checksum, err := dirChecksum(g.CheckoutDir(name, commit))
	if err != nil {
		return nil, fmt.Errorf("source %q: checksum: %w", name, err)
	}
	if pin != nil && pin.Commit == commit && pin.Checksum != "" && pin.Checksum != checksum {
		return nil, fmt.Errorf("source %q: checksum mismatch for %s: locked %s, got %s", name, commit, pin.Checksum, checksum)
	}
	g.logger.Debug("fetched source",
		zap.String("source", name),
		zap.String("revision", string(revision)),
		zap.String("commit", commit))
	return &LockedSource{
		Name:     name,
		Git:      url,
		Version:  gitPinnedVersion(descriptor, commit),
		Commit:   commit,
		Checksum: checksum,
	}, nil
}

func (g *GitFetcher) ensureCheckout(ctx context.Context, name, url string, revision plumbing.Revision) (string, error) {
	if plumbing.IsHash(string(revision)) {
		if _, err := os.Stat(g.CheckoutDir(name, string(revision))); err == nil {
			return string(revision), nil
		}
	}

	baseDir := filepath.Join(g.cacheDir, "src", sanitizePathSegment(name))
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", err
	}
	tmpDir, err := os.MkdirTemp(baseDir, "git-fetch-*")
	if err != nil {
		return "", err
	}
	if err := os.RemoveAll(tmpDir); err != nil {
		return "", err
	}

	repo, err := git.PlainCloneContext(ctx, tmpDir, false, &git.CloneOptions{URL: url})
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", fmt.Errorf("git clone %s: %w", url, err)
	}
	hash, err := repo.ResolveRevision(revision)
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", fmt.Errorf("resolve revision %s: %w", revision, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", err
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", fmt.Errorf("git checkout %s: %w", revision, err)
	}

	commit := hash.String()
	targetDir := g.CheckoutDir(name, commit)
	if _, err := os.Stat(targetDir); err == nil {
		_ = os.RemoveAll(tmpDir)
		return commit, nil
	}
	if err := os.Rename(tmpDir, targetDir); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", err
	}
	return commit, nil
}

func gitRevisionFromSpec(spec *SourceSpec) (plumbing.Revision, string, error) {
	if rev := strings.TrimSpace(spec.Rev); rev != "" {
		return plumbing.Revision(rev), rev, nil
	}
	if tag := strings.TrimSpace(spec.Tag); tag != "" {
		return plumbing.Revision("refs/tags/" + tag), tag, nil
	}
	if branch := strings.TrimSpace(spec.Branch); branch != "" {
		return plumbing.Revision("refs/remotes/origin/" + branch), branch, nil
	}
	return "", "", fmt.Errorf("git sources require rev, tag, or branch")
}

func gitPinnedVersion(descriptor, commit string) string {
	if descriptor == "" || descriptor == commit {
		return commit
	}
	return fmt.Sprintf("%s@%s", descriptor, commit)
}

// dirChecksum hashes every file under path except the .git directory, in
// walk order, as relative name followed by contents.
func dirChecksum(path string) (string, error) {
	h := xxhash.New()
	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(path, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		_, _ = h.WriteString(filepath.ToSlash(rel))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("xxh64:%016x", h.Sum64()), nil
}

func sanitizePathSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return "head"
	}
	var b strings.Builder
	for _, r := range segment {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
