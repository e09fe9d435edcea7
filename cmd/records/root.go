package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"able/records-go/pkg/config"
	"able/records-go/pkg/driver"
	"able/records-go/pkg/fixtures"
	"able/records-go/pkg/logging"
)

type app struct {
	args   config.Args
	cfg    config.Config
	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:           "records",
		Short:         "Ordered maps and scoped records scenario runner",
		Version:       cliToolVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	config.ProcessArgs(&a.cfg, &a.args, root)

	root.AddCommand(a.runCmd(), a.depsCmd(), &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(a.stdout, cliToolVersion)
		},
	})
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.args.ConfigPath)
	if err != nil {
		return err
	}
	a.cfg = *cfg
	if err := logging.SetGlobalLogger(cfg.LogLevel, cfg.LogLevelFormat, cfg.LogFormat, cfg.LogFilePath); err != nil {
		return fmt.Errorf("logging.SetGlobalLogger: %w", err)
	}
	return nil
}

func (a *app) runCmd() *cobra.Command {
	var manifestPath string
	var quiet bool
	cmd := &cobra.Command{
		Use:   "run [paths...]",
		Short: "Run fixture files or directories",
		Long: `Run executes every fixture under the given files or directories. With no
paths the nearest records.yml is used: its fixture paths plus every installed
source.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := args
			if len(paths) == 0 {
				var err error
				paths, err = a.manifestFixturePaths(manifestPath)
				if err != nil {
					return err
				}
			}
			return a.runFixtures(paths, quiet)
		},
	}
	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "Path to records.yml")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print display output")
	return cmd
}

func (a *app) runFixtures(paths []string, quiet bool) error {
	loaded, err := fixtures.LoadFixtures(paths...)
	if err != nil {
		return err
	}
	if len(loaded) == 0 {
		return fmt.Errorf("no fixtures found in %v", paths)
	}
	var out io.Writer
	if !quiet {
		out = a.stdout
	}
	runner := fixtures.NewRunner(zap.L().Named(logging.NameFixtureRunner), out)
	failed := 0
	for _, res := range runner.RunAll(loaded) {
		if res.Passed() {
			fmt.Fprintf(a.stdout, "ok   %s (%d steps)\n", res.Name, res.Steps)
			continue
		}
		failed++
		fmt.Fprintf(a.stdout, "FAIL %s (%s)\n", res.Name, res.Path)
		for _, f := range res.Failures {
			fmt.Fprintf(a.stdout, "    %s\n", f)
		}
	}
	fmt.Fprintf(a.stdout, "%d fixtures, %d failed\n", len(loaded), failed)
	if failed > 0 {
		return errFixturesFailed
	}
	return nil
}

func (a *app) manifestFixturePaths(manifestPath string) ([]string, error) {
	manifest, err := a.loadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	lock, err := loadOrCreateLockfile(manifest)
	if err != nil {
		return nil, err
	}
	installer, err := a.installer()
	if err != nil {
		return nil, err
	}
	return installer.FixturePaths(manifest, lock)
}

func (a *app) depsCmd() *cobra.Command {
	deps := &cobra.Command{
		Use:   "deps",
		Short: "Manage fixture sources",
	}
	var manifestPath string
	install := &cobra.Command{
		Use:   "install",
		Short: "Fetch fixture sources and pin them in records.lock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.installDeps(cmd.Context(), manifestPath)
		},
	}
	install.Flags().StringVarP(&manifestPath, "manifest", "m", "", "Path to records.yml")
	deps.AddCommand(install)
	return deps
}

func (a *app) installDeps(ctx context.Context, manifestPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	manifest, err := a.loadManifest(manifestPath)
	if err != nil {
		return err
	}
	lock, err := loadOrCreateLockfile(manifest)
	if err != nil {
		return err
	}
	installer, err := a.installer()
	if err != nil {
		return err
	}
	changed, err := installer.Install(ctx, manifest, lock)
	if err != nil {
		return err
	}
	if !changed {
		fmt.Fprintf(a.stdout, "%s is up to date\n", driver.LockfileName)
		return nil
	}
	if err := driver.WriteLockfile(lock, manifest.LockfilePath()); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "wrote %s (%d sources)\n", manifest.LockfilePath(), len(lock.Sources))
	return nil
}

func (a *app) loadManifest(path string) (*driver.Manifest, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		path, err = driver.FindManifest(wd)
		if err != nil {
			return nil, err
		}
	}
	return driver.LoadManifest(path)
}

func (a *app) installer() (*driver.Installer, error) {
	cacheDir, err := a.cfg.CacheDir()
	if err != nil {
		return nil, err
	}
	return driver.NewInstaller(cacheDir, zap.L().Named(logging.NameInstaller)), nil
}

func loadOrCreateLockfile(manifest *driver.Manifest) (*driver.Lockfile, error) {
	lock, err := driver.LoadLockfile(manifest.LockfilePath())
	if errors.Is(err, fs.ErrNotExist) {
		return driver.NewLockfile(manifest.Name, cliToolVersion), nil
	}
	return lock, err
}
