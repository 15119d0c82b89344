package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/gqcore/gqcore/cmd"
	"github.com/gqcore/gqcore/pkg/cache"
	"github.com/gqcore/gqcore/pkg/config"
	"github.com/gqcore/gqcore/pkg/imageloader"
	"github.com/gqcore/gqcore/pkg/maintenance"
)

var cacheCommand = &cobra.Command{
	Use:   "cache",
	Short: "Renders, cleans, or clears gqcore's thumbnail and fingerprint caches",
}

func loadCacheLayout() (cache.Layout, error) {
	cfg, err := config.Load(mustConfigPath())
	if err != nil {
		return cache.Layout{}, errors.Wrap(err, "unable to load configuration")
	}
	return cfg.CacheLayout(), nil
}

// cacheRoot returns the configured cache root, or the default if the
// configuration can't be loaded (acquireCacheLock will surface any real
// problem when it tries to create the directory).
func cacheRoot() string {
	cfg, err := config.Load(mustConfigPath())
	if err != nil {
		cfg = config.Default()
	}
	return cfg.Cache.Root
}

func cacheRenderMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 1 {
		return errors.New("expected exactly one directory argument")
	}
	layout, err := loadCacheLayout()
	if err != nil {
		return err
	}
	lock, err := acquireCacheLock(cacheRoot())
	if err != nil {
		return err
	}
	defer lock.Close()
	defer lock.Unlock()
	store := cache.NewStore(layout)
	loader := imageloader.NewFake()

	var task *maintenance.Task
	if cacheRenderConfiguration.similarity {
		task = maintenance.NewSim(store, loader, arguments[0], nil, nil)
	} else {
		task = maintenance.NewRender(store, loader, arguments[0], nil, nil)
	}
	maintenance.RunToCompletion(task, 1<<20)
	return nil
}

func cacheCleanMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 1 {
		return errors.New("expected exactly one directory argument")
	}
	layout, err := loadCacheLayout()
	if err != nil {
		return err
	}
	lock, err := acquireCacheLock(cacheRoot())
	if err != nil {
		return err
	}
	defer lock.Close()
	defer lock.Unlock()
	store := cache.NewStore(layout)

	kind := cache.Thumb
	if cacheCleanConfiguration.similarity {
		kind = cache.Sim
	} else if cacheCleanConfiguration.metadata {
		kind = cache.Metadata
	}

	task := maintenance.NewPurgeOrphans(store, kind, arguments[0], nil)
	maintenance.RunToCompletion(task, 1<<20)
	return nil
}

func cacheClearMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 1 {
		return errors.New("expected exactly one directory argument")
	}
	lock, err := acquireCacheLock(cacheRoot())
	if err != nil {
		return err
	}
	defer lock.Close()
	defer lock.Unlock()
	task := maintenance.NewClear(arguments[0], nil)
	maintenance.RunToCompletion(task, 1<<20)
	return nil
}

var cacheRenderCommand = &cobra.Command{
	Use:   "render DIRECTORY",
	Short: "Populates the thumbnail (or similarity fingerprint) cache for a directory tree",
	Run:   cmd.Mainify(cacheRenderMain),
}

var cacheCleanCommand = &cobra.Command{
	Use:   "clean DIRECTORY",
	Short: "Removes cache entries whose source file no longer exists",
	Run:   cmd.Mainify(cacheCleanMain),
}

var cacheClearCommand = &cobra.Command{
	Use:   "clear DIRECTORY",
	Short: "Unconditionally removes every cache entry under a directory tree",
	Run:   cmd.Mainify(cacheClearMain),
}

var cacheRenderConfiguration struct {
	similarity bool
}

var cacheCleanConfiguration struct {
	similarity bool
	metadata   bool
}

func init() {
	renderFlags := cacheRenderCommand.Flags()
	renderFlags.SortFlags = false
	renderFlags.BoolVar(&cacheRenderConfiguration.similarity, "similarity", false, "Compute similarity fingerprints instead of thumbnails")
	renderFlags.BoolP("help", "h", false, "Show help information")

	cleanFlags := cacheCleanCommand.Flags()
	cleanFlags.SortFlags = false
	cleanFlags.BoolVar(&cacheCleanConfiguration.similarity, "similarity", false, "Clean the similarity-fingerprint cache instead of thumbnails")
	cleanFlags.BoolVar(&cacheCleanConfiguration.metadata, "metadata", false, "Clean the metadata cache instead of thumbnails")
	cleanFlags.BoolP("help", "h", false, "Show help information")

	cacheClearCommand.Flags().BoolP("help", "h", false, "Show help information")

	cacheCommand.AddCommand(cacheRenderCommand, cacheCleanCommand, cacheClearCommand)
}
