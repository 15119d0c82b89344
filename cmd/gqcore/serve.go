package main

import (
	"os"
	"os/signal"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/gqcore/gqcore/cmd"
	"github.com/gqcore/gqcore/pkg/cache"
	"github.com/gqcore/gqcore/pkg/config"
	"github.com/gqcore/gqcore/pkg/editorlist"
	"github.com/gqcore/gqcore/pkg/filedata"
	"github.com/gqcore/gqcore/pkg/imageloader"
	"github.com/gqcore/gqcore/pkg/logging"
	"github.com/gqcore/gqcore/pkg/metastore"
	"github.com/gqcore/gqcore/pkg/notify"
	"github.com/gqcore/gqcore/pkg/remote"
	"github.com/gqcore/gqcore/pkg/watch"
)

func serveMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 0 {
		return errors.New("unexpected arguments provided")
	}

	logger := logging.NewLogger(logLevel(), os.Stderr)

	configPath, err := config.Path()
	if err != nil {
		return errors.Wrap(err, "unable to determine configuration path")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return errors.Wrap(err, "unable to load configuration")
	}

	cacheLock, err := acquireCacheLock(cfg.Cache.Root)
	if err != nil {
		return err
	}
	defer cacheLock.Close()
	defer cacheLock.Unlock()

	bus := notify.NewBus()
	metaStore := metastore.NewStore(filepath.Join(cfg.Cache.Root, "metastore"))
	registry := filedata.NewRegistry(bus, logger.Sublogger("registry"), metaStore)
	cacheLayout := cfg.CacheLayout()
	cacheStore := cache.NewStore(cacheLayout)
	loader := imageloader.NewFake()

	editors := editorlist.New()
	editorsDir := filepath.Join(filepath.Dir(configPath), "editors")
	if err := editors.Load(editorsDir); err != nil {
		logger.Warnf("unable to load editor actions: %s", err.Error())
	}

	server := remote.New(registry, metaStore, cacheStore, cacheLayout, loader, editors, logger.Sublogger("remote"))

	watcher, err := watch.New(bus, logger.Sublogger("watch"), watch.DefaultDebounce)
	if err != nil {
		return errors.Wrap(err, "unable to start directory watcher")
	}
	defer watcher.Close()
	server.Watcher = watcher

	bus.Subscribe(notify.PriorityNormal, nil, func(subject interface{}, kinds notify.EventKinds, data interface{}) {
		if kinds&notify.Reread == 0 {
			return
		}
		if dir, ok := subject.(string); ok {
			server.RefreshDirectory(dir)
		}
	})

	socketPath := cfg.SocketPath()
	if socketPath == "" {
		socketPath, err = remote.SocketPath()
		if err != nil {
			return errors.Wrap(err, "unable to determine remote socket path")
		}
	}
	listener, err := remote.NewListener(socketPath)
	if err != nil {
		if err == remote.ErrAlreadyRunning {
			return errors.New("a gqcore server is already running for this user")
		}
		return errors.Wrap(err, "unable to create remote listener")
	}
	defer listener.Close()

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Serve(listener)
	}()

	signalTermination := make(chan os.Signal, 1)
	signal.Notify(signalTermination, cmd.TerminationSignals...)

	select {
	case sig := <-signalTermination:
		return errors.Errorf("terminated by signal: %s", sig)
	case <-server.QuitRequested():
		return nil
	case err := <-serverErrors:
		return errors.Wrap(err, "premature server termination")
	}
}

// logLevel reads GQCORE_LOG_LEVEL, defaulting to "info" when unset or
// unrecognized.
func logLevel() logging.Level {
	if name := os.Getenv("GQCORE_LOG_LEVEL"); name != "" {
		if level, ok := logging.NameToLevel(name); ok {
			return level
		}
	}
	return logging.LevelInfo
}

var serveCommand = &cobra.Command{
	Use:   "serve",
	Short: "Runs the gqcore remote-control server",
	Run:   cmd.Mainify(serveMain),
}

func init() {
	flags := serveCommand.Flags()
	flags.SortFlags = false
	flags.BoolP("help", "h", false, "Show help information")
}
