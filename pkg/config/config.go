// Package config implements gqcore's ambient configuration: a single
// YAML file controlling the cache layout, thumbnail rendering limits,
// file filtering, and the remote-control socket path.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gqcore/gqcore/pkg/cache"
	"github.com/gqcore/gqcore/pkg/fsutil"
	"github.com/gqcore/gqcore/pkg/gqerrors"
)

// fileName is the configuration file's name under gqcore's data
// directory.
const fileName = "config.yaml"

// Configuration is the top-level, YAML-decoded configuration object.
type Configuration struct {
	Cache  CacheConfiguration  `yaml:"cache"`
	Remote RemoteConfiguration `yaml:"remote"`
	Filter FilterConfiguration `yaml:"filter"`
}

// CacheConfiguration controls where and how cache files are stored.
type CacheConfiguration struct {
	Root string `yaml:"root"`

	ThumbMaxWidth  int `yaml:"thumb_max_width"`
	ThumbMaxHeight int `yaml:"thumb_max_height"`

	CacheInDirs bool `yaml:"cache_in_dirs"`
	Shared      bool `yaml:"shared"`
}

// RemoteConfiguration controls the remote-control server's socket.
type RemoteConfiguration struct {
	SocketPath string `yaml:"socket_path"`
}

// FilterConfiguration controls which files a directory walk considers.
type FilterConfiguration struct {
	Extensions []string `yaml:"extensions"`
	Exclude    []string `yaml:"exclude"`
}

// Default returns the configuration used when no file is present.
func Default() *Configuration {
	return &Configuration{
		Cache: CacheConfiguration{
			ThumbMaxWidth:  256,
			ThumbMaxHeight: 256,
		},
	}
}

// Path returns the configuration file's path under gqcore's data
// directory.
func Path() (string, error) {
	return fsutil.Subpath(false, fileName)
}

// Load reads and decodes the configuration file at path. A missing file
// is not an error: it returns Default().
func Load(path string) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	} else if err != nil {
		return nil, gqerrors.Wrap(gqerrors.Io, fmt.Sprintf("read configuration file '%s'", path), err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, gqerrors.Wrap(gqerrors.ProtocolError, fmt.Sprintf("parse configuration file '%s'", path), err)
	}
	return config, nil
}

// Save marshals config and writes it to path, replacing any existing
// file atomically: a temporary file is written and renamed into place,
// so a crash mid-write never leaves a half-written configuration file
// behind.
func Save(path string, config *Configuration) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return gqerrors.Wrap(gqerrors.Internal, "marshal configuration", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return gqerrors.Wrap(gqerrors.Io, "create configuration directory", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return gqerrors.Wrap(gqerrors.Io, fmt.Sprintf("write configuration file '%s'", tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return gqerrors.Wrap(gqerrors.Io, fmt.Sprintf("commit configuration file '%s'", path), err)
	}
	return nil
}

// CacheLayout translates the cache configuration into a cache.Layout,
// rooting all three kinds under Cache.Root.
func (c *Configuration) CacheLayout() cache.Layout {
	layout := cache.Layout{
		ThumbRoot: filepath.Join(c.Cache.Root, "thumbnails"),
		SimRoot:   filepath.Join(c.Cache.Root, "sim"),
		MetaRoot:  filepath.Join(c.Cache.Root, "metadata"),
	}
	if c.Cache.CacheInDirs {
		layout.ThumbMode = cache.ModeCacheInDirs
		layout.SimMode = cache.ModeCacheInDirs
	} else if c.Cache.Shared {
		layout.ThumbMode = cache.ModeStandardShared
	}
	return layout
}

// SocketPath returns the configured remote-control socket path override,
// or "" when none is set (the caller should fall back to the default
// runtime-directory path).
func (c *Configuration) SocketPath() string {
	return c.Remote.SocketPath
}
