// cmd/scenegl/config.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mmp/scenegl/pkg/log"
	"github.com/mmp/scenegl/pkg/platform"
	"github.com/mmp/scenegl/pkg/render"
	"github.com/mmp/scenegl/pkg/util"
)

const CurrentConfigVersion = 1

type Config struct {
	platform.Config

	Version  int           `json:"version"`
	Renderer render.Config `json:"renderer"`

	// LogLevel is used unless a level is given on the command line.
	LogLevel string `json:"log_level"`

	// TextureDir, if set, is searched for the demo scene's textures;
	// procedural textures are used otherwise.
	TextureDir string `json:"texture_dir"`
	// ClearColor is the background color, as RGBA.
	ClearColor [4]float32 `json:"clear_color"`
}

func configFilePath(lg *log.Logger) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		lg.Errorf("Unable to find user config dir: %v", err)
		dir = "."
	}

	dir = filepath.Join(dir, "scenegl")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		lg.Errorf("%s: unable to make directory for config file: %v", dir, err)
	}

	return filepath.Join(dir, "config.json")
}

func getDefaultConfig() *Config {
	return &Config{
		Config: platform.Config{
			InitialWindowSize:     [2]int{1280, 800},
			InitialWindowPosition: [2]int{100, 100},
			VSync:                 true,
		},
		Version:    CurrentConfigVersion,
		Renderer:   render.DefaultConfig(),
		ClearColor: [4]float32{0.1, 0.1, 0.12, 1},
	}
}

// LoadOrMakeDefaultConfig returns the configuration saved in the given
// file, or in the user's config directory if path is empty. Defaults are
// used for anything missing from the file; if the file can't be read or
// doesn't validate, the returned error describes why and the default
// configuration is returned.
func LoadOrMakeDefaultConfig(path string, lg *log.Logger) (*Config, error) {
	if path == "" {
		path = configFilePath(lg)
	}
	lg.Infof("Loading config from: %s", path)

	config := getDefaultConfig()
	if err := util.LoadJSON(path, config); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return config, nil
		}
		return getDefaultConfig(), err
	}

	if config.Version < CurrentConfigVersion {
		lg.Infof("Upgrading config from version %d", config.Version)
		config.Version = CurrentConfigVersion
	}

	var e util.ErrorLogger
	config.Validate(&e)
	if e.HaveErrors() {
		return getDefaultConfig(), e.Err()
	}
	return config, nil
}

func (c *Config) Validate(e *util.ErrorLogger) {
	c.Renderer.Validate(e)

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		e.Error(err)
	}

	e.Push("window")
	if c.InitialWindowSize[0] < 0 || c.InitialWindowSize[1] < 0 {
		e.ErrorString("initial_window_size %v must not be negative", c.InitialWindowSize)
	}
	e.Pop()

	if c.TextureDir != "" {
		if fi, err := os.Stat(c.TextureDir); err != nil {
			e.Error(err)
		} else if !fi.IsDir() {
			e.ErrorString("texture_dir %q is not a directory", c.TextureDir)
		}
	}
	for _, v := range c.ClearColor {
		if v < 0 || v > 1 {
			e.ErrorString("clear_color %v components must be between 0 and 1", c.ClearColor)
			break
		}
	}
}

func (c *Config) Save(path string, lg *log.Logger) error {
	if path == "" {
		path = configFilePath(lg)
	}
	lg.Infof("Saving config to: %s", path)
	return util.SaveJSON(path, c)
}
