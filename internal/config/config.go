// Package config loads the optional .mission/config.yml settings file.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	mcerrors "missionctl/internal/errors"
	"missionctl/internal/task"
)

const (
	// Dir is the mission control directory at the project root.
	Dir = ".mission"

	// FileName is the settings file inside Dir.
	FileName = "config.yml"

	defaultTasksFile   = "tasks.jsonl"
	defaultArchiveFile = "archive.jsonl"
)

// Config holds the tunable settings. Every field has a working default, so
// a missing config file is not an error.
type Config struct {
	TasksFile       string `yaml:"tasks_file"`
	ArchiveFile     string `yaml:"archive_file"`
	IDPrefix        string `yaml:"id_prefix"`
	DefaultPriority int    `yaml:"default_priority"`
}

// Default returns the configuration used when no config file exists.
func Default() Config {
	return Config{
		TasksFile:       defaultTasksFile,
		ArchiveFile:     defaultArchiveFile,
		IDPrefix:        task.DefaultIDPrefix,
		DefaultPriority: task.DefaultPriority,
	}
}

// Load reads Dir/FileName under root. Missing file yields Default; a file
// that exists but doesn't parse, or that sets an invalid value, is an error
// rather than a silent fallback.
func Load(root string) (Config, error) {
	cfg := Default()

	path := filepath.Join(root, Dir, FileName)
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, mcerrors.PersistenceError{Op: "load", Path: path, Err: err}
	}

	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return cfg, mcerrors.PersistenceError{Op: "load", Path: path, Err: err}
	}

	if cfg.TasksFile == "" {
		cfg.TasksFile = defaultTasksFile
	}
	if cfg.ArchiveFile == "" {
		cfg.ArchiveFile = defaultArchiveFile
	}
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = task.DefaultIDPrefix
	}
	if cfg.DefaultPriority == 0 {
		cfg.DefaultPriority = task.DefaultPriority
	}
	if !task.IsValidPriority(cfg.DefaultPriority) {
		return cfg, mcerrors.ValidationError{Field: "default_priority", Reason: "must be between 1 and 10"}
	}
	return cfg, nil
}

// TasksPath returns the absolute path of the active store file.
func (c Config) TasksPath(root string) string {
	return filepath.Join(root, Dir, c.TasksFile)
}

// ArchivePath returns the absolute path of the archive file.
func (c Config) ArchivePath(root string) string {
	return filepath.Join(root, Dir, c.ArchiveFile)
}
