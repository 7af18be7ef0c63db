package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
	"github.com/phuslu/log"
)

const reloadDebounce = 300 * time.Millisecond

// Manager keeps the effective configuration of a long-running process in
// step with its TOML file. Only file-level settings are ever written back;
// environment overrides and API keys stay in the environment.
type Manager struct {
	path string
	root string

	mu       sync.RWMutex
	cfg      Config
	watching bool
}

// NewManager opens the settings file at path, seeding it from seed (or the
// defaults) when it does not exist yet. Directory defaults are rooted at
// seed.ProjectDir, or the working directory like Load.
func NewManager(path string, seed *Config) (*Manager, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	root, _ := os.Getwd()
	if seed != nil && seed.ProjectDir != "" {
		root = seed.ProjectDir
	}
	m := &Manager{path: path, root: root}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		base := m.defaults()
		if seed != nil {
			base = *seed
		}
		if err := base.Validate(); err != nil {
			return nil, err
		}
		if err := writeConfigFile(path, base); err != nil {
			return nil, fmt.Errorf("write initial config: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat config: %w", err)
	}

	cfg, err := m.effective()
	if err != nil {
		return nil, err
	}
	m.cfg = cfg
	return m, nil
}

func (m *Manager) Path() string {
	return m.path
}

// Current returns the last configuration that passed validation.
func (m *Manager) Current() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

func (m *Manager) defaults() Config {
	return *DefaultConfigWithRoot(m.root)
}

func (m *Manager) fileConfig() (Config, error) {
	cfg := m.defaults()
	if err := loadConfigFromFile(m.path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// effective layers the environment over the file, then validates.
func (m *Manager) effective() (Config, error) {
	cfg, err := m.fileConfig()
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	cfg.loadFromEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Keys lists the settings that can be changed with Set.
func Keys() []string {
	doc, err := configDocument(*DefaultConfigWithRoot(""))
	if err != nil {
		return nil
	}
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set changes one file-level setting and persists it. The value is parsed
// according to the type of the setting; lists are comma separated. The
// file is left untouched when the result does not validate.
func (m *Manager) Set(key, value string) (Config, error) {
	fileCfg, err := m.fileConfig()
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	doc, err := configDocument(fileCfg)
	if err != nil {
		return Config{}, err
	}
	current, ok := doc[key]
	if !ok {
		return Config{}, fmt.Errorf("unknown config key %q", key)
	}
	parsed, err := parseSetting(current, value)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", key, err)
	}
	doc[key] = parsed

	data, err := toml.Marshal(doc)
	if err != nil {
		return Config{}, fmt.Errorf("encode config: %w", err)
	}
	if err := toml.Unmarshal(data, &fileCfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", key, err)
	}

	next := fileCfg
	next.loadFromEnv()
	if err := next.Validate(); err != nil {
		return Config{}, err
	}
	if err := writeConfigFile(m.path, fileCfg); err != nil {
		return Config{}, err
	}

	m.mu.Lock()
	m.cfg = next
	m.mu.Unlock()
	return next, nil
}

func configDocument(cfg Config) (map[string]any, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	doc := map[string]any{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return doc, nil
}

func parseSetting(current any, value string) (any, error) {
	switch current.(type) {
	case bool:
		return strconv.ParseBool(value)
	case int64:
		return strconv.ParseInt(value, 10, 64)
	case float64:
		return strconv.ParseFloat(value, 64)
	case []any:
		var items []any
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return items, nil
	default:
		return value, nil
	}
}

// Watch calls onChange with every new valid configuration written to the
// file until ctx is done. Invalid edits are logged and skipped.
func (m *Manager) Watch(ctx context.Context, onChange func(Config)) error {
	m.mu.Lock()
	if m.watching {
		m.mu.Unlock()
		return errors.New("config is already being watched")
	}
	m.watching = true
	m.mu.Unlock()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Editors replace files on save, so the directory is watched.
	if err := watcher.Add(filepath.Dir(m.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}

	go m.watchLoop(ctx, watcher, onChange)
	return nil
}

func (m *Manager) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, onChange func(Config)) {
	defer watcher.Close()

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	reload := func() {
		if cfg, changed := m.reload(); changed {
			onChange(cfg)
		}
	}

	for {
		select {
		case evt, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(evt.Name) != filepath.Clean(m.path) {
				continue
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDebounce, reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Str("path", m.path).Msg("config watcher error")
		case <-ctx.Done():
			return
		}
	}
}

// reload re-reads the file and reports whether the effective config changed.
func (m *Manager) reload() (Config, bool) {
	cfg, err := m.effective()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warn().Str("path", m.path).Msg("config file removed, keeping current settings")
		} else {
			log.Warn().Err(err).Str("path", m.path).Msg("reloaded config rejected")
		}
		return Config{}, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if reflect.DeepEqual(m.cfg, cfg) {
		return cfg, false
	}
	m.cfg = cfg
	return cfg, true
}

// writeConfigFile replaces path atomically. Fields tagged toml:"-" (the API
// keys) are never written.
func writeConfigFile(path string, cfg Config) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "cfg-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	cleanup := func() {
		tmpFile.Close()
		_ = os.Remove(tmpFile.Name())
	}
	encoder := toml.NewEncoder(tmpFile)
	encoder.SetIndentTables(true)
	if err := encoder.Encode(&cfg); err != nil {
		cleanup()
		return fmt.Errorf("encode config: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("flush config: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpFile.Name())
		return fmt.Errorf("close temp config: %w", err)
	}
	return os.Rename(tmpFile.Name(), path)
}
