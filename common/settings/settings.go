// Package settings stores local user preferences as a JSON file in the data directory. Both the
// main application process and helper tooling can read it; only the main process writes it.
package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/divvyapp/divvy/common/atomicfile"
	"github.com/divvyapp/divvy/internal"
)

// Keys for various settings.
const (
	LocaleKey          = "locale"
	DeviceIDKey        = "device_id"
	DataPathKey        = "data_path"
	LogLevelKey        = "log_level"
	BaseURLKey         = "base_url"
	RenewalIntervalKey = "renewal_interval"
	RememberedEmailKey = "remembered_email"
	filePathKey        = "file_path"

	settingsFileName = "local.json"
)

// Renewal runs ahead of the backend's 15 minute access credential lifetime.
const DefaultRenewalInterval = 14 * time.Minute

const DefaultBaseURL = "https://api.divvyapp.io/v1"

type settings struct {
	k           *koanf.Koanf
	parser      koanf.Parser
	readOnly    atomic.Bool
	initialized atomic.Bool
	watcher     *internal.FileWatcher
}

var k = &settings{
	k:      koanf.New("."),
	parser: json.Parser(),
}

var ErrReadOnly = errors.New("read-only")

// InitSettings initializes the settings store backed by a file in dataDir, creating the file with
// defaults if it does not exist.
func InitSettings(dataDir string) error {
	if k.initialized.Swap(true) {
		return nil
	}
	if err := initialize(dataDir); err != nil {
		k.initialized.Store(false)
		return fmt.Errorf("initializing settings: %w", err)
	}
	return nil
}

func initialize(dataDir string) error {
	k.k = koanf.New(".")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %v", err)
	}
	filePath := filepath.Join(dataDir, settingsFileName)
	if raw, err := atomicfile.ReadFile(filePath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("error loading settings file: %w", err)
		}
		if err := setDefaults(filePath); err != nil {
			return fmt.Errorf("error setting defaults: %w", err)
		}
	} else {
		if err := k.k.Load(rawbytes.Provider(raw), k.parser); err != nil {
			return fmt.Errorf("error parsing settings file: %w", err)
		}
		// the file may predate this key
		if GetString(filePathKey) == "" {
			if err := Set(filePathKey, filePath); err != nil {
				return err
			}
		}
	}
	return Set(DataPathKey, dataDir)
}

func setDefaults(filePath string) error {
	// The file path must be set first, as the save function needs it to write the file.
	if err := Set(filePathKey, filePath); err != nil {
		return fmt.Errorf("failed to set file path: %w", err)
	}
	if err := Set(LocaleKey, "en-US"); err != nil {
		return fmt.Errorf("failed to set default locale: %w", err)
	}
	if err := Set(BaseURLKey, DefaultBaseURL); err != nil {
		return fmt.Errorf("failed to set default base URL: %w", err)
	}
	if err := Set(RenewalIntervalKey, DefaultRenewalInterval.String()); err != nil {
		return fmt.Errorf("failed to set default renewal interval: %w", err)
	}
	return nil
}

// InitReadOnly initializes the settings in read-only mode from the given directory. InitReadOnly
// does not create a file if it does not exist and instead returns an error. In read-only mode, no
// changes to settings can be made. If watchFile is true, changes to the file on disk will be
// reloaded automatically.
func InitReadOnly(fileDir string, watchFile bool) (err error) {
	if k.initialized.Swap(true) {
		return nil
	}
	defer func() {
		if err != nil {
			k.initialized.Store(false)
		}
	}()
	k.readOnly.Store(true)
	path := filepath.Join(fileDir, settingsFileName)
	if err := reloadSettings(path); err != nil {
		return fmt.Errorf("initializing read-only settings: %w", err)
	}
	if watchFile {
		watcher := internal.NewFileWatcher(path, func() {
			if err := reloadSettings(path); err != nil {
				slog.Error("reloading settings file", "error", err)
			}
		})
		if err := watcher.Start(); err != nil {
			return fmt.Errorf("starting settings file watcher: %w", err)
		}
		k.watcher = watcher
	}
	return nil
}

func reloadSettings(path string) error {
	contents, err := atomicfile.ReadFile(path)
	if err != nil { // including os.ErrNotExist as we only want read-only here
		return fmt.Errorf("loading settings (read-only): %w", err)
	}
	kk := koanf.New(".")
	if err := kk.Load(rawbytes.Provider(contents), k.parser); err != nil {
		return fmt.Errorf("parsing settings: %w", err)
	}
	k.k = kk
	return nil
}

// StopWatching stops watching the settings file for changes. This is only relevant in read-only
// mode.
func StopWatching() {
	if k.initialized.Load() && k.watcher != nil {
		k.watcher.Close()
	}
}

func Get(key string) any {
	return k.k.Get(key)
}

func GetString(key string) string {
	return k.k.String(key)
}

func GetBool(key string) bool {
	return k.k.Bool(key)
}

func GetInt(key string) int {
	return k.k.Int(key)
}

func GetDuration(key string) time.Duration {
	return k.k.Duration(key)
}

func GetStruct(key string, out any) error {
	return k.k.Unmarshal(key, out)
}

func Set(key string, value any) error {
	if k.readOnly.Load() {
		return ErrReadOnly
	}
	err := k.k.Set(key, value)
	if err != nil {
		return fmt.Errorf("could not set key %s: %w", key, err)
	}
	return save()
}

// Delete removes a key and persists the change.
func Delete(key string) error {
	if k.readOnly.Load() {
		return ErrReadOnly
	}
	k.k.Delete(key)
	return save()
}

func save() error {
	if k.readOnly.Load() {
		return ErrReadOnly
	}
	path := GetString(filePathKey)
	if path == "" {
		return errors.New("settings file path is not set")
	}
	out, err := k.k.Marshal(k.parser)
	if err != nil {
		return fmt.Errorf("could not marshal settings: %w", err)
	}
	if err := atomicfile.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("could not write settings file: %w", err)
	}
	return nil
}
