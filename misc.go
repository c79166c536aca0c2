package dcmstream

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

/*
===============================================================================
    Configuration
===============================================================================
*/

// HeaderLength is the length of the preamble plus the "DICM" magic
const HeaderLength = 132

// DefaultChunkSize is the number of bytes read from the source per chunk when streaming
const DefaultChunkSize = 1024 * 1024

// SmallChunkThreshold is the chunk size below which a performance warning is logged
const SmallChunkThreshold = 1024

// ReadMode selects how `ParseFile` reads its input
type ReadMode string

const (
	// ModeStream reads the file in chunks of `Config.ChunkSize`
	ModeStream ReadMode = "stream"
	// ModeWhole reads the file into memory, then decodes it as a single window
	ModeWhole ReadMode = "whole"
)

// Config represents the decoder configuration
type Config struct {
	// ChunkSize is the number of bytes read per chunk in stream mode. Must exceed HeaderLength.
	ChunkSize     int      `yaml:"chunk_size"`
	Mode          ReadMode `yaml:"mode"`
	SkipPixelData bool     `yaml:"skip_pixel_data"`
	LogLevel      string   `yaml:"log_level"`
	OpenFileLimit int      `yaml:"open_file_limit"`

	// Hook, if set, receives every completed element
	Hook     ElementHook `yaml:"-"`
	HookMode HookMode    `yaml:"-"`

	// do not access / write `_set`. It is used internally.
	_set bool
}

// DefaultConfig returns the configuration used when nothing is set in the environment
func DefaultConfig() Config {
	return Config{
		ChunkSize:     DefaultChunkSize,
		Mode:          ModeStream,
		LogLevel:      "info",
		OpenFileLimit: 64,
	}
}

// Validate returns an `InvalidConfig` error if the configuration cannot be used
func (cfg Config) Validate() error {
	if cfg.ChunkSize <= HeaderLength {
		return InvalidConfigError("ChunkSize must exceed %d bytes, got %d", HeaderLength, cfg.ChunkSize)
	}
	switch cfg.Mode {
	case ModeStream, ModeWhole:
	default:
		return InvalidConfigError("Mode must be %q or %q, got %q", ModeStream, ModeWhole, cfg.Mode)
	}
	if !isValidLogLevel(cfg.LogLevel) {
		return InvalidConfigError(`invalid LogLevel %q. Choose from "debug", "info", "warn", "error", "fatal", or "none"`, cfg.LogLevel)
	}
	if cfg.OpenFileLimit < 1 {
		return InvalidConfigError("OpenFileLimit must be at least 1, got %d", cfg.OpenFileLimit)
	}
	switch cfg.HookMode {
	case HookSync, HookAsync:
	default:
		return InvalidConfigError("unknown HookMode %d", cfg.HookMode)
	}
	return nil
}

// LoadConfigFile overlays the YAML document at `path` onto `cfg`.
// Keys absent from the document leave the corresponding fields untouched.
func LoadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return InvalidConfigError("reading config file: %v", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return InvalidConfigError("parsing config file %q: %v", path, err)
	}
	return nil
}

// intFromEnv retrieves `key` from the OS environment.
// if the key is not found, or cannot be expressed as an integer,
// `found` will be false.
func intFromEnv(key string) (val int, found bool) {
	valStr, found := os.LookupEnv(key)
	if !found {
		return
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		found = false
	}
	return
}

func intFromEnvDefault(key string, def int) (val int) {
	val, found := intFromEnv(key)
	if !found {
		val = def
	}
	return
}

func strFromEnvDefault(key string, def string) (val string) {
	val, found := os.LookupEnv(key)
	if !found {
		val = def
	}
	return
}

func boolFromEnv(key string) (val bool, found bool) {
	valStr, found := os.LookupEnv(key)
	if !found {
		return
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		found = false
	}
	return
}

func boolFromEnvDefault(key string, def bool) (val bool) {
	val, found := boolFromEnv(key)
	if !found {
		val = def
	}
	return
}

var (
	config   Config
	configMu sync.Mutex
)

// GetConfig returns the application configuration.
// Will set from `DCMSTREAM_CONFIG` and the environment if not already set;
// environment variables take precedence over the file.
func GetConfig() Config {
	configMu.Lock()
	defer configMu.Unlock()
	if !config._set {
		cfg := DefaultConfig()
		if path, found := os.LookupEnv("DCMSTREAM_CONFIG"); found {
			if err := LoadConfigFile(path, &cfg); err != nil {
				Warnf("ignoring config file: %v", err)
			}
		}
		cfg.ChunkSize = intFromEnvDefault("DCMSTREAM_CHUNKSIZE", cfg.ChunkSize)
		cfg.Mode = ReadMode(strings.ToLower(strFromEnvDefault("DCMSTREAM_MODE", string(cfg.Mode))))
		cfg.SkipPixelData = boolFromEnvDefault("DCMSTREAM_SKIPPIXELDATA", cfg.SkipPixelData)
		cfg.OpenFileLimit = intFromEnvDefault("DCMSTREAM_OPENFILELIMIT", cfg.OpenFileLimit)
		cfg.LogLevel = strings.ToLower(strFromEnvDefault("DCMSTREAM_LOGLEVEL", cfg.LogLevel))
		if !isValidLogLevel(cfg.LogLevel) {
			panic(`Invalid "DCMSTREAM_LOGLEVEL". Choose from "debug", "info", "warn", "error", "fatal", or "none".`)
		}
		SetLoggingLevel(cfg.LogLevel)
		cfg._set = true
		config = cfg
	}
	return config
}

// OverrideConfig overrides the configuration parsed from environment with the one provided
func OverrideConfig(newconfig Config) {
	configMu.Lock()
	defer configMu.Unlock()
	newconfig._set = true // to prevent being reverted with subsequent calls to `GetConfig`
	config = newconfig
}

/*
===============================================================================
    Misc
===============================================================================
*/

// ConcurrentlyWalkDir recursively traverses a directory and calls `onFile` for each found file inside a goroutine.
// At most `GetConfig().OpenFileLimit` files are handled at once.
func ConcurrentlyWalkDir(dirPath string, onFile func(file string)) error {
	guard := make(chan bool, max(1, GetConfig().OpenFileLimit)) // limits number of concurrently open files
	var files []string
	wg := sync.WaitGroup{}

	err := filepath.Walk(dirPath, func(filePath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		files = append(files, filePath)
		return nil
	})
	if err != nil {
		return err
	}

	// now goroutine each file
	for _, filePath := range files {
		wg.Add(1)
		guard <- true // would block if guard channel is already filled
		go func(path string) {
			defer wg.Done()
			onFile(path)
			<-guard
		}(filePath)
	}
	wg.Wait()
	return nil
}
