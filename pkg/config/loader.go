package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/compozy/compozy-postgres/pkg/secret"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/goccy/go-yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix all environment overrides carry, for example
// POSTGRES_BLOCKS_STORE_BACKEND or POSTGRES_BLOCKS_REDIS_ADDR.
const EnvPrefix = "POSTGRES_BLOCKS_"

// Load builds the configuration from defaults, an optional YAML file, and
// environment variables, in that precedence order (env wins). An empty
// path skips the file source.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if path != "" {
		if err := loadFile(k, path); err != nil {
			return nil, err
		}
	}
	if err := loadEnv(k); err != nil {
		return nil, err
	}
	return unmarshalAndValidate(k)
}

// loadFile parses a YAML file into a raw map and merges it over the
// current configuration state.
func loadFile(k *koanf.Koanf, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := k.Load(rawMap(raw), nil); err != nil {
		return fmt.Errorf("failed to merge config file: %w", err)
	}
	return nil
}

// transformEnvKey converts environment variable names to koanf paths.
// For example: STORE_BACKEND -> store.backend
func transformEnvKey(s string) string {
	s = strings.ToLower(s)
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_'
	})
	return strings.Join(parts, ".")
}

func loadEnv(k *koanf.Koanf) error {
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key string, value string) (string, any) {
			key = strings.TrimPrefix(key, EnvPrefix)
			// Multi-word leaves keep their underscore: REDIS_KEY_PREFIX
			// maps to redis.key_prefix, not redis.key.prefix.
			if path, ok := envKeyOverrides[key]; ok {
				return path, value
			}
			return transformEnvKey(key), value
		},
	}), nil); err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}
	return nil
}

// envKeyOverrides maps env suffixes whose koanf path cannot be derived by
// splitting on underscores.
var envKeyOverrides = map[string]string{
	"REDIS_KEY_PREFIX": "redis.key_prefix",
}

func unmarshalAndValidate(k *koanf.Koanf) (*Config, error) {
	var config Config
	if err := k.UnmarshalWithConf("", &config, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &config,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				secretStringDecodeHook,
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// secretStringDecodeHook converts plain strings to secret.String fields.
func secretStringDecodeHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(secret.String("")) {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return secret.String(v), nil
	case []byte:
		return secret.String(v), nil
	default:
		return data, nil
	}
}

// rawMap is a koanf.Provider adapter for map[string]any data.
type rawMap map[string]any

func (r rawMap) Read() (map[string]any, error) {
	return r, nil
}

func (r rawMap) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("ReadBytes not implemented")
}
