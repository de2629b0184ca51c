package config

import (
	_ "embed"
	stderrors "errors"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/arthur-debert/dotpatch/pkg/errors"
	"github.com/arthur-debert/dotpatch/pkg/logging"
	"github.com/arthur-debert/dotpatch/pkg/paths"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "DOTPATCH_"

//go:embed embedded/defaults.toml
var defaultConfig []byte

// listKeys are split on commas when they come from the environment
var listKeys = map[string]bool{"exclude": true}

type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, stderrors.New("not implemented")
}

// Load reads the defaults, the first repository config file that exists
// and the environment
func Load(p *paths.Paths) (*Config, error) {
	var candidates []string
	if p != nil {
		candidates = p.ConfigCandidates()
	}
	return load(candidates, true)
}

func load(candidates []string, withEnv bool) (*Config, error) {
	logger := logging.GetLogger("config")

	// 1. Embedded defaults
	base := koanf.New(".")
	if err := base.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to parse embedded defaults")
	}
	merged := base.Raw()

	// 2. Repository config, first candidate wins
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "cannot access config file").WithPath(path)
		}

		repo := koanf.New(".")
		if err := repo.Load(file.Provider(path), toml.Parser()); err != nil {
			var pathErr *fs.PathError
			if stderrors.As(err, &pathErr) {
				return nil, errors.Wrap(err, errors.ErrConfigLoad, "cannot read config file").WithPath(path)
			}
			return nil, errors.Wrap(err, errors.ErrConfigParse, "cannot parse config file").WithPath(path)
		}

		logger.Debug().Str("path", path).Msg("Loaded repository config")
		mergeMaps(merged, repo.Raw())
		break
	}

	// 3. Environment
	if withEnv {
		envK := koanf.New(".")
		err := envK.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
			key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), "__", ".")
			if listKeys[key] {
				return key, splitList(value)
			}
			return key, value
		}), nil)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment")
		}
		mergeMaps(merged, envK.Raw())
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(merged, "."), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to load merged config")
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				stringToFileModeHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal configuration")
	}

	cfg.Exclude = dedupe(cfg.Exclude)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// mergeMaps merges src into dest. Nested maps merge recursively, lists
// are appended and anything else is overwritten.
func mergeMaps(dest, src map[string]interface{}) {
	for key, srcVal := range src {
		destVal, destOk := dest[key]
		if !destOk {
			dest[key] = srcVal
			continue
		}

		if srcMap, srcOk := srcVal.(map[string]interface{}); srcOk {
			if destMap, destOk := destVal.(map[string]interface{}); destOk {
				mergeMaps(destMap, srcMap)
				continue
			}
		}

		if isSlice(srcVal) && isSlice(destVal) {
			dest[key] = append(toInterfaceSlice(destVal), toInterfaceSlice(srcVal)...)
			continue
		}

		dest[key] = srcVal
	}
}

func isSlice(v interface{}) bool {
	switch v.(type) {
	case []interface{}, []string:
		return true
	default:
		return false
	}
}

func toInterfaceSlice(v interface{}) []interface{} {
	switch s := v.(type) {
	case []interface{}:
		return s
	case []string:
		result := make([]interface{}, len(s))
		for i, v := range s {
			result[i] = v
		}
		return result
	default:
		return []interface{}{}
	}
}

func splitList(value string) []interface{} {
	var out []interface{}
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}

// stringToFileModeHookFunc parses octal strings such as "0600" into a
// file mode. Integers pass through unchanged.
func stringToFileModeHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(fs.FileMode(0)) {
			return data, nil
		}
		mode, err := strconv.ParseUint(data.(string), 8, 32)
		if err != nil {
			return nil, err
		}
		return fs.FileMode(mode), nil
	}
}
