package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/slighter12/go-lib/database/postgres"
)

const (
	defaultPath               = "."
	defaultMaxRequestBodySize = "16KB"
	defaultPort               = 3333

	// EnvPrefix is stripped from environment variables before they are matched to config keys.
	EnvPrefix = "CREDSTORE_"
)

// Storage drivers understood by the account store.
const (
	StorageDriverFile     = "file"
	StorageDriverBlob     = "blob"
	StorageDriverPostgres = "postgres"
)

// Status code mappings for failed operations.
const (
	StatusCodesLegacy   = "legacy"
	StatusCodesSemantic = "semantic"
)

// Password hashers understood by the credential service.
const (
	HasherSHA3   = "sha3"
	HasherBcrypt = "bcrypt"
)

const (
	defaultStoragePath  = "dzejson.json"
	defaultBlobKey      = "accounts.json"
	defaultDocumentName = "accounts"
	defaultBcryptCost   = 10
	defaultMinLength    = 5
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int    `json:"port" yaml:"port"`
		MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		// StatusCodes is "legacy" (every failed operation answers 500, the way the first
		// version of the service did) or "semantic" (400, 409, 401 and 500 by kind).
		StatusCodes string `json:"statusCodes" yaml:"statusCodes"`
		Timeouts    struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Storage *StorageConfig `json:"storage" yaml:"storage"`

	Auth *AuthConfig `json:"auth" yaml:"auth"`

	Validation *ValidationConfig `json:"validation" yaml:"validation"`

	Accounts *AccountsConfig `json:"accounts" yaml:"accounts"`
}

// StorageConfig selects and configures the backend holding the account document.
type StorageConfig struct {
	// Driver is one of "file", "blob" or "postgres".
	Driver string `json:"driver" yaml:"driver"`

	// Path of the JSON document for the file driver.
	Path string `json:"path" yaml:"path"`

	// BucketURL for the blob driver, e.g. "mem://", "file:///var/lib/credstore", "s3://bucket?region=eu-west-1".
	BucketURL string `json:"bucketUrl" yaml:"bucketUrl"`

	// Key of the document object inside the bucket.
	Key string `json:"key" yaml:"key"`

	// DocumentName is the row key used by the postgres driver.
	DocumentName string `json:"documentName" yaml:"documentName"`

	// CreateIfMissing writes an empty collection at startup when no document exists yet.
	CreateIfMissing bool `json:"createIfMissing" yaml:"createIfMissing"`

	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`
}

// AuthConfig defines password hashing configuration
type AuthConfig struct {
	Hasher     string `json:"hasher" yaml:"hasher"`
	BcryptCost int    `json:"bcryptCost" yaml:"bcryptCost"`
}

// ValidationConfig defines the registration rules that are tunable
type ValidationConfig struct {
	MinLength int `json:"minLength" yaml:"minLength"`
}

// AccountsConfig controls what the account listing returns
type AccountsConfig struct {
	ExposeDigests bool `json:"exposeDigests" yaml:"exposeDigests"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			if filepath.IsAbs(path) {
				searchPaths = append(searchPaths, path)

				continue
			}
			searchPaths = append(searchPaths, filepath.Join(pwd, path))
		}
	}

	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Only CREDSTORE_* variables take part, so PATH, HOME and friends never leak into the config tree.
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(k, v string) (string, any) {
			// CREDSTORE_STORAGE_BUCKETURL -> storage.bucketUrl
			key := canonicalizeEnvKey(strings.TrimPrefix(k, EnvPrefix), existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()

	if cfg.Storage.Driver == StorageDriverPostgres {
		if cfg.Storage.Postgres == nil {
			return nil, errors.New("storage.postgres must be set for the postgres driver")
		}
		// POSTGRES replicas come from CREDSTORE_STORAGE_POSTGRES_REPLICAS_0_HOST and friends.
		cfg.Storage.Postgres.Replicas = buildReplicasFromEnv()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyDefaults fills every optional section left empty by the file and the environment.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = defaultPort
	}
	if strings.TrimSpace(c.HTTP.MaxRequestBodySize) == "" {
		c.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}
	if c.HTTP.StatusCodes == "" {
		c.HTTP.StatusCodes = StatusCodesLegacy
	}
	if c.Env.Log.Level == "" {
		c.Env.Log.Level = "info"
	}

	if c.Storage == nil {
		c.Storage = &StorageConfig{}
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageDriverFile
	}
	if c.Storage.Path == "" {
		c.Storage.Path = defaultStoragePath
	}
	if c.Storage.Key == "" {
		c.Storage.Key = defaultBlobKey
	}
	if c.Storage.DocumentName == "" {
		c.Storage.DocumentName = defaultDocumentName
	}

	if c.Auth == nil {
		c.Auth = &AuthConfig{}
	}
	if c.Auth.Hasher == "" {
		c.Auth.Hasher = HasherSHA3
	}
	if c.Auth.BcryptCost == 0 {
		c.Auth.BcryptCost = defaultBcryptCost
	}

	if c.Validation == nil {
		c.Validation = &ValidationConfig{}
	}
	if c.Validation.MinLength == 0 {
		c.Validation.MinLength = defaultMinLength
	}

	if c.Accounts == nil {
		c.Accounts = &AccountsConfig{ExposeDigests: true}
	}
}

// Validate rejects combinations the service cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageDriverFile, StorageDriverPostgres:
	case StorageDriverBlob:
		if c.Storage.BucketURL == "" {
			return errors.New("storage.bucketUrl must be set for the blob driver")
		}
	default:
		return errors.Errorf("unknown storage driver: %s", c.Storage.Driver)
	}

	switch c.HTTP.StatusCodes {
	case StatusCodesLegacy, StatusCodesSemantic:
	default:
		return errors.Errorf("unknown http.statusCodes mapping: %s", c.HTTP.StatusCodes)
	}

	switch c.Auth.Hasher {
	case HasherSHA3, HasherBcrypt:
	default:
		return errors.Errorf("unknown password hasher: %s", c.Auth.Hasher)
	}

	if c.Validation.MinLength < 1 {
		return errors.Errorf("validation.minLength must be positive, got %d", c.Validation.MinLength)
	}

	return nil
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}

// buildReplicasFromEnv builds the replicas slice from environment variables.
// Environment variable format: CREDSTORE_STORAGE_POSTGRES_REPLICAS_{index}_{field}
func buildReplicasFromEnv() []postgres.ConnectionConfig {
	var replicas []postgres.ConnectionConfig

	for i := 0; ; i++ {
		prefix := EnvPrefix + "STORAGE_POSTGRES_REPLICAS_" + strconv.Itoa(i) + "_"

		host := os.Getenv(prefix + "HOST")
		port := os.Getenv(prefix + "PORT")
		if host == "" || port == "" {
			break
		}

		replicas = append(replicas, postgres.ConnectionConfig{
			Host:     host,
			Port:     port,
			UserName: os.Getenv(prefix + "USERNAME"),
			Password: os.Getenv(prefix + "PASSWORD"),
		})
	}

	return replicas
}
