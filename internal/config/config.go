package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-errors/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP        HTTP        `json:"http"`
	Persistence Persistence `json:"persistence"`
	Providers   Providers   `json:"providers"`
	Map         Map         `json:"map"`
	NATS        NATS        `json:"nats"`
}

type Map struct {
	// PublicToken is handed to map clients. When empty the selection
	// orchestrator runs in a disabled state instead of failing startup.
	PublicToken string `json:"public_token" yaml:"public_token"`
}

type Providers struct {
	TimeoutSeconds uint       `json:"timeout_seconds" yaml:"timeout_seconds"`
	Nominatim      Nominatim  `json:"nominatim"`
	Weather        Weather    `json:"weather"`
	SerpAPI        SerpAPI    `json:"serpapi"`
	Perplexity     Perplexity `json:"perplexity"`
}

type Nominatim struct {
	URL string `json:"url"`
}

type Weather struct {
	URL string `json:"url"`
}

type SerpAPI struct {
	URL    string `json:"url"`
	APIKey string `json:"api_key" yaml:"api_key"`
}

type Perplexity struct {
	URL    string `json:"url"`
	APIKey string `json:"api_key" yaml:"api_key"`
	Model  string `json:"model"`
}

type NATS struct {
	Enabled       bool   `json:"enabled"`
	URL           string `json:"url"`
	SubjectPrefix string `json:"subject_prefix" yaml:"subject_prefix"`
}

type StorageDriver string

const (
	StorageDriverSQLite     StorageDriver = "sqlite"
	StorageDriverMySQL      StorageDriver = "mysql"
	StorageDriverPostgres   StorageDriver = "postgres"
	StorageDriverFilesystem StorageDriver = "filesystem"
	StorageDriverS3         StorageDriver = "s3"
)

type Persistence struct {
	Driver   StorageDriver `json:"driver"`
	Database Database      `json:"database"`
	// Directory is the root for the filesystem driver.
	Directory string    `json:"directory"`
	S3        S3Options `json:"s3"`
}

type Database struct {
	Database        string `json:"database"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	Host            string `json:"host"`
	Port            uint16 `json:"port"`
	ExtraParameters string `json:"extra_parameters" yaml:"extra_parameters"`
}

type S3Options struct {
	Region   string `json:"region"`
	Bucket   string `json:"bucket"`
	Endpoint string `json:"endpoint"`
}

type HTTPListener struct {
	IPV4Host string `json:"ipv4_host" yaml:"ipv4_host"`
	IPV6Host string `json:"ipv6_host" yaml:"ipv6_host"`
	Port     uint16 `json:"port"`
}

type Tracing struct {
	Enabled      bool   `json:"enabled"`
	OTLPEndpoint string `json:"otlp_endpoint" yaml:"otlp_endpoint"`
}

type PProf struct {
	Enabled bool `json:"enabled"`
}

type Metrics struct {
	HTTPListener
	Enabled bool `json:"enabled"`
}

type HTTP struct {
	HTTPListener
	Tracing
	PProf          PProf    `json:"pprof"`
	TrustedProxies []string `json:"trusted_proxies" yaml:"trusted_proxies"`
	Metrics        Metrics  `json:"metrics"`
	CORSHosts      []string `json:"cors_hosts" yaml:"cors_hosts"`
}

//nolint:golint,gochecknoglobals
var (
	ConfigFileKey                         = "config"
	HTTPIPV4HostKey                       = "http.ipv4_host"
	HTTPIPV6HostKey                       = "http.ipv6_host"
	HTTPPortKey                           = "http.port"
	HTTPTracingEnabledKey                 = "http.tracing.enabled"
	HTTPTracingOTLPEndKey                 = "http.tracing.otlp_endpoint"
	HTTPPProfEnabledKey                   = "http.pprof.enabled"
	HTTPTrustedProxiesKey                 = "http.trusted_proxies"
	HTTPMetricsEnabledKey                 = "http.metrics.enabled"
	HTTPMetricsIPV4HostKey                = "http.metrics.ipv4_host"
	HTTPMetricsIPV6HostKey                = "http.metrics.ipv6_host"
	HTTPMetricsPortKey                    = "http.metrics.port"
	HTTPCORSHostsKey                      = "http.cors_hosts"
	PersistenceDriverKey                  = "persistence.driver"
	PersistenceDatabaseDatabaseKey        = "persistence.database.database"
	PersistenceDatabaseUsernameKey        = "persistence.database.username"
	PersistenceDatabasePasswordKey        = "persistence.database.password"
	PersistenceDatabaseHostKey            = "persistence.database.host"
	PersistenceDatabasePortKey            = "persistence.database.port"
	PersistenceDatabaseExtraParametersKey = "persistence.database.extra_parameters"
	PersistenceDirectoryKey               = "persistence.directory"
	PersistenceS3RegionKey                = "persistence.s3.region"
	PersistenceS3BucketKey                = "persistence.s3.bucket"
	PersistenceS3EndpointKey              = "persistence.s3.endpoint"
	ProvidersTimeoutSecondsKey            = "providers.timeout_seconds"
	ProvidersNominatimURLKey              = "providers.nominatim.url"
	ProvidersWeatherURLKey                = "providers.weather.url"
	ProvidersSerpAPIURLKey                = "providers.serpapi.url"
	//nolint:golint,gosec
	ProvidersSerpAPIKeyKey    = "providers.serpapi.api_key"
	ProvidersPerplexityURLKey = "providers.perplexity.url"
	//nolint:golint,gosec
	ProvidersPerplexityKeyKey   = "providers.perplexity.api_key"
	ProvidersPerplexityModelKey = "providers.perplexity.model"
	MapPublicTokenKey           = "map.public_token"
	NATSEnabledKey              = "nats.enabled"
	NATSURLKey                  = "nats.url"
	NATSSubjectPrefixKey        = "nats.subject_prefix"
)

const (
	DefaultConfigPath              = "config.yaml"
	DefaultHTTPIPV4Host            = "0.0.0.0"
	DefaultHTTPIPV6Host            = "::"
	DefaultHTTPPort                = 8080
	DefaultHTTPMetricsIPV4Host     = "127.0.0.1"
	DefaultHTTPMetricsIPV6Host     = "::1"
	DefaultHTTPMetricsPort         = 8081
	DefaultPersistenceDriver       = StorageDriverSQLite
	DefaultPersistenceDatabase     = "pinpoint.db"
	DefaultPersistenceDirectory    = "data/"
	DefaultProvidersTimeoutSeconds = 10
	DefaultNominatimURL            = "https://nominatim.openstreetmap.org"
	DefaultWeatherURL              = "https://api.open-meteo.com/v1/forecast"
	DefaultSerpAPIURL              = "https://serpapi.com/search"
	DefaultPerplexityURL           = "https://api.perplexity.ai/chat/completions"
	DefaultPerplexityModel         = "sonar"
	DefaultNATSSubjectPrefix       = "pinpoint.events"
)

func RegisterFlags(cmd *cobra.Command) {
	cmd.Flags().StringP(ConfigFileKey, "c", DefaultConfigPath, "Config file path")
	cmd.Flags().String(HTTPIPV4HostKey, DefaultHTTPIPV4Host, "HTTP server IPv4 host")
	cmd.Flags().String(HTTPIPV6HostKey, DefaultHTTPIPV6Host, "HTTP server IPv6 host")
	cmd.Flags().Uint16(HTTPPortKey, DefaultHTTPPort, "HTTP server port")
	cmd.Flags().Bool(HTTPTracingEnabledKey, false, "Enable Open Telemetry tracing")
	cmd.Flags().String(HTTPTracingOTLPEndKey, "", "Open Telemetry endpoint")
	cmd.Flags().Bool(HTTPPProfEnabledKey, false, "Enable pprof")
	cmd.Flags().StringSlice(HTTPTrustedProxiesKey, []string{}, "Comma-separated list of trusted proxies")
	cmd.Flags().Bool(HTTPMetricsEnabledKey, false, "Enable metrics server")
	cmd.Flags().String(HTTPMetricsIPV4HostKey, DefaultHTTPMetricsIPV4Host, "Metrics server IPv4 host")
	cmd.Flags().String(HTTPMetricsIPV6HostKey, DefaultHTTPMetricsIPV6Host, "Metrics server IPv6 host")
	cmd.Flags().Uint16(HTTPMetricsPortKey, DefaultHTTPMetricsPort, "Metrics server port")
	cmd.Flags().StringSlice(HTTPCORSHostsKey, []string{}, "Comma-separated list of CORS hosts")
	cmd.Flags().String(PersistenceDriverKey, string(DefaultPersistenceDriver), "Storage driver (sqlite, mysql, postgres, filesystem, s3)")
	cmd.Flags().String(PersistenceDatabaseDatabaseKey, DefaultPersistenceDatabase, "Database path or name")
	cmd.Flags().String(PersistenceDatabaseUsernameKey, "", "Database username")
	cmd.Flags().String(PersistenceDatabasePasswordKey, "", "Database password")
	cmd.Flags().String(PersistenceDatabaseHostKey, "", "Database host")
	cmd.Flags().Uint16(PersistenceDatabasePortKey, 0, "Database port")
	cmd.Flags().String(PersistenceDatabaseExtraParametersKey, "", "Database extra parameters")
	cmd.Flags().String(PersistenceDirectoryKey, DefaultPersistenceDirectory, "Filesystem storage directory")
	cmd.Flags().String(PersistenceS3RegionKey, "", "S3 region")
	cmd.Flags().String(PersistenceS3BucketKey, "", "S3 bucket")
	cmd.Flags().String(PersistenceS3EndpointKey, "", "S3 endpoint override")
	cmd.Flags().Uint(ProvidersTimeoutSecondsKey, DefaultProvidersTimeoutSeconds, "Upstream provider timeout in seconds")
	cmd.Flags().String(ProvidersNominatimURLKey, DefaultNominatimURL, "Nominatim base URL")
	cmd.Flags().String(ProvidersWeatherURLKey, DefaultWeatherURL, "Open-Meteo forecast URL")
	cmd.Flags().String(ProvidersSerpAPIURLKey, DefaultSerpAPIURL, "SerpApi search URL")
	cmd.Flags().String(ProvidersSerpAPIKeyKey, "", "SerpApi API key")
	cmd.Flags().String(ProvidersPerplexityURLKey, DefaultPerplexityURL, "Perplexity chat completions URL")
	cmd.Flags().String(ProvidersPerplexityKeyKey, "", "Perplexity API key")
	cmd.Flags().String(ProvidersPerplexityModelKey, DefaultPerplexityModel, "Perplexity model")
	cmd.Flags().String(MapPublicTokenKey, "", "Map public token")
	cmd.Flags().Bool(NATSEnabledKey, false, "Enable NATS event forwarding")
	cmd.Flags().String(NATSURLKey, "", "NATS server URL")
	cmd.Flags().String(NATSSubjectPrefixKey, DefaultNATSSubjectPrefix, "NATS subject prefix for events")
}

var (
	ErrOTLPEndpointRequired  = errors.New("OTLP endpoint is required when tracing is enabled")
	ErrStorageDriverRequired = errors.New("Storage driver is required")
	ErrUnknownStorageDriver  = errors.New("Unknown storage driver")
	ErrDBHostRequired        = errors.New("Database host is required")
	ErrDBDatabaseRequired    = errors.New("Database name is required")
	ErrDirectoryRequired     = errors.New("Storage directory is required")
	ErrS3BucketRequired      = errors.New("S3 bucket is required")
	ErrS3RegionRequired      = errors.New("S3 region is required")
	ErrNATSURLRequired       = errors.New("NATS URL is required when NATS is enabled")
)

// Validate intentionally does not require Map.PublicToken: without it the
// service still serves saved places and proxies, with selections disabled.
func (c *Config) Validate() error {
	if c.HTTP.Tracing.Enabled && c.HTTP.Tracing.OTLPEndpoint == "" {
		return ErrOTLPEndpointRequired
	}
	switch c.Persistence.Driver {
	case "":
		return ErrStorageDriverRequired
	case StorageDriverSQLite:
		if c.Persistence.Database.Database == "" {
			return ErrDBDatabaseRequired
		}
	case StorageDriverMySQL, StorageDriverPostgres:
		if c.Persistence.Database.Host == "" {
			return ErrDBHostRequired
		}
		if c.Persistence.Database.Database == "" {
			return ErrDBDatabaseRequired
		}
	case StorageDriverFilesystem:
		if c.Persistence.Directory == "" {
			return ErrDirectoryRequired
		}
	case StorageDriverS3:
		if c.Persistence.S3.Bucket == "" {
			return ErrS3BucketRequired
		}
		if c.Persistence.S3.Region == "" {
			return ErrS3RegionRequired
		}
	default:
		return ErrUnknownStorageDriver
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		return ErrNATSURLRequired
	}

	return nil
}

func LoadConfig(cmd *cobra.Command) (*Config, error) {
	var config Config

	// Load flags from envs
	ctx, cancel := context.WithCancelCause(cmd.Context())
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if ctx.Err() != nil {
			return
		}
		optName := strings.ReplaceAll(strings.ReplaceAll(strings.ToUpper(f.Name), "-", "_"), ".", "__")
		if val, ok := os.LookupEnv(optName); !f.Changed && ok {
			if err := f.Value.Set(val); err != nil {
				cancel(err)
			}
			f.Changed = true
		}
	})
	if ctx.Err() != nil {
		return &config, fmt.Errorf("failed to load env: %w", context.Cause(ctx))
	}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return &config, fmt.Errorf("failed to get config path: %w", err)
	}
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return &config, fmt.Errorf("failed to read config: %w", err)
		} else if err == nil {
			if err := yaml.Unmarshal(data, &config); err != nil {
				return &config, fmt.Errorf("failed to unmarshal config: %w", err)
			}
		}
	}

	err = overrideFlags(&config, cmd)
	if err != nil {
		return &config, fmt.Errorf("failed to override flags: %w", err)
	}

	// Defaults
	if config.HTTP.IPV4Host == "" {
		config.HTTP.IPV4Host = DefaultHTTPIPV4Host
	}
	if config.HTTP.IPV6Host == "" {
		config.HTTP.IPV6Host = DefaultHTTPIPV6Host
	}
	if config.HTTP.Port == 0 {
		config.HTTP.Port = DefaultHTTPPort
	}
	if config.HTTP.Metrics.IPV4Host == "" {
		config.HTTP.Metrics.IPV4Host = DefaultHTTPMetricsIPV4Host
	}
	if config.HTTP.Metrics.IPV6Host == "" {
		config.HTTP.Metrics.IPV6Host = DefaultHTTPMetricsIPV6Host
	}
	if config.HTTP.Metrics.Port == 0 {
		config.HTTP.Metrics.Port = DefaultHTTPMetricsPort
	}
	if config.Persistence.Driver == "" {
		config.Persistence.Driver = DefaultPersistenceDriver
	}
	if config.Persistence.Database.Database == "" {
		config.Persistence.Database.Database = DefaultPersistenceDatabase
	}
	if config.Persistence.Directory == "" {
		config.Persistence.Directory = DefaultPersistenceDirectory
	}
	if config.Providers.TimeoutSeconds == 0 {
		config.Providers.TimeoutSeconds = DefaultProvidersTimeoutSeconds
	}
	if config.Providers.Nominatim.URL == "" {
		config.Providers.Nominatim.URL = DefaultNominatimURL
	}
	if config.Providers.Weather.URL == "" {
		config.Providers.Weather.URL = DefaultWeatherURL
	}
	if config.Providers.SerpAPI.URL == "" {
		config.Providers.SerpAPI.URL = DefaultSerpAPIURL
	}
	if config.Providers.Perplexity.URL == "" {
		config.Providers.Perplexity.URL = DefaultPerplexityURL
	}
	if config.Providers.Perplexity.Model == "" {
		config.Providers.Perplexity.Model = DefaultPerplexityModel
	}
	if config.NATS.SubjectPrefix == "" {
		config.NATS.SubjectPrefix = DefaultNATSSubjectPrefix
	}

	return &config, nil
}

func overrideFlags(config *Config, cmd *cobra.Command) error {
	var err error
	if cmd.Flags().Changed(HTTPIPV4HostKey) {
		config.HTTP.IPV4Host, err = cmd.Flags().GetString(HTTPIPV4HostKey)
		if err != nil {
			return fmt.Errorf("failed to get HTTP IPv4 host: %w", err)
		}
	}

	if cmd.Flags().Changed(HTTPIPV6HostKey) {
		config.HTTP.IPV6Host, err = cmd.Flags().GetString(HTTPIPV6HostKey)
		if err != nil {
			return fmt.Errorf("failed to get HTTP IPv6 host: %w", err)
		}
	}

	if cmd.Flags().Changed(HTTPPortKey) {
		config.HTTP.Port, err = cmd.Flags().GetUint16(HTTPPortKey)
		if err != nil {
			return fmt.Errorf("failed to get HTTP port: %w", err)
		}
	}

	if cmd.Flags().Changed(HTTPPProfEnabledKey) {
		config.HTTP.PProf.Enabled, err = cmd.Flags().GetBool(HTTPPProfEnabledKey)
		if err != nil {
			return fmt.Errorf("failed to get pprof enabled: %w", err)
		}
	}

	if cmd.Flags().Changed(HTTPTrustedProxiesKey) {
		config.HTTP.TrustedProxies, err = cmd.Flags().GetStringSlice(HTTPTrustedProxiesKey)
		if err != nil {
			return fmt.Errorf("failed to get trusted proxies: %w", err)
		}
	}

	if cmd.Flags().Changed(HTTPMetricsEnabledKey) {
		config.HTTP.Metrics.Enabled, err = cmd.Flags().GetBool(HTTPMetricsEnabledKey)
		if err != nil {
			return fmt.Errorf("failed to get metrics enabled: %w", err)
		}
	}

	if cmd.Flags().Changed(HTTPMetricsIPV4HostKey) {
		config.HTTP.Metrics.IPV4Host, err = cmd.Flags().GetString(HTTPMetricsIPV4HostKey)
		if err != nil {
			return fmt.Errorf("failed to get metrics IPv4 host: %w", err)
		}
	}

	if cmd.Flags().Changed(HTTPMetricsIPV6HostKey) {
		config.HTTP.Metrics.IPV6Host, err = cmd.Flags().GetString(HTTPMetricsIPV6HostKey)
		if err != nil {
			return fmt.Errorf("failed to get metrics IPv6 host: %w", err)
		}
	}

	if cmd.Flags().Changed(HTTPMetricsPortKey) {
		config.HTTP.Metrics.Port, err = cmd.Flags().GetUint16(HTTPMetricsPortKey)
		if err != nil {
			return fmt.Errorf("failed to get metrics port: %w", err)
		}
	}

	if cmd.Flags().Changed(HTTPTracingEnabledKey) {
		config.HTTP.Tracing.Enabled, err = cmd.Flags().GetBool(HTTPTracingEnabledKey)
		if err != nil {
			return fmt.Errorf("failed to get tracing enabled: %w", err)
		}
	}

	if cmd.Flags().Changed(HTTPTracingOTLPEndKey) {
		config.HTTP.Tracing.OTLPEndpoint, err = cmd.Flags().GetString(HTTPTracingOTLPEndKey)
		if err != nil {
			return fmt.Errorf("failed to get tracing OTLP endpoint: %w", err)
		}
	}

	if cmd.Flags().Changed(HTTPCORSHostsKey) {
		config.HTTP.CORSHosts, err = cmd.Flags().GetStringSlice(HTTPCORSHostsKey)
		if err != nil {
			return fmt.Errorf("failed to get CORS hosts: %w", err)
		}
	}

	if cmd.Flags().Changed(PersistenceDriverKey) {
		drvr, err := cmd.Flags().GetString(PersistenceDriverKey)
		if err != nil {
			return fmt.Errorf("failed to get storage driver: %w", err)
		}
		config.Persistence.Driver = StorageDriver(strings.ToLower(drvr))
	}

	if cmd.Flags().Changed(PersistenceDatabaseDatabaseKey) {
		config.Persistence.Database.Database, err = cmd.Flags().GetString(PersistenceDatabaseDatabaseKey)
		if err != nil {
			return fmt.Errorf("failed to get database name: %w", err)
		}
	}

	if cmd.Flags().Changed(PersistenceDatabaseUsernameKey) {
		config.Persistence.Database.Username, err = cmd.Flags().GetString(PersistenceDatabaseUsernameKey)
		if err != nil {
			return fmt.Errorf("failed to get database username: %w", err)
		}
	}

	if cmd.Flags().Changed(PersistenceDatabasePasswordKey) {
		config.Persistence.Database.Password, err = cmd.Flags().GetString(PersistenceDatabasePasswordKey)
		if err != nil {
			return fmt.Errorf("failed to get database password: %w", err)
		}
	}

	if cmd.Flags().Changed(PersistenceDatabaseHostKey) {
		config.Persistence.Database.Host, err = cmd.Flags().GetString(PersistenceDatabaseHostKey)
		if err != nil {
			return fmt.Errorf("failed to get database host: %w", err)
		}
	}

	if cmd.Flags().Changed(PersistenceDatabasePortKey) {
		config.Persistence.Database.Port, err = cmd.Flags().GetUint16(PersistenceDatabasePortKey)
		if err != nil {
			return fmt.Errorf("failed to get database port: %w", err)
		}
	}

	if cmd.Flags().Changed(PersistenceDatabaseExtraParametersKey) {
		config.Persistence.Database.ExtraParameters, err = cmd.Flags().GetString(PersistenceDatabaseExtraParametersKey)
		if err != nil {
			return fmt.Errorf("failed to get database extra parameters: %w", err)
		}
	}

	if cmd.Flags().Changed(PersistenceDirectoryKey) {
		config.Persistence.Directory, err = cmd.Flags().GetString(PersistenceDirectoryKey)
		if err != nil {
			return fmt.Errorf("failed to get storage directory: %w", err)
		}
	}

	if cmd.Flags().Changed(PersistenceS3RegionKey) {
		config.Persistence.S3.Region, err = cmd.Flags().GetString(PersistenceS3RegionKey)
		if err != nil {
			return fmt.Errorf("failed to get S3 region: %w", err)
		}
	}

	if cmd.Flags().Changed(PersistenceS3BucketKey) {
		config.Persistence.S3.Bucket, err = cmd.Flags().GetString(PersistenceS3BucketKey)
		if err != nil {
			return fmt.Errorf("failed to get S3 bucket: %w", err)
		}
	}

	if cmd.Flags().Changed(PersistenceS3EndpointKey) {
		config.Persistence.S3.Endpoint, err = cmd.Flags().GetString(PersistenceS3EndpointKey)
		if err != nil {
			return fmt.Errorf("failed to get S3 endpoint: %w", err)
		}
	}

	if cmd.Flags().Changed(ProvidersTimeoutSecondsKey) {
		config.Providers.TimeoutSeconds, err = cmd.Flags().GetUint(ProvidersTimeoutSecondsKey)
		if err != nil {
			return fmt.Errorf("failed to get provider timeout: %w", err)
		}
	}

	if cmd.Flags().Changed(ProvidersNominatimURLKey) {
		config.Providers.Nominatim.URL, err = cmd.Flags().GetString(ProvidersNominatimURLKey)
		if err != nil {
			return fmt.Errorf("failed to get Nominatim URL: %w", err)
		}
	}

	if cmd.Flags().Changed(ProvidersWeatherURLKey) {
		config.Providers.Weather.URL, err = cmd.Flags().GetString(ProvidersWeatherURLKey)
		if err != nil {
			return fmt.Errorf("failed to get weather URL: %w", err)
		}
	}

	if cmd.Flags().Changed(ProvidersSerpAPIURLKey) {
		config.Providers.SerpAPI.URL, err = cmd.Flags().GetString(ProvidersSerpAPIURLKey)
		if err != nil {
			return fmt.Errorf("failed to get SerpApi URL: %w", err)
		}
	}

	if cmd.Flags().Changed(ProvidersSerpAPIKeyKey) {
		config.Providers.SerpAPI.APIKey, err = cmd.Flags().GetString(ProvidersSerpAPIKeyKey)
		if err != nil {
			return fmt.Errorf("failed to get SerpApi API key: %w", err)
		}
	}

	if cmd.Flags().Changed(ProvidersPerplexityURLKey) {
		config.Providers.Perplexity.URL, err = cmd.Flags().GetString(ProvidersPerplexityURLKey)
		if err != nil {
			return fmt.Errorf("failed to get Perplexity URL: %w", err)
		}
	}

	if cmd.Flags().Changed(ProvidersPerplexityKeyKey) {
		config.Providers.Perplexity.APIKey, err = cmd.Flags().GetString(ProvidersPerplexityKeyKey)
		if err != nil {
			return fmt.Errorf("failed to get Perplexity API key: %w", err)
		}
	}

	if cmd.Flags().Changed(ProvidersPerplexityModelKey) {
		config.Providers.Perplexity.Model, err = cmd.Flags().GetString(ProvidersPerplexityModelKey)
		if err != nil {
			return fmt.Errorf("failed to get Perplexity model: %w", err)
		}
	}

	if cmd.Flags().Changed(MapPublicTokenKey) {
		config.Map.PublicToken, err = cmd.Flags().GetString(MapPublicTokenKey)
		if err != nil {
			return fmt.Errorf("failed to get map public token: %w", err)
		}
	}

	if cmd.Flags().Changed(NATSEnabledKey) {
		config.NATS.Enabled, err = cmd.Flags().GetBool(NATSEnabledKey)
		if err != nil {
			return fmt.Errorf("failed to get NATS enabled: %w", err)
		}
	}

	if cmd.Flags().Changed(NATSURLKey) {
		config.NATS.URL, err = cmd.Flags().GetString(NATSURLKey)
		if err != nil {
			return fmt.Errorf("failed to get NATS URL: %w", err)
		}
	}

	if cmd.Flags().Changed(NATSSubjectPrefixKey) {
		config.NATS.SubjectPrefix, err = cmd.Flags().GetString(NATSSubjectPrefixKey)
		if err != nil {
			return fmt.Errorf("failed to get NATS subject prefix: %w", err)
		}
	}

	return nil
}
