package config

import (
	"os"
	"strconv"
)

// DatabaseConfig holds PostgreSQL database connection settings.
// The database is optional; when Host is empty invocations are kept in memory.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// Enabled reports whether a database has been configured.
func (c DatabaseConfig) Enabled() bool {
	return c.Host != ""
}

// StorageConfig selects the blob storage backend: "minio", "azure" or "memory".
type StorageConfig struct {
	Backend string
	MinIO   MinIOConfig
	Azure   AzureConfig
}

// MinIOConfig holds object storage settings for MinIO and other S3-compatible endpoints.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// AzureConfig holds Azure Blob Storage settings. One of ConnectionString,
// AccountKey or UseManagedIdentity selects the authentication method.
type AzureConfig struct {
	AccountName        string
	AccountKey         string
	ConnectionString   string
	Endpoint           string
	UseManagedIdentity bool
}

// FunctionsConfig holds the trigger/output bindings of the hosted functions.
type FunctionsConfig struct {
	ExtractEnabled bool
	ExtractTrigger string
	ExtractOutput  string
	CopyEnabled    bool
	CopyTrigger    string
	CopyOutput     string
	CopyBufferSize int
}

// TriggerConfig controls the pull-based bucket notification listener.
type TriggerConfig struct {
	Listen      bool
	Concurrency int
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string
	Format string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost   string
	Port      string
	Log       LogConfig
	Database  DatabaseConfig
	Storage   StorageConfig
	Functions FunctionsConfig
	Trigger   TriggerConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"),
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		Storage: StorageConfig{
			Backend: getEnv("STORAGE_BACKEND", "minio"),
			MinIO: MinIOConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", ""),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Region:    getEnv("MINIO_REGION", ""),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
			Azure: AzureConfig{
				AccountName:        getEnv("AZURE_STORAGE_ACCOUNT", ""),
				AccountKey:         getEnv("AZURE_STORAGE_KEY", ""),
				ConnectionString:   getEnv("AZURE_STORAGE_CONNECTION_STRING", ""),
				Endpoint:           getEnv("AZURE_STORAGE_ENDPOINT", ""),
				UseManagedIdentity: getEnvBool("AZURE_USE_MANAGED_IDENTITY", false),
			},
		},
		Functions: FunctionsConfig{
			ExtractEnabled: getEnvBool("EXTRACT_ENABLED", true),
			ExtractTrigger: getEnv("EXTRACT_TRIGGER", "test-samples-trigger/{name}"),
			ExtractOutput:  getEnv("EXTRACT_OUTPUT", "test-samples-output/{name}-output.txt"),
			CopyEnabled:    getEnvBool("COPY_ENABLED", true),
			CopyTrigger:    getEnv("COPY_TRIGGER", "test-samples-copy/{name}"),
			CopyOutput:     getEnv("COPY_OUTPUT", "test-samples-output/{name}-output.txt"),
			CopyBufferSize: getEnvInt("COPY_BUFFER_SIZE", 89120),
		},
		Trigger: TriggerConfig{
			Listen:      getEnvBool("TRIGGER_LISTEN", false),
			Concurrency: getEnvInt("TRIGGER_CONCURRENCY", 4),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
