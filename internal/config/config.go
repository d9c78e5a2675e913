package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	GCS       GCSConfig       `json:"gcs"`
	Gotenberg GotenbergConfig `json:"gotenberg"`
	Log       LogConfig       `json:"log"`
	Auth      AuthConfig      `json:"-"`
	Agency    AgencyConfig    `json:"agency"`
	Render    RenderConfig    `json:"render"`
}

type ServerConfig struct {
	Port          string   `json:"port"`
	Environment   string   `json:"environment"`
	BaseURL       string   `json:"base_url"`
	PublicBaseURL string   `json:"public_base_url"`
	AllowOrigins  []string `json:"allow_origins"`
}

type DatabaseConfig struct {
	Driver     string `json:"driver"`
	Host       string `json:"host"`
	Port       string `json:"port"`
	User       string `json:"user"`
	Password   string `json:"-"`
	DBName     string `json:"db_name"`
	SQLitePath string `json:"sqlite_path"`
	Debug      bool   `json:"debug"`
}

type GCSConfig struct {
	BucketName      string `json:"bucket_name"`
	ProjectID       string `json:"project_id"`
	CredentialsPath string `json:"credentials_path"`
}

type GotenbergConfig struct {
	URL     string `json:"url"`
	Timeout string `json:"timeout"`
}

type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// AuthConfig maps author API keys to the owner id they act as.
type AuthConfig struct {
	APIKeys map[string]string
}

type AgencyConfig struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type RenderConfig struct {
	PDFEngine    string        `json:"pdf_engine"`
	ExportDir    string        `json:"export_dir"`
	ExportMaxAge time.Duration `json:"export_max_age"`
}

func (d *DatabaseConfig) DSN() string {
	// Cloud SQL Unix socket support
	if len(d.Host) > 0 && d.Host[0] == '/' {
		return fmt.Sprintf("%s:%s@unix(%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			d.User, d.Password, d.Host, d.DBName)
	}
	// Standard TCP connection
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.User, d.Password, d.Host, d.Port, d.DBName)
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Failed to load .env file: %v, using system environment variables\n", err)
	}

	exportMaxAge, err := time.ParseDuration(getEnv("EXPORT_MAX_AGE", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid EXPORT_MAX_AGE: %w", err)
	}

	apiKeys, err := parseAPIKeys(os.Getenv("AUTHOR_API_KEYS"))
	if err != nil {
		return nil, err
	}

	baseURL := getEnv("BASE_URL", "http://localhost:8080")

	config := &Config{
		Server: ServerConfig{
			Port:          getEnv("SERVER_PORT", "8080"),
			Environment:   getEnv("ENVIRONMENT", "development"),
			BaseURL:       baseURL,
			PublicBaseURL: getEnv("PUBLIC_BASE_URL", baseURL),
			AllowOrigins:  parseAllowOrigins(),
		},
		Database: DatabaseConfig{
			Driver:     strings.ToLower(getEnv("DB_DRIVER", "mysql")),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "3306"),
			User:       getEnv("DB_USER", "root"),
			Password:   getEnv("DB_PASSWORD", ""),
			DBName:     getEnv("DB_NAME", "df_proposal"),
			SQLitePath: getEnv("SQLITE_PATH", "proposals.db"),
			Debug:      getEnv("DB_DEBUG", "") == "1",
		},
		GCS: GCSConfig{
			BucketName:      getEnv("GCS_BUCKET_NAME", ""),
			ProjectID:       getEnv("GOOGLE_CLOUD_PROJECT", ""),
			CredentialsPath: getEnv("GCS_CREDENTIALS_PATH", ""),
		},
		Gotenberg: GotenbergConfig{
			URL:     getEnv("GOTENBERG_URL", "http://localhost:3000"),
			Timeout: getEnv("GOTENBERG_TIMEOUT", "30s"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "auto"),
		},
		Auth: AuthConfig{
			APIKeys: apiKeys,
		},
		Agency: AgencyConfig{
			Name:  getEnv("AGENCY_NAME", ""),
			Email: getEnv("AGENCY_EMAIL", ""),
			Phone: getEnv("AGENCY_PHONE", ""),
		},
		Render: RenderConfig{
			PDFEngine:    strings.ToLower(getEnv("PDF_ENGINE", "fpdf")),
			ExportDir:    getEnv("EXPORT_DIR", "exports"),
			ExportMaxAge: exportMaxAge,
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseAPIKeys reads "key:owner,key2:owner2".
func parseAPIKeys(raw string) (map[string]string, error) {
	keys := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, owner, ok := strings.Cut(pair, ":")
		key, owner = strings.TrimSpace(key), strings.TrimSpace(owner)
		if !ok || key == "" || owner == "" {
			return nil, fmt.Errorf("invalid AUTHOR_API_KEYS entry %q, expected key:owner", pair)
		}
		keys[key] = owner
	}
	return keys, nil
}

func parseAllowOrigins() []string {
	// First try to get from ALLOW_ORIGINS (comma-separated)
	if origins := os.Getenv("ALLOW_ORIGINS"); origins != "" {
		var allowOrigins []string
		for _, origin := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				allowOrigins = append(allowOrigins, trimmed)
			}
		}
		return allowOrigins
	}

	// Fallback to individual FRONTEND_URL_* variables for backward compatibility
	var allowOrigins []string

	if url1 := getEnv("FRONTEND_URL_1", ""); url1 != "" {
		allowOrigins = append(allowOrigins, url1)
	}

	if url2 := getEnv("FRONTEND_URL_2", ""); url2 != "" {
		allowOrigins = append(allowOrigins, url2)
	}

	// Default origins if none specified
	if len(allowOrigins) == 0 {
		allowOrigins = []string{
			"http://localhost:3000",
			"http://localhost:3001",
		}
	}

	return allowOrigins
}
