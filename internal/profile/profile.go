package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where stratum stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string
	// InstanceURL is the url of your stratum instance.
	InstanceURL string
	// JWTSecret signs access tokens.
	JWTSecret string

	// Embedding configuration
	EmbeddingProvider   string // STRATUM_EMBEDDING_PROVIDER (hash or openai, default: hash)
	EmbeddingModel      string // STRATUM_EMBEDDING_MODEL
	EmbeddingDimensions int    // STRATUM_EMBEDDING_DIMENSIONS (default: 1536)
	OpenAIAPIKey        string // STRATUM_OPENAI_API_KEY
	OpenAIBaseURL       string // STRATUM_OPENAI_BASE_URL (default: https://api.openai.com/v1)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads embedding configuration from STRATUM_* environment variables.
func (p *Profile) FromEnv() {
	p.EmbeddingProvider = getEnvOrDefault("STRATUM_EMBEDDING_PROVIDER", "hash")
	p.EmbeddingModel = os.Getenv("STRATUM_EMBEDDING_MODEL")
	p.OpenAIAPIKey = os.Getenv("STRATUM_OPENAI_API_KEY")
	p.OpenAIBaseURL = getEnvOrDefault("STRATUM_OPENAI_BASE_URL", "https://api.openai.com/v1")
	if p.EmbeddingDimensions == 0 {
		p.EmbeddingDimensions = 1536
	}
	if p.JWTSecret == "" {
		p.JWTSecret = os.Getenv("STRATUM_JWT_SECRET")
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported db driver: %s", p.Driver)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn is required for postgres driver")
	}

	if p.Mode == "prod" && p.Data == "" {
		p.Data = "/var/opt/stratum"
	}
	if p.Data == "" {
		p.Data = "."
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("stratum_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	if p.Mode == "prod" && p.JWTSecret == "" {
		return errors.New("jwt secret is required in prod mode")
	}
	if p.JWTSecret == "" {
		p.JWTSecret = "stratum-dev-secret"
	}

	return nil
}
