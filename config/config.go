package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds application configuration loaded from environment variables and .env file.
type AppConfig struct {
	// HTTP config
	HTTPPort string

	// Database config
	DBHost string
	DBPort int
	DBUser string
	DBPass string
	DBName string

	// Logging config
	LogLevel      string
	LogFile       string
	LogMaxSize    int // MB
	LogMaxBackups int
	LogMaxAge     int // days
	LogCompress   bool

	// Remote session config
	SSHConnectTimeout time.Duration // Timeout for TCP dial + SSH handshake
	SSHCommandTimeout time.Duration // Timeout for a single remote command
	SSHDefaultPort    int           // Port used when a request omits one

	// Hosting API config
	HostingAPIBaseURL string        // Override for the source-hosting REST API (tests, GHE)
	HostingAPITimeout time.Duration // HTTP timeout for hosting API calls
	RepoPageSize      int           // Repositories fetched per page, capped at 100

	// Provisioning defaults
	DeployKeyPrefix    string // Title prefix for registered deploy keys
	WorkflowBaseBranch string // Base branch for deploy workflow pull requests
}

// Cfg is the global application configuration instance.
var Cfg AppConfig

// LoadConfig loads and validates application configuration from .env file and environment variables.
func LoadConfig() error {
	err := godotenv.Load()
	if err != nil {
		// Use standard log here since logger is not initialized yet
		log.Printf("[WARN] .env file not found or cannot be loaded: %v", err)
	} else {
		log.Printf("[INFO] .env file loaded successfully")
	}

	Cfg.HTTPPort = getEnv("PORT", "8082")

	Cfg.DBHost = getEnv("DB_HOST", "127.0.0.1")
	Cfg.DBUser = getEnv("DB_USER", "root")
	Cfg.DBPass = getEnv("DB_PASS", "")
	Cfg.DBName = getEnv("DB_NAME", "provision_db")
	Cfg.DBPort = getEnvInt("DB_PORT", 3306)

	// Load logging config
	Cfg.LogLevel = getEnv("LOG_LEVEL", "DEBUG")
	Cfg.LogFile = getEnv("LOG_FILE", "/var/log/provisionapi/provisionapi.log")
	Cfg.LogMaxSize = getEnvInt("LOG_MAX_SIZE", 10)
	Cfg.LogMaxBackups = getEnvInt("LOG_MAX_BACKUPS", 3)
	Cfg.LogMaxAge = getEnvInt("LOG_MAX_AGE", 28)
	Cfg.LogCompress = getEnvBool("LOG_COMPRESS", true)

	// Load remote session config
	Cfg.SSHConnectTimeout = time.Duration(getEnvInt("SSH_CONNECT_TIMEOUT", 30)) * time.Second  // Default: 30 seconds
	Cfg.SSHCommandTimeout = time.Duration(getEnvInt("SSH_COMMAND_TIMEOUT", 120)) * time.Second // Default: 120 seconds
	Cfg.SSHDefaultPort = getEnvInt("SSH_DEFAULT_PORT", 22)

	// Load hosting API config
	Cfg.HostingAPIBaseURL = getEnv("HOSTING_API_BASE_URL", "")
	Cfg.HostingAPITimeout = time.Duration(getEnvInt("HOSTING_API_TIMEOUT", 30)) * time.Second // Default: 30 seconds
	Cfg.RepoPageSize = getEnvInt("REPO_PAGE_SIZE", 100)
	if Cfg.RepoPageSize > 100 {
		Cfg.RepoPageSize = 100
	}

	// Load provisioning defaults
	Cfg.DeployKeyPrefix = getEnv("DEPLOY_KEY_PREFIX", "provisionapi-deploy")
	Cfg.WorkflowBaseBranch = getEnv("WORKFLOW_BASE_BRANCH", "main")

	log.Printf("[INFO] Config loaded - DB: %s@%s:%d/%s, LogLevel: %s",
		Cfg.DBUser, Cfg.DBHost, Cfg.DBPort, Cfg.DBName, Cfg.LogLevel)
	log.Printf("[INFO] Remote session config - ConnectTimeout: %v, CommandTimeout: %v, DefaultPort: %d",
		Cfg.SSHConnectTimeout, Cfg.SSHCommandTimeout, Cfg.SSHDefaultPort)
	log.Printf("[INFO] Hosting API config - Timeout: %v, RepoPageSize: %d",
		Cfg.HostingAPITimeout, Cfg.RepoPageSize)

	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if boolVal, err := strconv.ParseBool(val); err == nil {
			return boolVal
		}
	}
	return defaultVal
}
