package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"log" // log is used to report configuration errors and halt execution
	"os"  // os provides access to environment variables
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store drivers understood by database.Open and the file store.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
	DriverFile   = "file"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  It is built once at startup and handed to the
// constructors that need it; nothing reads the environment after that.
type Config struct {
	Env          string // application environment (e.g. "dev", "prod")
	Port         string // HTTP port to listen on
	StoreDriver  string // mysql | sqlite | file
	DBUser       string // database username
	DBPass       string // database password (optional)
	DBHost       string // database host address
	DBPort       string // database port number
	DBName       string // database name
	SQLitePath   string // sqlite database file
	DataDir      string // directory for the JSON file store
	JWTSecret    string // secret used to sign JWTs
	AccessTTLMin int    // access token time-to-live in minutes
	BcryptCost   int    // bcrypt cost for password hashing
	BodyLimit    string // max request body, echo notation (e.g. "10M")
	CORSOrigins  []string
	LogLevel     string
	LogFormat    string
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Load reads the optional .env file, then the environment, and returns a
// Config.  Invalid or missing required values cause the program to exit
// with a fatal log message.
func Load() Config {
	// a missing .env is the normal case outside local development
	_ = godotenv.Load()
	cfg, err := Parse(os.LookupEnv)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

// Parse builds a Config from lookup.  All problems are reported together.
func Parse(lookup LookupFunc) (Config, error) {
	e := env{lookup: lookup}
	cfg := Config{
		Env:          e.str("APP_ENV", "dev"),
		Port:         e.str("APP_PORT", "5000"),
		StoreDriver:  strings.ToLower(e.str("STORE_DRIVER", DriverSQLite)),
		DBUser:       e.str("DB_USER", ""),
		DBPass:       e.str("DB_PASS", ""),
		DBHost:       e.str("DB_HOST", "localhost"),
		DBPort:       e.str("DB_PORT", "3306"),
		DBName:       e.str("DB_NAME", "recipes"),
		SQLitePath:   e.str("SQLITE_PATH", "data/recipes.db"),
		DataDir:      e.str("DATA_DIR", "data"),
		JWTSecret:    e.must("JWT_SECRET"),
		AccessTTLMin: e.int("ACCESS_TOKEN_TTL_MIN", 60),
		BcryptCost:   e.int("BCRYPT_COST", 10),
		BodyLimit:    e.str("BODY_LIMIT", "10M"),
		CORSOrigins:  splitList(e.str("CORS_ORIGINS", "http://localhost:3000")),
		LogLevel:     e.str("LOG_LEVEL", "info"),
		LogFormat:    e.str("LOG_FORMAT", "json"),
	}

	switch cfg.StoreDriver {
	case DriverMySQL:
		if cfg.DBUser == "" {
			e.errs = append(e.errs, errors.New("missing required env var: DB_USER"))
		}
	case DriverSQLite, DriverFile:
	default:
		e.errs = append(e.errs, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver))
	}
	if cfg.AccessTTLMin <= 0 {
		e.errs = append(e.errs, fmt.Errorf("ACCESS_TOKEN_TTL_MIN must be positive, got %d", cfg.AccessTTLMin))
	}
	// bcrypt.MinCost..bcrypt.MaxCost
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		e.errs = append(e.errs, fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", cfg.BcryptCost))
	}
	return cfg, errors.Join(e.errs...)
}

// env collects errors instead of exiting so Parse stays testable.
type env struct {
	lookup LookupFunc
	errs   []error
}

func (e *env) str(key, def string) string {
	if v, ok := e.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

// must retrieves the value of a required environment variable.
func (e *env) must(key string) string {
	v, ok := e.lookup(key)
	if !ok || v == "" {
		e.errs = append(e.errs, fmt.Errorf("missing required env var: %s", key))
	}
	return v
}

func (e *env) int(key string, def int) int {
	s := e.str(key, "")
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid int for %s: %q", key, s))
		return def
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
