package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/parking-lot-reservation/internal/database"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Only SECRET_KEY is mandatory; everything else
// falls back to a development friendly default.
type Config struct {
	Env            string        // application environment (e.g. "dev", "prod")
	Port           string        // HTTP port to listen on
	DBDriver       string        // sqlite | mysql | postgres
	DatabaseURL    string        // driver specific DSN
	DBUser         string        // mysql user when DATABASE_URL is empty
	DBPass         string        // mysql password (optional)
	DBHost         string        // mysql host
	DBPort         string        // mysql port
	DBName         string        // mysql database name
	SecretKey      string        // key used to sign the session cookie
	SessionMaxAge  time.Duration // lifetime of the session cookie
	BcryptCost     int           // bcrypt cost for password hashing
	AdminEmail     string        // bootstrap administrator email
	AdminPassword  string        // bootstrap administrator password
	AdminName      string        // bootstrap administrator display name
	SeedSampleLots bool          // create demo lots on an empty database
	LogLevel       string        // zerolog level
	LogFormat      string        // json | console
	AMQPURL        string        // RabbitMQ URL; empty disables parking events
}

// Load reads configuration values from the environment and returns a
// Config.  A .env file in the working directory is loaded first when
// present; variables already set in the process win.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Env:            getenv("APP_ENV", "dev"),
		Port:           firstEnv("5000", "APP_PORT", "PORT"),
		DBDriver:       strings.ToLower(getenv("DB_DRIVER", database.SQLite)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DBUser:         os.Getenv("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         getenv("DB_HOST", "127.0.0.1"),
		DBPort:         getenv("DB_PORT", "3306"),
		DBName:         os.Getenv("DB_NAME"),
		SecretKey:      must("SECRET_KEY"),
		SessionMaxAge:  envDur("SESSION_MAX_AGE", 24*time.Hour),
		BcryptCost:     envInt("BCRYPT_COST", bcrypt.DefaultCost),
		AdminEmail:     getenv("ADMIN_EMAIL", "admin@nicmar.ac.in"),
		AdminPassword:  getenv("ADMIN_PASSWORD", "nicmar2024"),
		AdminName:      getenv("ADMIN_NAME", "NICMAR Admin"),
		SeedSampleLots: envBool("SEED_SAMPLE_LOTS", true),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogFormat:      getenv("LOG_FORMAT", "json"),
		AMQPURL:        firstEnv("", "RABBITMQ_URL", "AMQP_URL"),
	}
	if err := cfg.normalize(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	return cfg
}

// normalize applies driver specific defaults and validates the driver.
func (c *Config) normalize() error {
	switch c.DBDriver {
	case database.SQLite:
		if c.DatabaseURL == "" {
			c.DatabaseURL = "parking.db"
		}
	case database.Postgres:
		if c.DatabaseURL == "" {
			return errMissing("DATABASE_URL")
		}
	case database.MySQL:
		if c.DatabaseURL == "" && (c.DBUser == "" || c.DBName == "") {
			return errMissing("DATABASE_URL or DB_USER/DB_NAME")
		}
	default:
		return errInvalidDriver(c.DBDriver)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		c.BcryptCost = bcrypt.DefaultCost
	}
	c.AdminEmail = strings.ToLower(strings.TrimSpace(c.AdminEmail))
	return nil
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// firstEnv returns the first non-empty variable among keys, or def.
func firstEnv(def string, keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

type configError string

func (e configError) Error() string { return string(e) }

func errMissing(what string) error { return configError("missing " + what) }

func errInvalidDriver(d string) error {
	return configError("unsupported DB_DRIVER " + strconv.Quote(d) + " (want sqlite, mysql or postgres)")
}

// DSN returns the data source name for the configured driver.  For mysql
// without DATABASE_URL it is assembled from the DB_* parts.
func (c Config) DSN() string {
	if c.DBDriver != database.MySQL || c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	auth := c.DBUser
	if c.DBPass != "" {
		auth = c.DBUser + ":" + c.DBPass
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	return auth + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName +
		"?charset=utf8mb4&parseTime=true&loc=UTC"
}
