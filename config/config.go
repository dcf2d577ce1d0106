package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultBaseURL    = "https://www.royalcaribbean.com/gbr/en"
	defaultCruisesURL = defaultBaseURL + "/cruises?search=nights:6~8,9~11,gte12" +
		"|ship:IC,LE,OA,ST,SY,UT,WN" +
		"|startDate:2026-01-01~2026-01-31,2026-02-01~2026-02-28,2026-03-01~2026-03-31,2026-04-01~2026-04-30," +
		"2027-01-01~2027-01-31,2027-02-01~2027-02-28,2027-03-01~2027-03-31,2027-04-01~2027-04-30" +
		"&country=IRL&market=gbr&language=en"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	BaseURL    string
	CruisesURL string

	Headless  bool
	ChromeBin string

	NavTimeout         time.Duration
	ListingWaitTimeout time.Duration
	SettleDelay        time.Duration
	LoadMoreSettle     time.Duration
	TabSettle          time.Duration
	SuiteTimeout       time.Duration
	PollInterval       time.Duration

	MaxLoadIterations int
	MaxCruises        int
	MaxSailings       int

	DataDir       string
	CSVOutputPath string

	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	MaxRetries       int

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3PathStyle bool
	S3Prefix    string

	MetricsTextfile string
	LogLevel        string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		BaseURL:    strings.TrimRight(getEnv("BASE_URL", defaultBaseURL), "/"),
		CruisesURL: getEnv("CRUISES_URL", defaultCruisesURL),

		Headless:  getEnvBool("HEADLESS", true),
		ChromeBin: getEnv("CHROME_BIN", ""),

		NavTimeout:         getEnvDuration("NAV_TIMEOUT", 30*time.Second),
		ListingWaitTimeout: getEnvDuration("LISTING_WAIT_TIMEOUT", 15*time.Second),
		SettleDelay:        getEnvDuration("SETTLE_DELAY", 2*time.Second),
		LoadMoreSettle:     getEnvDuration("LOAD_MORE_SETTLE", 3*time.Second),
		TabSettle:          getEnvDuration("TAB_SETTLE", time.Second),
		SuiteTimeout:       getEnvDuration("SUITE_TIMEOUT", 45*time.Second),
		PollInterval:       getEnvDuration("POLL_INTERVAL", 250*time.Millisecond),

		MaxLoadIterations: getEnvInt("MAX_LOAD_ITERATIONS", 100),
		MaxCruises:        getEnvInt("MAX_CRUISES", 0),
		MaxSailings:       getEnvInt("MAX_SAILINGS", 5),

		DataDir:       getEnv("DATA_DIR", "data"),
		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "data/cruise_prices.csv"),

		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "cruise_prices"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		MaxRetries:       getEnvInt("MAX_RETRIES", 3),

		S3Bucket:    getEnv("S3_BUCKET", ""),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3PathStyle: getEnvBool("S3_PATH_STYLE", false),
		S3Prefix:    getEnv("S3_PREFIX", "cruise-snapshots/"),

		MetricsTextfile: getEnv("METRICS_TEXTFILE", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("3s", "250ms") or bare
// integers, which are read as seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if n, err := strconv.Atoi(val); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
