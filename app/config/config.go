package config

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Config struct {
	DB             *sql.DB
	Port           string
	Currency       string
	SandboxMode    bool
	DefaultTaxRate decimal.Decimal
	JWTSecret      string
}

var AppConfig *Config

// Load reads the environment (optionally from .env), opens the database
// connection pool and populates AppConfig.
func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			envOr("DB_HOST", "localhost"),
			envOr("DB_PORT", "5432"),
			envOr("DB_USER", "postgres"),
			os.Getenv("DB_PASSWORD"),
			envOr("DB_NAME", "buildtrack"))
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatal("Failed to open database connection:", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		log.Fatal("Cannot establish database connection: ", err)
	}

	defaultRate := decimal.NewFromInt(21)
	if v := os.Getenv("DEFAULT_TAX_RATE"); v != "" {
		rate, err := decimal.NewFromString(v)
		if err != nil || rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
			log.Fatalf("Invalid DEFAULT_TAX_RATE %q: must be a decimal in 0-100", v)
		}
		defaultRate = rate
	}

	AppConfig = &Config{
		DB:             db,
		Port:           envOr("PORT", "8080"),
		Currency:       envOr("CURRENCY", "EUR"),
		SandboxMode:    os.Getenv("SANDBOX_MODE") == "true",
		DefaultTaxRate: defaultRate,
		JWTSecret:      envOr("JWT_SECRET", "buildtrack-dev-secret"),
	}

	log.Println("Database connected successfully")
	if AppConfig.SandboxMode {
		log.Println("Sandbox mode enabled: authentication disabled, resources are shared")
	}
}

func GetDB() *sql.DB {
	return AppConfig.DB
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
