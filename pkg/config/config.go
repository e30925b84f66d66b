package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Drivers de almacenamiento soportados.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App    AppConfig
	HTTP   HTTPConfig
	Store  StoreConfig
	DB     DBConfig
	Tables TablesConfig
	Kafka  KafkaConfig
	Redis  RedisConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StoreConfig selecciona la implementación del almacén.
type StoreConfig struct {
	Driver string // postgres | memory
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// TablesConfig nombres de tablas de inventario y pedidos.
type TablesConfig struct {
	Inventory string
	Orders    string
}

// KafkaConfig transporte de alertas de stock bajo. Sin brokers o sin tópico no se publica.
type KafkaConfig struct {
	Brokers       []string
	LowStockTopic string
}

// Enabled indica si hay brokers configurados.
func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

// RedisConfig almacén de claves de idempotencia para POST /api/orders. Addr vacío lo deshabilita.
type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	IdempotencyTTL time.Duration
}

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// Validate comprueba los valores que no admiten un default razonable.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER inválido: %q", c.Store.Driver)
	}
	if !identifierRe.MatchString(c.Tables.Inventory) {
		return fmt.Errorf("INVENTORY_TABLE inválido: %q", c.Tables.Inventory)
	}
	if !identifierRe.MatchString(c.Tables.Orders) {
		return fmt.Errorf("ORDERS_TABLE inválido: %q", c.Tables.Orders)
	}
	if c.Tables.Inventory == c.Tables.Orders {
		return fmt.Errorf("INVENTORY_TABLE y ORDERS_TABLE deben ser distintos")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP_PORT inválido: %d", c.HTTP.Port)
	}
	return nil
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde .env / config.env).
// Las env vars tienen prioridad.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return FromViper(v)
}

// FromViper construye la configuración desde una instancia de Viper ya cargada.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "b2b-stock"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getString(v, "STORE_DRIVER", StoreDriverPostgres)),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "b2b_stock"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
		},
		Tables: TablesConfig{
			Inventory: getString(v, "INVENTORY_TABLE", "inventory"),
			Orders:    getString(v, "ORDERS_TABLE", "orders"),
		},
		Kafka: KafkaConfig{
			Brokers:       splitList(getString(v, "KAFKA_BROKERS", "")),
			LowStockTopic: getString(v, "LOW_STOCK_TOPIC", "low-stock-alerts"),
		},
		Redis: RedisConfig{
			Addr:           getString(v, "REDIS_ADDR", ""),
			Password:       getString(v, "REDIS_PASSWORD", ""),
			DB:             getInt(v, "REDIS_DB", 0),
			IdempotencyTTL: time.Duration(getInt(v, "IDEMPOTENCY_TTL_SECONDS", 86400)) * time.Second,
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}
