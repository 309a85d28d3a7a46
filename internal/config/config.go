package config

import "time"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	EventFile   string `env:"EVENT_FILE" envDefault:"event.yaml"`

	Database  Database  `envPrefix:"DB_"`
	Paypal    Paypal    `envPrefix:"PAYPAL_"`
	BrainTree Braintree `envPrefix:"BRAINTREE_"`
	Redis     Redis     `envPrefix:"REDIS_"`
	RateLimit RateLimit `envPrefix:"RATE_LIMIT_"`
	AMQP      AMQP      `envPrefix:"AMQP_"`
	Admin     Admin     `envPrefix:"ADMIN_"`
	Grant     Grant     `envPrefix:"GRANT_"`
}

type Database struct {
	// Driver is "sqlite" or "mysql".
	Driver          string        `env:"DRIVER" envDefault:"sqlite"`
	URL             string        `env:"URL" envDefault:"tickets.db"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"10"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"50"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"1h"`
}

type Paypal struct {
	BaseApiURL   string `env:"BASE_API_URL" envDefault:"https://api-m.sandbox.paypal.com"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	WebhookID    string `env:"WEBHOOK_ID"`
}

type Braintree struct {
	Environment string `env:"ENVIRONMENT" envDefault:"sandbox"`
	MerchantID  string `env:"MERCHANT_ID"`
	PublicKey   string `env:"PUBLIC_KEY"`
	PrivateKey  string `env:"PRIVATE_KEY"`
}

type Redis struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type RateLimit struct {
	Enabled        bool          `env:"ENABLED" envDefault:"false"`
	Capacity       int           `env:"CAPACITY" envDefault:"30"`
	RefillTokens   int           `env:"REFILL_TOKENS" envDefault:"1"`
	RefillInterval time.Duration `env:"REFILL_INTERVAL" envDefault:"1s"`
	TTL            time.Duration `env:"TTL" envDefault:"10m"`
	Prefix         string        `env:"PREFIX" envDefault:"rl"`
}

type AMQP struct {
	// URL empty means notifications are rendered and logged in-process.
	URL   string `env:"URL"`
	Queue string `env:"QUEUE" envDefault:"notifications.stream"`
}

type Admin struct {
	PasswordHash string        `env:"PASSWORD_HASH"`
	JWTSecret    string        `env:"JWT_SECRET"`
	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"12h"`
}

type Grant struct {
	Secret     string        `env:"SECRET"`
	TTL        time.Duration `env:"TTL" envDefault:"24h"`
	CookieName string        `env:"COOKIE_NAME" envDefault:"stream_grant"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

func (e Environment) IsProduction() bool {
	return e.Name == "production"
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
