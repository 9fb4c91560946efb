package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	CronSecret  string `env:"CRON_SECRET"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"120"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Source struct {
		BaseURL        string `env:"BASE_URL" envDefault:"https://www.gorendezvous.com"`
		CompanyID      string `env:"COMPANY_ID" envDefault:"108450"`
		Culture        string `env:"CULTURE" envDefault:"fr-CA"`
		LookaheadDays  int    `env:"LOOKAHEAD_DAYS" envDefault:"14"`
		Timezone       string `env:"TIMEZONE" envDefault:"America/Toronto"`
		UserAgent      string `env:"USER_AGENT" envDefault:"Mozilla/5.0 (compatible; GymTracker/1.0)"`
		RequestTimeout int    `env:"REQUEST_TIMEOUT" envDefault:"15"`
		IDStrategy     string `env:"ID_STRATEGY" envDefault:"content"` // content | position
	} `envPrefix:"SOURCE_"`
	Tracker struct {
		FetchTimeout  int    `env:"FETCH_TIMEOUT" envDefault:"30"`
		NotifyTimeout int    `env:"NOTIFY_TIMEOUT" envDefault:"60"`
		Concurrency   int    `env:"CONCURRENCY" envDefault:"4"`
		PollInterval  int    `env:"POLL_INTERVAL" envDefault:"0"` // seconds, 0 disables the in-process loop
		BookingURL    string `env:"BOOKING_URL" envDefault:"https://gymduplateau.com/fr/horaire/"`
		GymName       string `env:"GYM_NAME" envDefault:"Gym du Plateau"`
	} `envPrefix:"TRACKER_"`
	Store struct {
		Driver string `env:"DRIVER" envDefault:"redis"` // redis | postgres | memory | none
	} `envPrefix:"STORE_"`
	Database struct {
		DSN            string `env:"DSN"`
		ConnectTimeout int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout   int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		MaxOpenConns   int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns   int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime    int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	Redis struct {
		Host             string `env:"HOST" envDefault:"localhost"`
		Port             int    `env:"PORT" envDefault:"6379"`
		Password         string `env:"PASSWORD"`
		DB               int    `env:"DB" envDefault:"0"`
		ConnectTimeout   int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		OperationTimeout int    `env:"OPERATION_TIMEOUT" envDefault:"5"`
	} `envPrefix:"REDIS_"`
	Email struct {
		FromName     string `env:"FROM_NAME" envDefault:"Gym Tracker"`
		SendAttempts uint   `env:"SEND_ATTEMPTS" envDefault:"2"`
		SMTP         struct {
			Username    string `env:"USERNAME"`
			Password    string `env:"PASSWORD"`
			Host        string `env:"HOST"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN"`
		Queue          string `env:"QUEUE" envDefault:"email_queue"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Log struct {
		Level      string `env:"LEVEL" envDefault:"info"`
		Format     string `env:"FORMAT" envDefault:"text"`
		File       string `env:"FILE"`
		MaxSizeMB  int    `env:"MAX_SIZE_MB" envDefault:"20"`
		MaxBackups int    `env:"MAX_BACKUPS" envDefault:"5"`
		MaxAgeDays int    `env:"MAX_AGE_DAYS" envDefault:"28"`
		Compress   bool   `env:"COMPRESS" envDefault:"true"`
	} `envPrefix:"LOG_"`
}

// SMTPConfigured reports whether every SMTP setting needed to deliver mail is present.
func (c *Config) SMTPConfigured() bool {
	s := c.Email.SMTP
	return s.Host != "" && s.Port != 0 && s.Username != "" && s.Password != ""
}

func LoadConfig() (*Config, error) {
	// .env is optional and never overrides variables already set
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok && len(aggErr.Errors) > 0 {
			// only the first error keeps the log readable
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	return cfg, nil
}
