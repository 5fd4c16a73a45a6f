package main

import (
	"context"
	"fmt"
	"os"

	aws_pkg "order-service/pkg/aws"
)

type Config struct {
	Port              string
	PostgresUser      string
	PostgresPassword  string
	PostgresDB        string
	PostgresHost      string
	PostgresPort      string
	PostgresSSLMode   string
	PostgresTimeZone  string
	ProductServiceURL string
	KafkaBrokers      string
	OrderEventsTopic  string
	SNSTopicArn       string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "8083"),
		PostgresUser:      os.Getenv("POSTGRES_USER"),
		PostgresPassword:  os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:        os.Getenv("POSTGRES_DB"),
		PostgresHost:      os.Getenv("POSTGRES_HOST"),
		PostgresPort:      getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:   getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone:  getEnv("POSTGRES_TIMEZONE", "UTC"),
		ProductServiceURL: getEnv("PRODUCT_SERVICE_URL", "http://product-service:8082"),
		KafkaBrokers:      os.Getenv("KAFKA_BROKERS"),
		OrderEventsTopic:  getEnv("ORDER_EVENTS_TOPIC", "order.events"),
		SNSTopicArn:       os.Getenv("SNS_TOPIC_ARN"),
	}

	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := aws_pkg.LoadAWSConfig(context.Background()); err == nil {
			sm := aws_pkg.NewSecretsClient(awsCfg)

			if creds, err := sm.GetDBCredentials(context.Background(), "order/DB_CREDENTIALS"); err == nil {
				if creds.User != "" {
					cfg.PostgresUser = creds.User
				}
				if creds.Password != "" {
					cfg.PostgresPassword = creds.Password
				}
				if creds.Database != "" {
					cfg.PostgresDB = creds.Database
				}
				if creds.Host != "" {
					cfg.PostgresHost = creds.Host
				}
				if creds.Port != "" {
					cfg.PostgresPort = creds.Port
				}
			}
		}
	}

	if cfg.PostgresUser == "" || cfg.PostgresPassword == "" || cfg.PostgresDB == "" || cfg.PostgresHost == "" {
		return nil, fmt.Errorf("database config incomplete")
	}
	if cfg.ProductServiceURL == "" {
		return nil, fmt.Errorf("PRODUCT_SERVICE_URL is required")
	}
	return cfg, nil
}

// DSN builds the postgres connection string for GORM.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresPort, c.PostgresSSLMode, c.PostgresTimeZone,
	)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
