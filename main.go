package main

import (
	"context"
	"log"
	"strings"

	"order-service/controllers"
	"order-service/database"
	"order-service/kafka"
	"order-service/models"
	"order-service/repository"
	"order-service/routes"
	"order-service/services"

	aws_pkg "order-service/pkg/aws"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("[OrderService] Failed to initialize logger:", err)
	}
	defer logger.Sync()

	cfg, err := LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	if err := database.Connect(logger, cfg.DSN(),
		&models.Order{}, &models.OrderItem{}, &models.Payment{}); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	orderRepo := repository.NewGormOrderRepository(database.DB)
	paymentRepo := repository.NewGormPaymentRepo(database.DB)
	stockClient := services.NewStockClient(cfg.ProductServiceURL)

	var producer kafka.ProducerAPI
	if cfg.KafkaBrokers != "" {
		p := kafka.NewProducer(strings.Split(cfg.KafkaBrokers, ","), cfg.OrderEventsTopic)
		defer p.Close()
		producer = p
	} else {
		logger.Warn("KAFKA_BROKERS not set, order events disabled")
	}

	var snsClient aws_pkg.SNSPublisher
	if cfg.SNSTopicArn != "" {
		awsCfg, err := aws_pkg.LoadAWSConfig(context.Background())
		if err != nil {
			logger.Warn("Failed to load AWS config, SNS fan-out disabled", zap.Error(err))
		} else {
			snsClient = aws_pkg.NewSNSClient(awsCfg)
		}
	}

	orderService := services.NewOrderService(
		orderRepo,
		paymentRepo,
		stockClient,
		producer,
		snsClient,
		cfg.SNSTopicArn,
		logger,
	)
	orderController := controllers.NewOrderController(orderService)

	r := gin.New()
	r.Use(gin.Recovery())
	routes.RegisterOrderRoutes(r, orderController)

	logger.Info("Order service running", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
