package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ALABELEWE/nigeria-tax-ussd/cmd/gateway/internal/handler"
	"github.com/ALABELEWE/nigeria-tax-ussd/cmd/gateway/internal/service"
	"github.com/ALABELEWE/nigeria-tax-ussd/config"
	"github.com/ALABELEWE/nigeria-tax-ussd/infra/cache"
	"github.com/ALABELEWE/nigeria-tax-ussd/infra/database"
	"github.com/ALABELEWE/nigeria-tax-ussd/infra/queue"
	"github.com/ALABELEWE/nigeria-tax-ussd/infra/sms"
	"github.com/ALABELEWE/nigeria-tax-ussd/infra/storage"
	"github.com/ALABELEWE/nigeria-tax-ussd/pkg/registry"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	serviceName := cfg.ServerName
	servicePort := cfg.Port

	localIP, err := registry.GetLocalIP()
	if err != nil {
		log.Fatalf("failed to resolve local IP: %v", err)
	}
	serviceManager, err := registry.NewServiceManager(
		&registry.ConsulConfig{
			Address:    cfg.Consul.Address,
			Scheme:     cfg.Consul.Scheme,
			Datacenter: cfg.Consul.Datacenter,
		},
		&registry.ServiceConfig{
			ID:      registry.GenerateServiceID(serviceName, servicePort),
			Name:    serviceName,
			Tags:    []string{serviceName, "ussd", "v1"},
			Address: localIP,
			Port:    servicePort,
			HealthCheck: &registry.HealthCheck{
				HTTP:                           fmt.Sprintf("http://%s:%d/health", localIP, servicePort),
				Interval:                       10 * time.Second,
				Timeout:                        3 * time.Second,
				DeregisterCriticalServiceAfter: 30 * time.Second,
			},
		},
	)
	if err != nil {
		log.Fatalf("failed to init consul: %v", err)
	}

	redisClient, err := cache.NewClient(&cfg.Redis)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}

	db, err := database.NewPostgresConn(&cfg.Postgres)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	questionLogs := storage.NewQuestionLogRepository(db)
	if err := questionLogs.Migrate(); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Outbound SMS goes through rocketmq when enabled, so a slow or flaky
	// provider never stalls a pipeline goroutine. Direct HTTP otherwise.
	var notifier service.Notifier
	if cfg.RocketMQ.Enabled {
		producer, err := queue.NewProducer(cfg.RocketMQ.NameServers, cfg.RocketMQ.GroupName, cfg.RocketMQ.MaxRetries)
		if err != nil {
			log.Fatalf("failed to start rocketmq producer: %v", err)
		}
		defer producer.Stop()
		notifier = service.NewQueueNotifier(producer, cfg.RocketMQ.Topics.SmsOutbound)
	} else {
		notifier = service.NewDirectNotifier(sms.NewClient(&cfg.Sms))
	}

	sessions := service.NewSessionStore(redisClient, cfg.Session.KeyPrefix, cfg.Session.Timeout)
	limiter := service.NewRateLimiter(cfg.RateLimit.DailyCeiling, cfg.RateLimit.HourlyCeiling)
	translator := service.NewGoogleTranslator(&cfg.Translate)
	ragClient := service.NewRagClient(&cfg.Rag)
	pipeline := service.NewPipeline(translator, ragClient, notifier, questionLogs, 2*cfg.Rag.Timeout)

	ussdHandler := handler.NewUssdHandler(sessions, limiter, pipeline, service.NewLanguages())

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.POST("/ussd/callback", ussdHandler.HandleCallback)
	r.GET("/health", handler.HealthHandler(redisClient, sessions))
	r.GET("/ping", handler.PingHandler)

	if err := serviceManager.Start(); err != nil {
		log.Printf("consul registration failed: %v", err)
	}
	defer serviceManager.Stop()

	log.Printf("USSD gateway listening on port %d", servicePort)
	log.Fatal(r.Run(fmt.Sprintf(":%d", servicePort)))
}
