package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ALABELEWE/nigeria-tax-ussd/config"
	"github.com/ALABELEWE/nigeria-tax-ussd/infra/queue"
	"github.com/ALABELEWE/nigeria-tax-ussd/infra/sms"
	"github.com/ALABELEWE/nigeria-tax-ussd/pkg/registry"
)

const serviceName = "sms-worker"

// The sms-worker drains the sms_outbound topic and delivers each message
// through the Africa's Talking API. A failed send is requeued by the
// broker, which is as close to guaranteed delivery as this system goes.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	servicePort := cfg.WorkerPort

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
			Tags:    []string{serviceName, "sms", "v1"},
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

	smsClient := sms.NewClient(&cfg.Sms)

	consumer, err := queue.NewConsumer(
		cfg.RocketMQ.NameServers,
		cfg.RocketMQ.ConsumerGroup,
		queue.ParseMessageModel(cfg.RocketMQ.MessageModel),
	)
	if err != nil {
		log.Fatalf("failed to create rocketmq consumer: %v", err)
	}

	err = consumer.Subscribe(cfg.RocketMQ.Topics.SmsOutbound, func(ctx context.Context, msg queue.Message) error {
		payload, err := queue.UnmarshalSmsPayload(msg.Payload)
		if err != nil {
			// A payload we cannot parse will never parse; drop it.
			log.Printf("dropping malformed SMS message %s: %v", msg.ID, err)
			return nil
		}
		log.Printf("delivering SMS %s to %s (enqueued %s ago)",
			payload.ID, payload.PhoneNumber, time.Since(payload.EnqueuedAt).Round(time.Second))
		return smsClient.Send(ctx, payload.PhoneNumber, payload.Message)
	})
	if err != nil {
		log.Fatalf("failed to subscribe to %s: %v", cfg.RocketMQ.Topics.SmsOutbound, err)
	}
	if err := consumer.Start(); err != nil {
		log.Fatalf("failed to start rocketmq consumer: %v", err)
	}
	defer consumer.Stop()

	if err := serviceManager.Start(); err != nil {
		log.Printf("consul registration failed: %v", err)
	}
	defer serviceManager.Stop()

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "UP",
			"service":   serviceName,
			"timestamp": time.Now(),
		})
	})

	log.Printf("sms-worker listening on port %d", servicePort)
	log.Fatal(r.Run(fmt.Sprintf(":%d", servicePort)))
}
