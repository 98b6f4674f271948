package registry

import (
	"fmt"
	"log"
	"net"
	"time"

	"github.com/hashicorp/consul/api"
)

type ConsulRegistry struct {
	client *api.Client
	config *ConsulConfig
}

type ConsulConfig struct {
	Address    string
	Scheme     string
	Datacenter string
}

type HealthCheck struct {
	HTTP                           string
	Interval                       time.Duration
	Timeout                        time.Duration
	DeregisterCriticalServiceAfter time.Duration
}

func NewConsulRegistry(config *ConsulConfig) (*ConsulRegistry, error) {
	consulConfig := api.DefaultConfig()
	consulConfig.Address = config.Address
	consulConfig.Scheme = config.Scheme
	consulConfig.Datacenter = config.Datacenter

	client, err := api.NewClient(consulConfig)
	if err != nil {
		return nil, fmt.Errorf("create consul client: %w", err)
	}
	if _, err := client.Status().Leader(); err != nil {
		return nil, fmt.Errorf("connect to consul: %w", err)
	}
	log.Printf("Consul connected: %s", config.Address)
	return &ConsulRegistry{
		client: client,
		config: config,
	}, nil
}

func (r *ConsulRegistry) RegisterService(config *ServiceConfig) error {
	registration := &api.AgentServiceRegistration{
		ID:      config.ID,
		Name:    config.Name,
		Tags:    config.Tags,
		Address: config.Address,
		Port:    config.Port,
	}

	if config.HealthCheck != nil {
		registration.Check = &api.AgentServiceCheck{
			HTTP:                           config.HealthCheck.HTTP,
			Interval:                       config.HealthCheck.Interval.String(),
			Timeout:                        config.HealthCheck.Timeout.String(),
			DeregisterCriticalServiceAfter: config.HealthCheck.DeregisterCriticalServiceAfter.String(),
		}
	}

	if err := r.client.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("register service: %w", err)
	}

	log.Printf("Service registered: %s (ID: %s)", config.Name, config.ID)
	return nil
}

func (r *ConsulRegistry) DeregisterService(serviceID string) error {
	if err := r.client.Agent().ServiceDeregister(serviceID); err != nil {
		return fmt.Errorf("deregister service: %w", err)
	}
	log.Printf("Service deregistered: %s", serviceID)
	return nil
}

// DiscoverService returns the healthy instances registered under a name.
func (r *ConsulRegistry) DiscoverService(serviceName string) ([]*ServiceInstance, error) {
	services, _, err := r.client.Health().Service(serviceName, "", true, nil)
	if err != nil {
		return nil, fmt.Errorf("discover service: %w", err)
	}

	var instances []*ServiceInstance
	for _, service := range services {
		instances = append(instances, &ServiceInstance{
			ID:      service.Service.ID,
			Name:    service.Service.Service,
			Address: service.Service.Address,
			Port:    service.Service.Port,
			Tags:    service.Service.Tags,
		})
	}
	return instances, nil
}

// GetLocalIP resolves the outbound interface address without sending traffic.
func GetLocalIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String(), nil
}

func GenerateServiceID(serviceName string, port int) string {
	ip, _ := GetLocalIP()
	return fmt.Sprintf("%s-%s-%d", serviceName, ip, port)
}
