package registry

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
)

type ServiceConfig struct {
	ID          string
	Name        string
	Tags        []string
	Address     string
	Port        int
	HealthCheck *HealthCheck
}

type ServiceInstance struct {
	ID      string
	Name    string
	Address string
	Port    int
	Tags    []string
}

func (s *ServiceInstance) GetURL() string {
	return fmt.Sprintf("http://%s:%d", s.Address, s.Port)
}

// ServiceManager ties consul registration to process lifetime: register on
// Start, deregister when a shutdown signal arrives.
type ServiceManager struct {
	registry      *ConsulRegistry
	serviceConfig *ServiceConfig
	stopChan      chan os.Signal
}

func NewServiceManager(consulConfig *ConsulConfig, serviceConfig *ServiceConfig) (*ServiceManager, error) {
	consulRegistry, err := NewConsulRegistry(consulConfig)
	if err != nil {
		return nil, err
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	return &ServiceManager{
		registry:      consulRegistry,
		serviceConfig: serviceConfig,
		stopChan:      stopChan,
	}, nil
}

func (sm *ServiceManager) Start() error {
	if err := sm.registry.RegisterService(sm.serviceConfig); err != nil {
		return fmt.Errorf("service registration failed: %w", err)
	}
	log.Printf("%s registered with consul", sm.serviceConfig.Name)

	go func() {
		<-sm.stopChan
		sm.Stop()
		os.Exit(0)
	}()
	return nil
}

func (sm *ServiceManager) Stop() {
	if err := sm.registry.DeregisterService(sm.serviceConfig.ID); err != nil {
		log.Printf("service deregistration failed: %v", err)
	}
}

func (sm *ServiceManager) DiscoverService(serviceName string) ([]*ServiceInstance, error) {
	return sm.registry.DiscoverService(serviceName)
}
