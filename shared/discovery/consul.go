package discovery

import (
	"fmt"
	"net"
	"strconv"

	"github.com/google/uuid"
	"github.com/hashicorp/consul/api"
)

// Registration describes a service instance announced to Consul.
type Registration struct {
	Name     string
	Host     string
	HTTPPort int
	GRPCPort int
}

// ConsulRegistry registers service instances with a Consul agent.
type ConsulRegistry struct {
	client *api.Client
}

// NewConsulRegistry creates a registry talking to the agent at addr.
func NewConsulRegistry(addr string) (*ConsulRegistry, error) {
	cfg := api.DefaultConfig()
	cfg.Address = addr

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}

	return &ConsulRegistry{client: client}, nil
}

// Register announces the instance with a gRPC health check and returns the instance
// ID to pass to Deregister.
func (r *ConsulRegistry) Register(reg Registration) (string, error) {
	id := fmt.Sprintf("%s-%s", reg.Name, uuid.NewString())

	err := r.client.Agent().ServiceRegister(&api.AgentServiceRegistration{
		ID:      id,
		Name:    reg.Name,
		Address: reg.Host,
		Port:    reg.HTTPPort,
		Tags:    []string{"http"},
		Check: &api.AgentServiceCheck{
			GRPC:                           net.JoinHostPort(reg.Host, strconv.Itoa(reg.GRPCPort)),
			Interval:                       "10s",
			Timeout:                        "2s",
			DeregisterCriticalServiceAfter: "1m",
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to register service %s: %w", reg.Name, err)
	}

	return id, nil
}

// Deregister removes the instance registered under id.
func (r *ConsulRegistry) Deregister(id string) error {
	if err := r.client.Agent().ServiceDeregister(id); err != nil {
		return fmt.Errorf("failed to deregister service %s: %w", id, err)
	}

	return nil
}

// PortFromAddr extracts the numeric port of a listen address such as ":3001".
func PortFromAddr(addr string) (int, error) {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}

	return strconv.Atoi(port)
}
