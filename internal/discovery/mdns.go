// Package discovery advertises the server on the local network over mDNS.
package discovery

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/hashicorp/mdns"
)

// ServiceType is the DNS-SD service name clients browse for.
const ServiceType = "_wireboard._tcp"

// Advertiser owns a running mDNS responder.
type Advertiser struct {
	server *mdns.Server
}

// Advertise announces instance on port. info is published as TXT records.
func Advertise(instance string, port int, info []string) (*Advertiser, error) {
	if instance == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("get hostname: %w", err)
		}
		instance = host
	}

	service, err := mdns.NewMDNSService(instance, ServiceType, "", "", port, nil, info)
	if err != nil {
		return nil, fmt.Errorf("create mdns service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("start mdns server: %w", err)
	}

	return &Advertiser{server: server}, nil
}

// Shutdown stops answering queries.
func (a *Advertiser) Shutdown() error {
	if a == nil || a.server == nil {
		return nil
	}
	return a.server.Shutdown()
}

// PortFromAddr extracts the port of a listen address such as ":8080" or "0.0.0.0:80".
func PortFromAddr(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, fmt.Errorf("parse addr %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("invalid port in %q", addr)
	}
	return port, nil
}
