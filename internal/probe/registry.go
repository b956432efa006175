package probe

import (
	"fmt"
	"sort"
	"sync"
)

// Protocol describes one selectable transport.
type Protocol struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	DefaultPort int    `json:"default_port"`

	build func(opts Options) Transport
}

// Options carries the transport knobs that come from configuration.
type Options struct {
	Command    string
	SSHBinary  string
	WinRMHTTPS bool
}

// Registry holds the available transports.
type Registry struct {
	protocols map[string]*Protocol
	mu        sync.RWMutex
}

var (
	globalRegistry *Registry
	registryOnce   sync.Once
)

// GetRegistry returns the singleton transport registry.
func GetRegistry() *Registry {
	registryOnce.Do(func() {
		globalRegistry = NewRegistry()
		globalRegistry.initializeProtocols()
	})
	return globalRegistry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		protocols: make(map[string]*Protocol),
	}
}

func (r *Registry) initializeProtocols() {
	r.Register(&Protocol{
		ID:          "ssh",
		Name:        "Linux/Unix (SSH)",
		Description: "Runs the inspection command over a native SSH client",
		DefaultPort: 22,
		build: func(opts Options) Transport {
			return NewSSHTransport(opts.Command)
		},
	})

	r.Register(&Protocol{
		ID:          "openssh",
		Name:        "Linux/Unix (OpenSSH client)",
		Description: "Runs the inspection command through the system ssh binary (key auth only)",
		DefaultPort: 22,
		build: func(opts Options) Transport {
			return NewOpenSSHTransport(opts.SSHBinary, opts.Command)
		},
	})

	r.Register(&Protocol{
		ID:          "winrm",
		Name:        "Windows Server (WinRM)",
		Description: "Lists adapter MAC addresses with PowerShell over WinRM",
		DefaultPort: 5985,
		build: func(opts Options) Transport {
			return NewWinRMTransport(opts.WinRMHTTPS)
		},
	})

	r.Register(&Protocol{
		ID:          "snmp",
		Name:        "SNMP v2c",
		Description: "Walks IF-MIB ifPhysAddress; the password is the community string",
		DefaultPort: 161,
		build: func(Options) Transport {
			return NewSNMPTransport()
		},
	})
}

// Register adds or replaces a protocol.
func (r *Registry) Register(protocol *Protocol) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.protocols[protocol.ID] = protocol
}

// GetProtocol returns a protocol by ID.
func (r *Registry) GetProtocol(id string) (*Protocol, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	protocol, exists := r.protocols[id]
	if !exists {
		return nil, fmt.Errorf("transport not found: %s", id)
	}
	return protocol, nil
}

// NewTransport builds the transport registered under id.
func (r *Registry) NewTransport(id string, opts Options) (Transport, error) {
	protocol, err := r.GetProtocol(id)
	if err != nil {
		return nil, err
	}
	return protocol.build(opts), nil
}

// ListProtocols returns all registered protocols sorted by ID.
func (r *Registry) ListProtocols() []*Protocol {
	r.mu.RLock()
	defer r.mu.RUnlock()

	protocols := make([]*Protocol, 0, len(r.protocols))
	for _, p := range r.protocols {
		protocols = append(protocols, p)
	}
	sort.Slice(protocols, func(i, j int) bool { return protocols[i].ID < protocols[j].ID })
	return protocols
}
