package config

// TransportConfig describes one transport to bring up at start.
// Example YAML:
// rpc:
//   transports:
//     - kind: tcp
//       contact: "0.0.0.0:7777"
//       mandatory: true
//     - kind: quic
//       contact: ":4433"
//     - kind: mem
//     - kind: jsonrpc
//       contact: "127.0.0.1:8080"
type TransportConfig struct {
	Kind string `mapstructure:"kind"`

	// Contact is the bind hint handed to the backend; empty lets it choose.
	Contact string `mapstructure:"contact"`

	// Mandatory transports abort startup when they fail to initialize.
	Mandatory bool `mapstructure:"mandatory"`
}
