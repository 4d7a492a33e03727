// Package control
// Author: momentics <momentics@gmail.com>
//
// Operational layer around packet sockets and channels:
//   - Forwarder configuration loaded from YAML
//   - Production logger construction
//   - Prometheus metrics for channels and sockets
//   - Named debug probes for state dumps
package control
