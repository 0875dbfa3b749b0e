package accesslog

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
)

// LocalPortStrategy selects which port an event reports as LocalPort.
type LocalPortStrategy int

const (
	// PortServer reports the port the client sent the request to.
	PortServer LocalPortStrategy = iota
	// PortLocal reports the port of the interface that accepted the connection.
	PortLocal
)

// ParseLocalPortStrategy parses "server" or "local", ignoring case.
func ParseLocalPortStrategy(s string) (LocalPortStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "server":
		return PortServer, nil
	case "local":
		return PortLocal, nil
	default:
		return PortServer, fmt.Errorf("unknown local port strategy %q", s)
	}
}

func (s LocalPortStrategy) String() string {
	if s == PortLocal {
		return "local"
	}
	return "server"
}

// origin is where a request came from and where it was sent.
type origin struct {
	remoteAddr string
	serverName string
	localPort  int
}

func resolveOrigin(r *http.Request, strategy LocalPortStrategy, forwarded bool) origin {
	o := origin{remoteAddr: hostOnly(r.RemoteAddr)}

	host, port := splitHostPort(r.Host)
	if forwarded {
		if xff := firstForwarded(r, "X-Forwarded-For"); xff != "" {
			o.remoteAddr = xff
		}
		if xfh := firstForwarded(r, "X-Forwarded-Host"); xfh != "" {
			host, port = splitHostPort(xfh)
		}
		if xfp := firstForwarded(r, "X-Forwarded-Port"); xfp != "" {
			port = xfp
		}
	}
	o.serverName = host

	switch strategy {
	case PortLocal:
		if addr, ok := r.Context().Value(http.LocalAddrContextKey).(net.Addr); ok {
			_, lp := splitHostPort(addr.String())
			o.localPort, _ = strconv.Atoi(lp)
		}
	default:
		if p, err := strconv.Atoi(port); err == nil {
			o.localPort = p
		} else {
			o.localPort = defaultPort(r, forwarded)
		}
	}
	return o
}

func defaultPort(r *http.Request, forwarded bool) int {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded {
		if p := firstForwarded(r, "X-Forwarded-Proto"); p != "" {
			scheme = strings.ToLower(p)
		}
	}
	if scheme == "https" {
		return 443
	}
	return 80
}

// firstForwarded returns the entry closest to the client of a
// comma-separated forwarding header.
func firstForwarded(r *http.Request, name string) string {
	first, _, _ := strings.Cut(r.Header.Get(name), ",")
	return strings.TrimSpace(first)
}

func hostOnly(addr string) string {
	h, _ := splitHostPort(addr)
	return h
}

func splitHostPort(hostport string) (host, port string) {
	h, p, err := net.SplitHostPort(hostport)
	if err != nil {
		return strings.TrimSuffix(strings.TrimPrefix(hostport, "["), "]"), ""
	}
	return h, p
}
