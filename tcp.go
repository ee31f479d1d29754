package netpc

import (
	"context"
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// Connection establishment syscalls, replaceable in tests.
var (
	sysSocket = func() (int, error) {
		return unix.Socket(unix.AF_INET, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	}
	sysConnect = func(fd int, sa unix.Sockaddr) error {
		return unix.Connect(fd, sa)
	}
)

// lookupInet4 resolves host to its first IPv4 address.
var lookupInet4 = func(ctx context.Context, host string) ([4]byte, error) {
	var addr [4]byte
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip4", host)
	if err != nil || len(ips) == 0 {
		return addr, ErrResolve
	}
	ip4 := ips[0].To4()
	if ip4 == nil {
		return addr, ErrResolve
	}
	copy(addr[:], ip4)
	return addr, nil
}

// TCPConnect composes a Socket with a host/port endpoint.
type TCPConnect struct {
	Socket

	host string
	port int
}

// NewTCPConnect returns an unconnected connector for host:port.
func NewTCPConnect(host string, port int) *TCPConnect {
	c := &TCPConnect{host: host, port: port}
	c.fd = -1
	return c
}

func (c *TCPConnect) SetHost(host string) { c.host = host }

func (c *TCPConnect) Host() string { return c.host }

func (c *TCPConnect) SetPort(port int) { c.port = port }

func (c *TCPConnect) Port() int { return c.port }

// Init establishes a fresh connection, replacing any prior one and
// clearing the error state. The socket comes back connected, in
// non-blocking mode and with Nagle disabled. ctx bounds only the
// resolver; connect itself runs while the descriptor is still
// blocking.
func (c *TCPConnect) Init(ctx context.Context) error {
	c.Close()
	c.ResetErr()
	fd, err := sysSocket()
	if err != nil {
		return c.setErr(fmt.Errorf("failed to construct tcp socket: %w", err))
	}
	addr, err := lookupInet4(ctx, c.host)
	if err != nil {
		sysClose(fd)
		return c.setErr(fmt.Errorf("failed to resolve host=%s: %w", c.host, err))
	}
	if err = sysConnect(fd, &unix.SockaddrInet4{Port: c.port, Addr: addr}); err != nil {
		sysClose(fd)
		return c.setErr(fmt.Errorf("failed to connect to host=%s: %w", c.host, err))
	}
	c.SetFd(fd)
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	return c.SetBlock(false)
}
