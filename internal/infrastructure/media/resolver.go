// Package media turns legacy file names into URLs the storefront can fetch
// and serves the local media directory over HTTP.
package media

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Resolver maps a stored file name to a fetchable URL
type Resolver interface {
	Resolve(ctx context.Context, filename string) (string, error)
}

// ErrEmptyFilename is returned for a blank file name
var ErrEmptyFilename = errors.New("media: file name is required")

// HostResolver builds URLs on a fixed host:port template. It never touches
// the network.
type HostResolver struct {
	base string
}

var _ Resolver = (*HostResolver)(nil)

// NewHostResolver creates a resolver for http://host:port/prefix/<file>.
// An empty host is replaced by the machine's outbound IP address.
func NewHostResolver(host string, port int, prefix string) *HostResolver {
	if host == "" {
		host = OutboundIP()
	}
	u := url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/" + strings.Trim(prefix, "/"),
	}
	return &HostResolver{base: strings.TrimSuffix(u.String(), "/")}
}

// Base returns the URL prefix every file name is appended to
func (r *HostResolver) Base() string {
	return r.base
}

// Resolve implements Resolver
func (r *HostResolver) Resolve(_ context.Context, filename string) (string, error) {
	if filename == "" {
		return "", ErrEmptyFilename
	}
	return r.base + "/" + url.PathEscape(filename), nil
}

// OutboundIP returns the local address used for outbound traffic, or the
// loopback address when no route exists. UDP dial sends no packets.
func OutboundIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return "127.0.0.1"
	}
	return addr.IP.String()
}

// objectKey joins the path prefix and a file name into a storage key
func objectKey(prefix, filename string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return filename
	}
	return fmt.Sprintf("%s/%s", prefix, filename)
}
