package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// DefaultResolveTimeout bounds a single name lookup.
const DefaultResolveTimeout = 2 * time.Second

// Resolver turns a host name into one address. A name that definitely does
// not exist is reported as ErrUnresolvable; anything else (timeouts, SERVFAIL)
// is an ordinary, retryable error.
type Resolver interface {
	Resolve(ctx context.Context, host string) (net.IP, error)
}

// SystemResolver uses the operating system resolver.
type SystemResolver struct {
	r       *net.Resolver
	timeout time.Duration
}

func NewSystemResolver(timeout time.Duration) *SystemResolver {
	if timeout <= 0 {
		timeout = DefaultResolveTimeout
	}
	return &SystemResolver{r: &net.Resolver{}, timeout: timeout}
}

func (s *SystemResolver) Resolve(ctx context.Context, host string) (net.IP, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	addrs, err := s.r.LookupIPAddr(ctx, strings.TrimSuffix(host, "."))
	if err != nil {
		var de *net.DNSError
		if errors.As(err, &de) && de.IsNotFound {
			return nil, fmt.Errorf("%w: %s", ErrUnresolvable, de.Err)
		}
		return nil, err
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: no addresses", ErrUnresolvable)
	}
	return pickIP(addrs), nil
}

// pickIP prefers IPv4, which every ping binary handles.
func pickIP(addrs []net.IPAddr) net.IP {
	for _, a := range addrs {
		if a.IP.To4() != nil {
			return a.IP
		}
	}
	return addrs[0].IP
}

// DNSResolver queries a specific DNS server directly, bypassing the host
// resolver configuration.
type DNSResolver struct {
	server string
	client *dns.Client
}

// NewDNSResolver targets server ("host" or "host:port", port 53 by default).
func NewDNSResolver(server string, timeout time.Duration) (*DNSResolver, error) {
	server = strings.TrimSpace(server)
	if server == "" {
		return nil, fmt.Errorf("dns resolver: server must not be empty")
	}
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}
	if timeout <= 0 {
		timeout = DefaultResolveTimeout
	}
	return &DNSResolver{
		server: server,
		client: &dns.Client{Timeout: timeout},
	}, nil
}

func (d *DNSResolver) Resolve(ctx context.Context, host string) (net.IP, error) {
	nxdomain := 0
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		m := new(dns.Msg)
		m.SetQuestion(dns.Fqdn(host), qtype)
		m.RecursionDesired = true

		r, _, err := d.client.ExchangeContext(ctx, m, d.server)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", d.server, err)
		}

		switch r.Rcode {
		case dns.RcodeSuccess:
		case dns.RcodeNameError:
			nxdomain++
			continue
		default:
			return nil, fmt.Errorf("query %s: %s", d.server, dns.RcodeToString[r.Rcode])
		}

		for _, rr := range r.Answer {
			switch a := rr.(type) {
			case *dns.A:
				return a.A, nil
			case *dns.AAAA:
				return a.AAAA, nil
			}
		}
	}
	if nxdomain > 0 {
		return nil, fmt.Errorf("%w: NXDOMAIN", ErrUnresolvable)
	}
	return nil, fmt.Errorf("%w: no A or AAAA records", ErrUnresolvable)
}
