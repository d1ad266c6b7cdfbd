package probe

import (
	"context"
	"fmt"
	"math"
	"net"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/hamed0406/pingwatch/internal/domain"
)

const (
	// DefaultTimeout is how long a single echo request may wait for a reply.
	DefaultTimeout = 1 * time.Second

	// DefaultCount is the number of echo requests per attempt.
	DefaultCount = 1

	// DefaultBinary is the ping executable looked up on PATH.
	DefaultBinary = "ping"
)

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Pinger probes a target with the system ping command.
type Pinger struct {
	timeout  time.Duration
	count    int
	binary   string
	resolver Resolver
	run      Runner
}

// Option configures a Pinger.
type Option func(*Pinger) error

// WithTimeout sets the per-reply wait.
func WithTimeout(d time.Duration) Option {
	return func(p *Pinger) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %v", d)
		}
		p.timeout = d
		return nil
	}
}

// WithCount sets the number of echo requests sent per attempt.
func WithCount(n int) Option {
	return func(p *Pinger) error {
		if n < 1 {
			return fmt.Errorf("count must be at least 1, got %d", n)
		}
		p.count = n
		return nil
	}
}

// WithBinary overrides the ping executable.
func WithBinary(path string) Option {
	return func(p *Pinger) error {
		if strings.TrimSpace(path) == "" {
			return fmt.Errorf("binary must not be empty")
		}
		p.binary = path
		return nil
	}
}

// WithResolver sets how host names are turned into addresses.
func WithResolver(r Resolver) Option {
	return func(p *Pinger) error {
		if r == nil {
			return fmt.Errorf("resolver must not be nil")
		}
		p.resolver = r
		return nil
	}
}

// WithRunner replaces command execution, mainly for tests.
func WithRunner(r Runner) Option {
	return func(p *Pinger) error {
		if r == nil {
			return fmt.Errorf("runner must not be nil")
		}
		p.run = r
		return nil
	}
}

// NewPinger creates a Pinger with defaults overridden by opts.
func NewPinger(opts ...Option) (*Pinger, error) {
	p := &Pinger{
		timeout:  DefaultTimeout,
		count:    DefaultCount,
		binary:   DefaultBinary,
		resolver: NewSystemResolver(DefaultResolveTimeout),
		run:      execRunner,
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, fmt.Errorf("pinger: %w", err)
		}
	}
	return p, nil
}

// Probe sends the echo request(s) and reports reachability and latency.
func (p *Pinger) Probe(ctx context.Context, target domain.Target) domain.AttemptResult {
	res := domain.AttemptResult{Target: target, Timestamp: time.Now()}

	addr := target.Address
	if net.ParseIP(addr) == nil {
		ip, err := p.resolver.Resolve(ctx, addr)
		if err != nil {
			res.Err = fmt.Errorf("resolve %s: %w", addr, err)
			return res
		}
		addr = ip.String()
	}

	// ping enforces -W itself; the context bound only guards a wedged process.
	cctx, cancel := context.WithTimeout(ctx, p.budget())
	defer cancel()

	out, err := p.run(cctx, p.binary, p.args(addr)...)
	if err != nil {
		res.Err = fmt.Errorf("ping %s: %w", addr, err)
		return res
	}

	rtt, err := parseOutput(string(out))
	if err != nil {
		res.Err = fmt.Errorf("ping %s: %w", addr, err)
		return res
	}

	res.Reachable = true
	res.Latency = rtt
	return res
}

// wait is the -W value: whole seconds, rounded up, at least 1.
func (p *Pinger) wait() int {
	w := int(math.Ceil(p.timeout.Seconds()))
	if w < 1 {
		w = 1
	}
	return w
}

// budget covers the 1s gap ping leaves between requests plus the reply wait
// for the last one.
func (p *Pinger) budget() time.Duration {
	return time.Duration(p.count-1)*time.Second + time.Duration(p.wait())*time.Second + time.Second
}

func (p *Pinger) args(addr string) []string {
	return []string{"-c", strconv.Itoa(p.count), "-W", strconv.Itoa(p.wait()), addr}
}

// parseOutput extracts the first round-trip time from ping output.
func parseOutput(output string) (time.Duration, error) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		idx := strings.Index(line, "time=")
		if idx < 0 {
			idx = strings.Index(line, "time<")
		}
		if idx < 0 {
			continue
		}

		rest := line[idx+len("time="):]
		end := strings.IndexFunc(rest, func(r rune) bool {
			return (r < '0' || r > '9') && r != '.'
		})
		if end == -1 {
			end = len(rest)
		}
		rttStr := rest[:end]
		unit := strings.TrimSpace(rest[end:])

		rtt, err := strconv.ParseFloat(rttStr, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse RTT %q: %w", rttStr, err)
		}

		var scale time.Duration
		switch {
		case strings.HasPrefix(unit, "ms"):
			scale = time.Millisecond
		case strings.HasPrefix(unit, "us"), strings.HasPrefix(unit, "µs"):
			scale = time.Microsecond
		case unit == "s" || strings.HasPrefix(unit, "s "):
			scale = time.Second
		default:
			return 0, fmt.Errorf("could not determine time unit from %q", unit)
		}
		return time.Duration(math.Round(rtt * float64(scale))), nil
	}
	return 0, fmt.Errorf("RTT not found in ping output")
}
