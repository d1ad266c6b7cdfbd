package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/pingwatch/internal/config"
	"github.com/hamed0406/pingwatch/internal/domain"
)

// Mailer submits alerts over SMTP.
type Mailer struct {
	addr     string
	host     string
	from     string
	user     string
	password string
	mode     string
	timeout  time.Duration
	tlsConf  *tls.Config

	log *zap.Logger
}

func NewMailer(cfg config.SMTP) *Mailer {
	h := host(cfg.Addr)
	mode := cfg.TLS
	if mode == "" {
		mode = config.TLSNone
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Mailer{
		addr:     cfg.Addr,
		host:     h,
		from:     cfg.From,
		user:     cfg.User,
		password: cfg.Password,
		mode:     mode,
		timeout:  timeout,
		tlsConf:  &tls.Config{ServerName: h, MinVersion: tls.VersionTLS12},
		log:      zap.NewNop(),
	}
}

func (m *Mailer) WithLogger(l *zap.Logger) *Mailer {
	if l == nil {
		return m
	}
	cp := *m
	cp.log = l.With(zap.String("component", "notify.mailer"))
	return &cp
}

// WithTLSConfig replaces the TLS settings used for starttls and implicit modes.
func (m *Mailer) WithTLSConfig(c *tls.Config) *Mailer {
	cp := *m
	cp.tlsConf = c
	return &cp
}

func (m *Mailer) Name() string { return "smtp" }

// Send delivers msg to every To and Cc recipient in one SMTP transaction.
func (m *Mailer) Send(ctx context.Context, msg domain.AlertMessage) error {
	rcpts := msg.Recipients()
	if len(rcpts) == 0 {
		return ErrNoRecipients
	}

	start := time.Now()
	log := m.log.With(
		zap.String("smtp_addr", m.addr),
		zap.String("tls", m.mode),
		zap.String("from", m.from),
		zap.Strings("rcpt", rcpts),
	)

	c, err := m.dial(ctx)
	if err != nil {
		log.Error("smtp connect failed", zap.Error(err))
		return err
	}
	defer func() { _ = c.Close() }()

	if m.mode == config.TLSStartTLS {
		if ok, _ := c.Extension("STARTTLS"); !ok {
			return errors.New("smtp server does not support STARTTLS")
		}
		if err := c.StartTLS(m.tlsConf); err != nil {
			log.Error("smtp starttls failed", zap.Error(err))
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if m.user != "" || m.password != "" {
		if ok, _ := c.Extension("AUTH"); !ok {
			return fmt.Errorf("%w: server does not offer AUTH", ErrAuth)
		}
		if err := c.Auth(smtp.PlainAuth("", m.user, m.password, m.host)); err != nil {
			log.Error("smtp auth failed", zap.Error(err))
			return fmt.Errorf("%w: %w", ErrAuth, err)
		}
	}

	if err := c.Mail(m.from); err != nil {
		log.Error("smtp MAIL FROM failed", zap.Error(err))
		return classify(err)
	}
	for _, r := range rcpts {
		if err := c.Rcpt(r); err != nil {
			log.Error("smtp RCPT TO failed", zap.String("to", r), zap.Error(err))
			return fmt.Errorf("rcpt %s: %w", r, classify(err))
		}
	}
	w, err := c.Data()
	if err != nil {
		log.Error("smtp DATA failed", zap.Error(err))
		return err
	}
	if _, err := w.Write(m.compose(msg, start)); err != nil {
		log.Error("smtp write failed", zap.Error(err))
		return err
	}
	if err := w.Close(); err != nil {
		log.Error("smtp close failed", zap.Error(err))
		return err
	}
	_ = c.Quit()

	log.Info("email sent", zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (m *Mailer) dial(ctx context.Context) (*smtp.Client, error) {
	deadline := time.Now().Add(m.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	dctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	dialer := &net.Dialer{}
	var (
		conn net.Conn
		err  error
	)
	if m.mode == config.TLSImplicit {
		td := &tls.Dialer{NetDialer: dialer, Config: m.tlsConf}
		conn, err = td.DialContext(dctx, "tcp", m.addr)
	} else {
		conn, err = dialer.DialContext(dctx, "tcp", m.addr)
	}
	if err != nil {
		return nil, err
	}
	// bounds the whole conversation, not just the dial
	_ = conn.SetDeadline(deadline)

	c, err := smtp.NewClient(conn, m.host)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return c, nil
}

func (m *Mailer) compose(msg domain.AlertMessage, now time.Time) []byte {
	var b strings.Builder
	b.WriteString("From: " + m.from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	if len(msg.Cc) > 0 {
		b.WriteString("Cc: " + strings.Join(msg.Cc, ", ") + "\r\n")
	}
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	b.WriteString("Date: " + now.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	body := strings.ReplaceAll(msg.Body, "\r\n", "\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

// classify marks SMTP authentication related replies with ErrAuth.
func classify(err error) error {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		switch tpErr.Code {
		case 530, 534, 535:
			return fmt.Errorf("%w: %w", ErrAuth, err)
		}
	}
	return err
}

func host(addr string) string {
	if h, _, err := net.SplitHostPort(addr); err == nil {
		return h
	}
	return addr
}
