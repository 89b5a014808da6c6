package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/secrets"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

const implicitTLSPort = 465

// sendFunc matches smtp.SendMail so tests can capture the message.
type sendFunc func(addr string, a sasl.Client, from string, to []string, r io.Reader) error

type Email struct {
	cfg      config.EmailConfig
	log      *slog.Logger
	now      func() time.Time
	send     sendFunc
	password func(config.EmailConfig) (string, error)
}

func NewEmail(cfg config.EmailConfig, log *slog.Logger) *Email {
	if log == nil {
		log = slog.Default()
	}
	e := &Email{
		cfg:      cfg,
		log:      log,
		now:      time.Now,
		password: secrets.GetSMTPPassword,
	}
	if cfg.SMTPPort == implicitTLSPort {
		e.send = smtp.SendMailTLS
	} else {
		e.send = smtp.SendMail
	}
	return e
}

func (e *Email) Name() string { return "email" }

func (e *Email) addr() string {
	return net.JoinHostPort(e.cfg.SMTPHost, strconv.Itoa(e.cfg.SMTPPort))
}

// Send mails the digest. In filtered mode the digest lists every qualifying
// job in the window, so a run with nothing new still produces a message.
func (e *Email) Send(ctx context.Context, b Batch) error {
	jobs := b.Filtered
	if e.cfg.Mode == config.ModeNew {
		if len(b.New) == 0 {
			e.log.Info("no new jobs, skipping email", "run_id", b.RunID)
			return nil
		}
		jobs = b.New
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := e.Compose(jobs, b.MaxAgeDays)
	if err != nil {
		return err
	}

	pw, err := e.password(e.cfg)
	if err != nil {
		return err
	}
	auth := sasl.NewPlainClient("", e.cfg.Username, pw)

	if err := e.send(e.addr(), auth, e.cfg.From, e.cfg.To, bytes.NewReader(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	e.log.Info("email sent", "run_id", b.RunID, "to", strings.Join(e.cfg.To, ","), "jobs", len(jobs))
	return nil
}

// Compose builds the multipart/alternative message for jobs.
func (e *Email) Compose(jobs []domain.JobRecord, days int) ([]byte, error) {
	text, err := RenderText(jobs, days)
	if err != nil {
		return nil, fmt.Errorf("render text: %w", err)
	}
	html, err := RenderHTML(jobs, days)
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}

	var h mail.Header
	h.SetDate(e.now())
	h.SetSubject(Subject(len(jobs), days))
	h.SetAddressList("From", []*mail.Address{{Address: e.cfg.From}})
	to := make([]*mail.Address, 0, len(e.cfg.To))
	for _, addr := range e.cfg.To {
		to = append(to, &mail.Address{Address: addr})
	}
	h.SetAddressList("To", to)
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("message id: %w", err)
	}

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, err
	}
	tw, err := mw.CreateInline()
	if err != nil {
		return nil, err
	}
	if err := writePart(tw, "text/plain", text); err != nil {
		return nil, err
	}
	if err := writePart(tw, "text/html", html); err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writePart(tw *mail.InlineWriter, contentType, body string) error {
	var ph mail.InlineHeader
	ph.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	w, err := tw.CreatePart(ph)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, body); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// Verify connects and authenticates without sending anything.
func (e *Email) Verify(ctx context.Context) error {
	if e.cfg.SMTPHost == "" || e.cfg.Username == "" {
		return errors.New("smtp host and username are required")
	}
	pw, err := e.password(e.cfg)
	if err != nil {
		return err
	}

	var c *smtp.Client
	if e.cfg.SMTPPort == implicitTLSPort {
		c, err = smtp.DialTLS(e.addr(), nil)
	} else {
		c, err = smtp.DialStartTLS(e.addr(), nil)
	}
	if err != nil {
		return fmt.Errorf("smtp dial %s: %w", e.addr(), err)
	}
	defer c.Close()

	if dl, ok := ctx.Deadline(); ok {
		c.CommandTimeout = time.Until(dl)
	}
	if err := c.Auth(sasl.NewPlainClient("", e.cfg.Username, pw)); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	return c.Quit()
}
