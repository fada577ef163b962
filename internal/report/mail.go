package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

const previewChars = 500

// Mailer submits the report email over authenticated SMTP with STARTTLS.
type Mailer struct {
	host     string
	port     int
	user     string
	password string
	to       string
	logger   *slog.Logger
	now      func() time.Time
}

func NewMailer(host string, port int, user, password, to string, logger *slog.Logger) *Mailer {
	return &Mailer{
		host:     host,
		port:     port,
		user:     user,
		password: password,
		to:       to,
		logger:   logger,
		now:      time.Now,
	}
}

// Send composes and transmits the report email, attaching the PDF when it
// exists. Every failure is logged and surfaced as false; Send never panics
// the pipeline.
func (m *Mailer) Send(pdfPath, report string, meta RunMetadata) bool {
	m.logger.Info("📧 Preparing email...")

	msg := mail.NewMsg()
	if err := msg.From(m.user); err != nil {
		m.logger.Error("invalid sender address", "error", err)
		return false
	}
	if err := msg.To(m.to); err != nil {
		m.logger.Error("invalid recipient address", "error", err)
		return false
	}

	now := m.now()
	msg.Subject(fmt.Sprintf("🤖 Upwork Job Analysis - %s", now.Format("02 Jan 2006")))
	msg.SetBodyString(mail.TypeTextPlain, buildBody(report, meta, now))

	if pdfPath != "" {
		if _, err := os.Stat(pdfPath); err == nil {
			msg.AttachFile(pdfPath)
			m.logger.Info("✅ PDF attached", "path", pdfPath)
		} else {
			m.logger.Warn("⚠️ PDF file not found, sending without attachment", "path", pdfPath)
		}
	} else {
		m.logger.Warn("⚠️ No PDF to attach, sending without attachment")
	}

	client, err := m.client()
	if err != nil {
		m.logger.Error("failed to create SMTP client", "error", err)
		return false
	}

	if err := client.DialAndSend(msg); err != nil {
		m.logger.Error("email sending failed", "error", err)
		return false
	}

	m.logger.Info("✅ Email sent successfully")
	return true
}

// VerifyConnection dials and authenticates against the SMTP endpoint
// without sending anything. Used by the credentials check.
func (m *Mailer) VerifyConnection(ctx context.Context) error {
	client, err := m.client()
	if err != nil {
		return err
	}
	if err := client.DialWithContext(ctx); err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	return client.Close()
}

func (m *Mailer) client() (*mail.Client, error) {
	client, err := mail.NewClient(m.host,
		mail.WithPort(m.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.user),
		mail.WithPassword(m.password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return client, nil
}

// buildBody assembles the plain-text body: run summary plus a bounded
// preview of the analysis.
func buildBody(report string, meta RunMetadata, now time.Time) string {
	divider := strings.Repeat("=", 60)

	var b strings.Builder
	b.WriteString("Hi,\n\nYour daily Upwork job market analysis is ready!\n\n")
	fmt.Fprintf(&b, "%s\nSUMMARY\n%s\n\n", divider, divider)
	fmt.Fprintf(&b, "Date: %s\n", now.Format("02 January 2006, 03:04 PM"))
	if meta.SearchQuery != "" {
		fmt.Fprintf(&b, "Search Query: %s\n", meta.SearchQuery)
	}
	if meta.TotalJobs > 0 {
		fmt.Fprintf(&b, "Total Jobs Found: %d\n", meta.TotalJobs)
	}
	if meta.Pages > 0 {
		fmt.Fprintf(&b, "Pages Scraped: %d\n", meta.Pages)
	}

	fmt.Fprintf(&b, "\n%s\nPREVIEW\n%s\n\n", divider, divider)
	preview := []rune(strings.TrimSpace(report))
	if len(preview) > previewChars {
		preview = preview[:previewChars]
	}
	b.WriteString(string(preview))
	b.WriteString("...\n\n")

	fmt.Fprintf(&b, "%s\n\n", divider)
	b.WriteString("📎 Full detailed report is attached as PDF.\n\n")
	b.WriteString("Best regards,\nYour Upwork Job Analyzer Bot\n\n")
	fmt.Fprintf(&b, "%s\n", divider)
	b.WriteString("This is an automated email. Do not reply.\n")

	return b.String()
}
