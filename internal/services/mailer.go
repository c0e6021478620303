package services

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPConfig carries the connection settings supplied with each send
// request. The UI forwards the values stored in the settings singleton.
type SMTPConfig struct {
	SMTPHost       string `json:"smtpHost"`
	SMTPPort       int    `json:"smtpPort"`
	SMTPEncryption string `json:"smtpEncryption"` // SSL/TLS, STARTTLS, None
	SMTPUser       string `json:"smtpUser"`
	SMTPPass       string `json:"smtpPass"`
	SenderName     string `json:"senderName"`
	SenderEmail    string `json:"senderEmail"`
}

// EmailRequest is one outbound message.
type EmailRequest struct {
	To      string     `json:"to"`
	Subject string     `json:"subject"`
	Body    string     `json:"body"`
	Config  SMTPConfig `json:"config"`
}

// MailerService delivers invoice emails over SMTP.
type MailerService struct{}

// NewMailerService creates a new mailer service
func NewMailerService() *MailerService {
	return &MailerService{}
}

// Send delivers a plain-text email using the config embedded in the
// request.
func (m *MailerService) Send(req *EmailRequest) error {
	cfg := req.Config
	if cfg.SMTPHost == "" {
		return fmt.Errorf("smtp host not configured")
	}

	// Build email message
	message := fmt.Sprintf("From: \"%s\" <%s>\r\n", cfg.SenderName, cfg.SenderEmail)
	message += fmt.Sprintf("To: %s\r\n", req.To)
	message += fmt.Sprintf("Subject: %s\r\n", req.Subject)
	message += "Content-Type: text/plain; charset=UTF-8\r\n"
	message += "\r\n"
	message += req.Body

	addr := fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort)
	var auth smtp.Auth
	if cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPHost)
	}

	var err error
	if cfg.SMTPEncryption == "SSL/TLS" {
		err = m.sendImplicitTLS(addr, auth, &cfg, req.To, []byte(message))
	} else {
		// STARTTLS is negotiated automatically by SendMail when the
		// server advertises it; "None" falls through the same path.
		err = smtp.SendMail(addr, auth, cfg.SenderEmail, []string{req.To}, []byte(message))
	}

	if err != nil {
		// QQ mail and some other providers return "short response" even
		// though the message was accepted. Ignore that specific error.
		if !strings.Contains(err.Error(), "short response") {
			return fmt.Errorf("failed to send email: %w", err)
		}
	}

	return nil
}

// sendImplicitTLS handles providers that expect a TLS connection from the
// first byte (typically port 465).
func (m *MailerService) sendImplicitTLS(addr string, auth smtp.Auth, cfg *SMTPConfig, to string, message []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: cfg.SMTPHost})
	if err != nil {
		return err
	}

	client, err := smtp.NewClient(conn, cfg.SMTPHost)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(cfg.SenderEmail); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(message); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}
