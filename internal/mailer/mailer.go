// Package mailer sends the post-checkout rating email. Delivery is
// best-effort: callers log failures and move on, and the outbox poller
// retries on the next tick.
package mailer

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/smtp"
	"time"
)

type Mailer interface {
	SendRatingEmail(ctx context.Context, recipient, name string, pointsEarned, totalPoints int, ratingURL, orderNumber string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	Timeout  time.Duration
}

type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) SendRatingEmail(ctx context.Context, recipient, name string, pointsEarned, totalPoints int, ratingURL, orderNumber string) error {
	subject := fmt.Sprintf("You earned %d points! Rate your products", pointsEarned)
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\n"+
			"Thank you for your order #%s. You earned %d points and now have %d points in total.\r\n\r\n"+
			"Rate the products you bought and earn bonus points:\r\n%s\r\n\r\n"+
			"This link expires in 30 days.\r\n",
		name, orderNumber, pointsEarned, totalPoints, ratingURL)

	msg := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		m.cfg.FromName, m.cfg.From, recipient, subject, body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)

	// bound the whole exchange; a wedged mail server must not back up the poller
	deadline := time.Now().Add(m.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn, err := net.DialTimeout("tcp", addr, time.Until(deadline))
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return fmt.Errorf("set smtp deadline: %w", err)
	}

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(nil); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if m.cfg.Username != "" {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := client.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(recipient); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}
	return client.Quit()
}

// DisabledMailer logs instead of sending; used when emails are turned off.
type DisabledMailer struct{}

func (DisabledMailer) SendRatingEmail(_ context.Context, recipient, _ string, _, _ int, _, orderNumber string) error {
	log.Printf("emails disabled, would send rating email to %s for order %s", recipient, orderNumber)
	return nil
}
