// Package mail отправляет уведомления об активации версий скидок
// через SMTP-сервер компании.
package mail

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"apartment-finder/internal/app/ds"

	log "github.com/sirupsen/logrus"
)

// Sender отправляет письма с настройками конкретной компании
type Sender struct {
	company *ds.Company
}

func NewSender(company *ds.Company) *Sender {
	return &Sender{company: company}
}

// Configured сообщает, заполнены ли почтовые настройки компании
func (s *Sender) Configured() bool {
	return s.company.MailServer != "" && s.company.MailUsername != ""
}

// Send отправляет HTML-письмо списку получателей. Пустой список
// получателей не считается ошибкой, письмо просто не уходит.
func (s *Sender) Send(subject, htmlBody string, recipients []string) error {
	if len(recipients) == 0 {
		log.Info("mail: no recipients, skipping send")
		return nil
	}
	if !s.Configured() {
		return fmt.Errorf("mail settings are not configured for company %s", s.company.Subdomain)
	}

	addr := fmt.Sprintf("%s:%d", s.company.MailServer, s.company.MailPort)
	auth := smtp.PlainAuth("", s.company.MailUsername, s.company.MailPassword, s.company.MailServer)

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", s.company.MailUsername))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(recipients, ", ")))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	var err error
	if s.company.MailUseTLS {
		err = s.sendWithStartTLS(addr, auth, recipients, []byte(msg.String()))
	} else {
		err = smtp.SendMail(addr, auth, s.company.MailUsername, recipients, []byte(msg.String()))
	}
	if err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	log.Infof("mail sent to %d recipients: %s", len(recipients), subject)
	return nil
}

// sendWithStartTLS повторяет smtp.SendMail, но с явным STARTTLS
func (s *Sender) sendWithStartTLS(addr string, auth smtp.Auth, recipients []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: s.company.MailServer}); err != nil {
		return err
	}
	if err := client.Auth(auth); err != nil {
		return err
	}
	if err := client.Mail(s.company.MailUsername); err != nil {
		return err
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}
