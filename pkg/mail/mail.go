package mail

import (
	"gopkg.in/gomail.v2"
)

type Config struct {
	Host     string `yaml:"host" envconfig:"SMTP_HOST" default:"localhost"`
	Port     int    `yaml:"port" envconfig:"SMTP_PORT" default:"587"`
	Email    string `yaml:"email" envconfig:"SMTP_EMAIL"`
	Password string `yaml:"password" envconfig:"SMTP_PASSWORD" json:"-"`
}

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Sender interface {
	Send(msg Message) error
}

type smtpSender struct {
	from   string
	dialer *gomail.Dialer
}

func NewSender(cfg Config) Sender {
	return &smtpSender{
		from:   cfg.Email,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Email, cfg.Password),
	}
}

func (s *smtpSender) Send(msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	return s.dialer.DialAndSend(m)
}
