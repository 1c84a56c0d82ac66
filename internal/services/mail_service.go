package services

import (
	"bytes"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"net/url"
	"strings"
	"time"
)

type IMailService interface {
	SendTranscriptReady(to, fileName string) error
	SendMailToResetPassword(to, token string) error
	SendPaymentReceipt(to string, amountMinor int64, currency string) error
}

// SMTPConfig holds SMTP plus branding config.
type SMTPConfig struct {
	Host       string // e.g. "smtp.gmail.com"
	Port       int    // 587 (STARTTLS) or 465 (SMTPS)
	Username   string
	Password   string
	From       string
	FromName   string
	UseSSL     bool
	RequireTLS bool

	AppName    string
	AppBaseURL string
}

type smtpMailService struct {
	cfg     SMTPConfig
	htmlTpl *template.Template
	textTpl *template.Template
}

func NewSMTPMailService(cfg SMTPConfig) (IMailService, error) {
	return &smtpMailService{
		cfg:     cfg,
		htmlTpl: template.Must(template.New("html").Parse(baseHTMLTemplate)),
		textTpl: template.Must(template.New("text").Parse(plainTextTemplate)),
	}, nil
}

func (s *smtpMailService) SendTranscriptReady(to, fileName string) error {
	subject := "Your transcript is ready"
	return s.sendRendered(to, subject, emailData{
		Title:     subject,
		Intro:     fmt.Sprintf("The transcription of %q has finished. Open your dashboard to read, edit or export it.", fileName),
		ButtonURL: strings.TrimRight(s.cfg.AppBaseURL, "/") + "/jobs",
		ButtonTxt: "View transcript",
		AppName:   s.cfg.AppName,
		Year:      time.Now().Year(),
	})
}

func (s *smtpMailService) SendMailToResetPassword(to, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(s.cfg.AppBaseURL, "/"), url.QueryEscape(token))
	subject := "Reset your password"
	return s.sendRendered(to, subject, emailData{
		Title:     subject,
		Intro:     "We received a request to reset your password. If this wasn't you, you can safely ignore this email.",
		ButtonURL: link,
		ButtonTxt: "Reset Password",
		AppName:   s.cfg.AppName,
		Year:      time.Now().Year(),
	})
}

func (s *smtpMailService) SendPaymentReceipt(to string, amountMinor int64, currency string) error {
	subject := "Payment received"
	return s.sendRendered(to, subject, emailData{
		Title:     subject,
		Intro:     fmt.Sprintf("We received your payment of %d.%02d %s. Thank you!", amountMinor/100, amountMinor%100, currency),
		ButtonURL: strings.TrimRight(s.cfg.AppBaseURL, "/") + "/billing",
		ButtonTxt: "View billing",
		AppName:   s.cfg.AppName,
		Year:      time.Now().Year(),
	})
}

type emailData struct {
	Title     string
	Intro     string
	ButtonURL string
	ButtonTxt string
	AppName   string
	Year      int
}

const baseHTMLTemplate = `<!doctype html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width,initial-scale=1">
  <title>{{.Title}}</title>
  <style>
    body { margin:0; padding:0; background:#0f172a; color:#f1f5f9; font-family:-apple-system,"Segoe UI",Roboto,Helvetica,Arial,sans-serif; }
    .container { max-width:600px; margin:40px auto; background:#1e293b; border-radius:12px; overflow:hidden; }
    .header { padding:24px 32px; border-bottom:1px solid rgba(148,163,184,.1); font-weight:700; font-size:20px; color:#60a5fa; }
    .hero { padding:32px; }
    h1 { margin:0 0 16px; font-size:24px; }
    p { margin:0 0 20px; line-height:1.7; color:#cbd5e1; }
    .btn { display:inline-block; padding:14px 28px; background:#2563eb; color:#fff !important; text-decoration:none; border-radius:10px; font-weight:600; }
    .muted { color:#94a3b8; font-size:13px; word-break:break-all; }
    .footer { padding:20px 32px; color:#64748b; font-size:13px; text-align:center; border-top:1px solid rgba(148,163,184,.1); }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">{{.AppName}}</div>
    <div class="hero">
      <h1>{{.Title}}</h1>
      <p>{{.Intro}}</p>
      {{if .ButtonURL}}
        <p><a class="btn" href="{{.ButtonURL}}">{{.ButtonTxt}}</a></p>
        <p class="muted">If the button doesn't work, open this link: {{.ButtonURL}}</p>
      {{end}}
    </div>
    <div class="footer">© {{.Year}} {{.AppName}}. All rights reserved.</div>
  </div>
</body>
</html>`

const plainTextTemplate = `{{.Title}}

{{.Intro}}

{{if .ButtonURL}}Open this link:
{{.ButtonURL}}
{{end}}

— {{.AppName}} (c) {{.Year}}
`

func (s *smtpMailService) sendRendered(to, subject string, data emailData) error {
	var hb, tb bytes.Buffer
	if err := s.htmlTpl.Execute(&hb, data); err != nil {
		return err
	}
	if err := s.textTpl.Execute(&tb, data); err != nil {
		return err
	}
	return s.send(to, subject, hb.String(), tb.String())
}

func (s *smtpMailService) send(to, subject, htmlBody, textBody string) error {
	fromHeader := s.formatFromHeader()
	boundary := fmt.Sprintf("alt_%d", time.Now().UnixNano())

	var msg bytes.Buffer
	write := func(format string, a ...any) { _, _ = msg.WriteString(fmt.Sprintf(format, a...)) }

	write("From: %s\r\n", fromHeader)
	write("To: %s\r\n", to)
	write("Subject: %s\r\n", subject)
	write("Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	write("MIME-Version: 1.0\r\n")
	write("Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	write("\r\n")

	write("--%s\r\n", boundary)
	write("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	write("%s\r\n\r\n", textBody)

	write("--%s\r\n", boundary)
	write("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	write("%s\r\n\r\n", htmlBody)

	write("--%s--\r\n", boundary)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	if s.cfg.UseSSL {
		// SMTPS (implicit TLS, usually port 465)
		tlsCfg := &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}
		conn, err := tls.Dial("tcp", addr, tlsCfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		c, err := smtp.NewClient(conn, s.cfg.Host)
		if err != nil {
			return err
		}
		defer c.Quit()
		return s.push(c, auth, to, msg.Bytes())
	}

	// STARTTLS path (typically port 587)
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return err
	}
	defer c.Quit()

	if ok, _ := c.Extension("STARTTLS"); ok {
		tlsCfg := &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}
		if err = c.StartTLS(tlsCfg); err != nil {
			return err
		}
	} else if s.cfg.RequireTLS {
		return fmt.Errorf("server does not support STARTTLS and RequireTLS=true")
	}

	return s.push(c, auth, to, msg.Bytes())
}

func (s *smtpMailService) push(c *smtp.Client, auth smtp.Auth, to string, msg []byte) error {
	if err := c.Auth(auth); err != nil {
		return err
	}
	if err := c.Mail(s.cfg.From); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err = w.Write(msg); err != nil {
		return err
	}
	return w.Close()
}

func (s *smtpMailService) formatFromHeader() string {
	name := strings.TrimSpace(s.cfg.FromName)
	if name == "" {
		return s.cfg.From
	}
	for i := 0; i < len(name); i++ {
		if name[i] > 127 {
			// RFC 2047 encoded word for non-ASCII display names.
			enc := base64.StdEncoding.EncodeToString([]byte(name))
			return fmt.Sprintf("=?UTF-8?B?%s?= <%s>", enc, s.cfg.From)
		}
	}
	return fmt.Sprintf("%s <%s>", name, s.cfg.From)
}
