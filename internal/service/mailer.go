package service

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer is the SMTP-backed Notifier. With smtp.dry_run set it only
// logs what it would have sent, which keeps local development usable
// without a mail account.
type Mailer struct {
	host   string
	port   int
	user   string
	pass   string
	sender string
	domain string
	ssl    bool
	dryRun bool
}

func NewMailer() *Mailer {
	return &Mailer{
		host:   viper.GetString("smtp.host"),
		port:   viper.GetInt("smtp.port"),
		user:   viper.GetString("smtp.username"),
		pass:   viper.GetString("smtp.password"),
		sender: viper.GetString("smtp.sender"),
		domain: viper.GetString("host.domain"),
		ssl:    viper.GetBool("host.ssl.enabled"),
		dryRun: viper.GetBool("smtp.dry_run"),
	}
}

func (m *Mailer) send(to, subject, body string) error {
	if m.dryRun {
		zap.L().Info("Dry-run mail", zap.String("to", to), zap.String("subject", subject))
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.sender)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	d := gomail.NewDialer(m.host, m.port, m.user, m.pass)

	return d.DialAndSend(msg)
}

func (m *Mailer) SendWelcome(email string, purgeAfterDays int) error {
	body := fmt.Sprintf(
		"<h2>Welcome to Dead Man's Tab</h2>"+
			"<p>You've successfully registered. We'll monitor your activity and purge "+
			"your record after <strong>%d days</strong> of inaction.</p>"+
			"<p>Make sure to click the verification email you'll be getting next!</p>",
		purgeAfterDays)

	return m.send(email, "Welcome to Dead Man's Tab", body)
}

func (m *Mailer) SendReminder(email string, daysRemaining int, verified bool) error {
	hint := "Visit one of your tracked links or re-verify to reset the countdown."
	if !verified {
		hint = "Your address is still unverified. Verify now to reset the countdown."
	}

	body := fmt.Sprintf(
		"<h2>Your purge countdown is running</h2>"+
			"<p>Your record will be purged in <strong>%d days</strong> unless you act.</p>"+
			"<p>%s</p>",
		daysRemaining, hint)

	return m.send(email, "Reminder: your purge countdown is running", body)
}

func (m *Mailer) SendVerification(email, userID, token string) error {
	var s string
	if m.ssl {
		s = "s"
	}

	link := fmt.Sprintf("http%v://%v/api/users/verify?user_id=%v&token=%v", s, m.domain, userID, token)

	body := fmt.Sprintf(
		"<h2>Email verification required</h2>"+
			"<p>Click <a href='%v'>here</a> to verify your address and prevent the purge.</p>"+
			"<p>This link will expire in 24 hours.</p>",
		link)

	return m.send(email, "Verify your email to prevent the purge", body)
}
