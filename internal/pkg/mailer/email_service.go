package mailer

import (
	"fmt"
	"html"

	"gopkg.in/gomail.v2"
)

type BookingConfirmation struct {
	To        string
	OwnerName string
	PetName   string
	Date      string // YYYY-MM-DD
	Time      string // HH:MM
}

type IEmailService interface {
	SendBookingConfirmation(c BookingConfirmation) error
}

type emailService struct {
	dialer     *gomail.Dialer
	sender     string
	senderName string
}

func NewEmailService(host string, port int, username, password, senderName string) IEmailService {
	return &emailService{
		dialer:     gomail.NewDialer(host, port, username, password),
		sender:     username,
		senderName: senderName,
	}
}

func (s *emailService) SendBookingConfirmation(c BookingConfirmation) error {
	m := newConfirmationMessage(s.sender, s.senderName, c)
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send booking confirmation to %s: %w", c.To, err)
	}
	return nil
}

func newConfirmationMessage(sender, senderName string, c BookingConfirmation) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", sender, senderName)
	m.SetHeader("To", c.To)
	m.SetHeader("Subject", fmt.Sprintf("Appointment confirmed for %s", c.PetName))

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>See you soon, %s!</h2>
			<p>The appointment for <strong>%s</strong> is booked.</p>
			<p style="font-size: 18px;">%s at %s</p>
			<p>If you need to change it, just open the chat and let us know.</p>
		</div>
	`, html.EscapeString(c.OwnerName), html.EscapeString(c.PetName), c.Date, c.Time)

	m.SetBody("text/html", body)
	return m
}
