package services

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/shopspring/decimal"
)

// RequestEmailDetails describes a newly created customization request
type RequestEmailDetails struct {
	RequestID   uint
	Title       string
	Description string
	Budget      decimal.Decimal
	Deadline    time.Time
}

// ResponseEmailDetails describes an artist's offer on a customization request
type ResponseEmailDetails struct {
	RequestID                uint
	RequestTitle             string
	ResponseID               uint
	ArtistName               string
	Price                    decimal.Decimal
	Notes                    string
	EstimationCompletionTime time.Time
	Resubmitted              bool
}

// EmailService sends customization lifecycle notifications
type EmailService interface {
	SendCustomizationRequestReceivedEmail(ctx context.Context, toEmail, name string, details RequestEmailDetails) error
	SendCustomizationResponseEmail(ctx context.Context, toEmail, name string, details ResponseEmailDetails) error
}

var emailServiceInstance EmailService = &LogEmailService{}

// GetEmailService returns the configured email service
func GetEmailService() EmailService {
	return emailServiceInstance
}

// SetEmailService sets the email service instance
func SetEmailService(service EmailService) {
	emailServiceInstance = service
}

// SendGridEmailService delivers mail through the SendGrid v3 API
type SendGridEmailService struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

// NewSendGridEmailService creates a SendGrid-backed EmailService
func NewSendGridEmailService(apiKey, from string) (*SendGridEmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("sendgrid api key is empty")
	}
	if from == "" {
		return nil, fmt.Errorf("from address is empty")
	}
	return &SendGridEmailService{
		client:   sendgrid.NewSendClient(apiKey),
		from:     from,
		fromName: "Craftopia",
	}, nil
}

// SendCustomizationRequestReceivedEmail confirms a request to the customer who posted it
func (s *SendGridEmailService) SendCustomizationRequestReceivedEmail(ctx context.Context, toEmail, name string, details RequestEmailDetails) error {
	subject, body := requestReceivedContent(name, details)
	return s.send(ctx, toEmail, name, subject, body)
}

// SendCustomizationResponseEmail tells a customer an artist has made an offer
func (s *SendGridEmailService) SendCustomizationResponseEmail(ctx context.Context, toEmail, name string, details ResponseEmailDetails) error {
	subject, body := responseContent(name, details)
	return s.send(ctx, toEmail, name, subject, body)
}

func (s *SendGridEmailService) send(ctx context.Context, toEmail, toName, subject, body string) error {
	if toEmail == "" {
		return fmt.Errorf("to address is empty")
	}

	message := mail.NewSingleEmail(
		mail.NewEmail(s.fromName, s.from),
		subject,
		mail.NewEmail(toName, toEmail),
		body,
		htmlBody(body),
	)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", response.StatusCode, response.Body)
	}

	log.Printf("[sendgrid] mail sent: status=%d to=%s subject=%q", response.StatusCode, toEmail, subject)
	return nil
}

// htmlBody renders a plain-text body as preformatted HTML. Titles, names
// and notes come from users and must not become markup.
func htmlBody(body string) string {
	return "<pre>" + html.EscapeString(body) + "</pre>"
}

// LogEmailService writes emails to the log instead of sending them.
// Used when no SendGrid key is configured.
type LogEmailService struct{}

func (LogEmailService) SendCustomizationRequestReceivedEmail(_ context.Context, toEmail, name string, details RequestEmailDetails) error {
	subject, _ := requestReceivedContent(name, details)
	log.Printf("[mail] to=%s subject=%q (delivery disabled)", toEmail, subject)
	return nil
}

func (LogEmailService) SendCustomizationResponseEmail(_ context.Context, toEmail, name string, details ResponseEmailDetails) error {
	subject, _ := responseContent(name, details)
	log.Printf("[mail] to=%s subject=%q (delivery disabled)", toEmail, subject)
	return nil
}

func requestReceivedContent(name string, d RequestEmailDetails) (string, string) {
	subject := fmt.Sprintf("We received your customization request: %s", d.Title)

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "Your customization request #%d is now open to artists.\n\n", d.RequestID)
	fmt.Fprintf(&b, "Title: %s\n", d.Title)
	fmt.Fprintf(&b, "Budget: %s\n", d.Budget.StringFixed(2))
	fmt.Fprintf(&b, "Deadline: %s\n\n", d.Deadline.Format("2006-01-02"))
	fmt.Fprintf(&b, "%s\n", d.Description)
	return subject, b.String()
}

func responseContent(name string, d ResponseEmailDetails) (string, string) {
	verb := "sent an offer"
	if d.Resubmitted {
		verb = "updated their offer"
	}
	subject := fmt.Sprintf("%s %s on \"%s\"", d.ArtistName, verb, d.RequestTitle)

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "%s %s on your request #%d.\n\n", d.ArtistName, verb, d.RequestID)
	fmt.Fprintf(&b, "Price: %s\n", d.Price.StringFixed(2))
	fmt.Fprintf(&b, "Estimated completion: %s\n", d.EstimationCompletionTime.Format("2006-01-02"))
	if d.Notes != "" {
		fmt.Fprintf(&b, "\nNotes from the artist:\n%s\n", d.Notes)
	}
	return subject, b.String()
}
