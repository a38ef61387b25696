// Package email provides the notification delivery chain: automation
// endpoint first, Resend as fallback, soft success when both fail.
package email

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"

	"github.com/resendlabs/resend-go"

	"github.com/paperbridge/bookstore-go/config"
	"github.com/paperbridge/bookstore-go/email/templates"
	"github.com/paperbridge/bookstore-go/models"
)

type Client struct {
	resend             *resend.Client
	automationEndpoint string
	httpClient         *http.Client
	fromEmail          string
	fromName           string
}

func NewClient() *Client {
	var resendClient *resend.Client
	if apiKey := os.Getenv("RESEND_API_KEY"); apiKey != "" {
		resendClient = resend.NewClient(apiKey)
	} else {
		log.Printf("WARNING: RESEND_API_KEY not set -- email fallback disabled")
	}

	fromEmail := os.Getenv("EMAIL_FROM")
	if fromEmail == "" {
		fromEmail = "noreply@paperbridge.dev"
	}

	fromName := os.Getenv("EMAIL_FROM_NAME")
	if fromName == "" {
		fromName = "Paperbridge Books"
	}

	return &Client{
		resend:             resendClient,
		automationEndpoint: config.AutomationEndpoint,
		httpClient:         &http.Client{Timeout: config.EmailTimeout},
		fromEmail:          fromEmail,
		fromName:           fromName,
	}
}

// NewClientWith creates a client against an explicit automation endpoint,
// used by tests
func NewClientWith(automationEndpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.EmailTimeout}
	}
	return &Client{
		automationEndpoint: automationEndpoint,
		httpClient:         httpClient,
		fromEmail:          "noreply@paperbridge.dev",
		fromName:           "Paperbridge Books",
	}
}

// SendSignupNotification delivers a signup confirmation. The chain is:
// automation endpoint, then Resend, then soft success. The caller's action
// always completes; a degraded status marks that no delivery was confirmed.
func (c *Client) SendSignupNotification(ctx context.Context, recipient, name, bookTitle string) models.DeliveryStatus {
	subject := "Welcome to the bookstore"

	content := templates.GetNotifyEmailContent(templates.NotifyEmailProps{
		Name:      name,
		BookTitle: bookTitle,
	})
	htmlContent := templates.GetEmailLayout(templates.EmailLayoutProps{
		Content: content,
	})

	if err := c.sendViaAutomation(ctx, recipient, subject, htmlContent); err == nil {
		return models.DeliverySent
	} else {
		log.Printf("WARNING: automation endpoint delivery failed for %s: %v", recipient, err)
	}

	if err := c.sendViaResend(recipient, subject, htmlContent); err == nil {
		return models.DeliverySent
	} else {
		log.Printf("ERROR: resend fallback delivery failed for %s: %v", recipient, err)
	}

	return models.DeliveryDegraded
}

// sendViaAutomation posts to the automation endpoint with the notification
// request encoded as query parameters
func (c *Client) sendViaAutomation(ctx context.Context, recipient, subject, htmlBody string) error {
	if c.automationEndpoint == "" {
		return fmt.Errorf("automation endpoint not configured")
	}

	params := url.Values{}
	params.Set("to", recipient)
	params.Set("subject", subject)
	params.Set("html", htmlBody)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.automationEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build automation request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("automation request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("automation endpoint returned %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) sendViaResend(recipient, subject, htmlBody string) error {
	if c.resend == nil {
		return fmt.Errorf("resend client not configured")
	}

	request := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail),
		To:      []string{recipient},
		Subject: subject,
		Html:    htmlBody,
	}

	if _, err := c.resend.Emails.Send(request); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
