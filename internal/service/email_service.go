package service

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     *sesv2.Client
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	debug      bool
}

// NewEmailService creates a new email service. An empty fromEmail yields a disabled service.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string, debug bool) (*EmailService, error) {
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false, debug: debug}, nil
	}

	if debug {
		log.Printf("[DEBUG] Initializing SES email service: region=%s from=%s base=%s", awsRegion, fromEmail, appBaseURL)
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)

	return &EmailService{
		client:     sesv2.NewFromConfig(cfg),
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: strings.TrimRight(appBaseURL, "/"),
		enabled:    true,
		debug:      debug,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// emailContent is the shared layout of every message we send
type emailContent struct {
	Title      string
	Name       string
	Paragraphs []string
	ButtonText string
	Link       string
	Footnote   string
}

func (c emailContent) greeting() string {
	if c.Name == "" {
		return "Hi there,"
	}
	return fmt.Sprintf("Hi %s,", c.Name)
}

func (c emailContent) text() string {
	var b strings.Builder
	b.WriteString(c.greeting() + "\n\n")
	for _, p := range c.Paragraphs {
		b.WriteString(p + "\n\n")
	}
	if c.Link != "" {
		b.WriteString(c.Link + "\n\n")
	}
	if c.Footnote != "" {
		b.WriteString(c.Footnote + "\n\n")
	}
	b.WriteString("---\nThis is an automated email from cARd. Please do not reply.\n")
	return b.String()
}

func (c emailContent) html() string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="UTF-8"></head>`)
	b.WriteString(`<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">`)
	b.WriteString(`<div style="max-width: 600px; margin: 0 auto; padding: 20px;">`)
	fmt.Fprintf(&b, `<div style="background-color: #7c3aed; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0;"><h1>%s</h1></div>`, html.EscapeString(c.Title))
	b.WriteString(`<div style="background-color: #fef9c3; padding: 30px; border-radius: 0 0 5px 5px;">`)
	fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(c.greeting()))
	for _, p := range c.Paragraphs {
		fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(p))
	}
	if c.Link != "" {
		link := html.EscapeString(c.Link)
		fmt.Fprintf(&b, `<p style="text-align: center;"><a href="%s" style="display: inline-block; padding: 12px 30px; background-color: #7c3aed; color: white; text-decoration: none; border-radius: 5px;">%s</a></p>`, link, html.EscapeString(c.ButtonText))
		fmt.Fprintf(&b, `<p style="word-break: break-all; font-size: 12px; color: #666;">%s</p>`, link)
	}
	if c.Footnote != "" {
		fmt.Fprintf(&b, "<p><strong>%s</strong></p>", html.EscapeString(c.Footnote))
	}
	b.WriteString(`</div><p style="text-align: center; font-size: 12px; color: #666;">This is an automated email from cARd. Please do not reply.</p>`)
	b.WriteString(`</div></body></html>`)
	return b.String()
}

// PasswordResetLink builds the link the mobile client opens to confirm a reset
func (s *EmailService) PasswordResetLink(resetToken string) string {
	return fmt.Sprintf("%s/reset-password?token=%s", s.appBaseURL, resetToken)
}

// SendPasswordResetEmail sends a password reset email with a reset link
func (s *EmailService) SendPasswordResetEmail(ctx context.Context, toEmail, toName, resetToken string) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): password reset to %s", toEmail)
		return nil
	}

	content := emailContent{
		Title: "Password Reset Request",
		Name:  toName,
		Paragraphs: []string{
			"We received a request to reset the password of your cARd account.",
			"Open the link below on your device to choose a new password:",
		},
		ButtonText: "Reset Password",
		Link:       s.PasswordResetLink(resetToken),
		Footnote:   "This link will expire in 1 hour. If you didn't ask for a reset, you can ignore this email.",
	}

	return s.sendEmail(ctx, toEmail, "Reset your cARd password", content)
}

// SendWelcomeEmail greets a new learner
func (s *EmailService) SendWelcomeEmail(ctx context.Context, toEmail, toName string) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): welcome to %s", toEmail)
		return nil
	}

	content := emailContent{
		Title: "Welcome to cARd!",
		Name:  toName,
		Paragraphs: []string{
			"Thanks for signing up. Pick a quiz, learn new words with pictures and sounds, and watch your streak grow.",
			"After each quiz, tell us how you felt so your progress page can show your mood over the week.",
		},
	}

	return s.sendEmail(ctx, toEmail, "Welcome to cARd!", content)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject string, content emailContent) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	htmlBody := content.html()
	textBody := content.text()
	if s.debug {
		log.Printf("[DEBUG] Sending email: from=%s to=%s subject=%q html=%dB text=%dB",
			fromAddress, toEmail, subject, len(htmlBody), len(textBody))
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	if s.debug && result.MessageId != nil {
		log.Printf("[DEBUG] SES message id: %s", *result.MessageId)
	}
	log.Printf("Email sent successfully: to=%s, subject=%s", toEmail, subject)
	return nil
}
