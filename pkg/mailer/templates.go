package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

var (
	welcomeHTML = template.Must(template.New("welcome").Parse(
		`<p>Hi {{.Name}},</p><p>Welcome to {{.App}}. Your wallet starts with <strong>{{.Bonus}}</strong> coins.</p>`))
	receiptHTML = template.Must(template.New("receipt").Parse(
		`<p>Hi {{.Name}},</p><p>We received your payment of &#8377;{{.Amount}} (ref {{.Reference}}).</p>` +
			`<p><strong>{{.Coins}}</strong> coins were added. New balance: {{.Balance}} coins.</p>`))
)

// Welcome renders the registration greeting.
func Welcome(appName, toEmail, name string, bonus int64) (Message, error) {
	var html bytes.Buffer
	data := map[string]any{"Name": name, "App": appName, "Bonus": bonus}
	if err := welcomeHTML.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("render welcome: %w", err)
	}
	return Message{
		ToEmail: toEmail,
		ToName:  name,
		Subject: "Welcome",
		Text:    fmt.Sprintf("Hi %s,\n\nWelcome to %s. Your wallet starts with %d coins.\n", name, appName, bonus),
		HTML:    html.String(),
	}, nil
}

// TopUpReceipt renders the confirmation sent after a wallet top-up.
func TopUpReceipt(toEmail, name, amount, reference string, coins, balance int64) (Message, error) {
	var html bytes.Buffer
	data := map[string]any{"Name": name, "Amount": amount, "Reference": reference, "Coins": coins, "Balance": balance}
	if err := receiptHTML.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("render receipt: %w", err)
	}
	return Message{
		ToEmail: toEmail,
		ToName:  name,
		Subject: "Wallet top-up receipt",
		Text: fmt.Sprintf("Hi %s,\n\nWe received your payment of Rs %s (ref %s).\n%d coins were added. New balance: %d coins.\n",
			name, amount, reference, coins, balance),
		HTML: html.String(),
	}, nil
}
