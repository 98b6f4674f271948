package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ALABELEWE/nigeria-tax-ussd/config"
)

// Client sends SMS through the Africa's Talking messaging REST API.
type Client struct {
	username   string
	apiKey     string
	baseURL    string
	senderID   string
	httpClient *http.Client
}

type recipient struct {
	Number     string `json:"number"`
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
	MessageID  string `json:"messageId"`
	Cost       string `json:"cost"`
}

type sendResponse struct {
	SMSMessageData struct {
		Message    string      `json:"Message"`
		Recipients []recipient `json:"Recipients"`
	} `json:"SMSMessageData"`
}

func NewClient(cfg *config.SmsConfig) *Client {
	return &Client{
		username: cfg.Username,
		apiKey:   cfg.APIKey,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		senderID: cfg.SenderID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Send posts one message and inspects per-recipient delivery status.
func (c *Client) Send(ctx context.Context, phoneNumber, message string) error {
	form := url.Values{}
	form.Set("username", c.username)
	form.Set("to", phoneNumber)
	form.Set("message", message)
	if c.senderID != "" {
		form.Set("from", c.senderID)
	}

	endpoint := c.baseURL + "/version1/messaging"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apiKey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send sms to %s: %w", phoneNumber, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("sms api status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode sms response: %w", err)
	}

	for _, r := range out.SMSMessageData.Recipients {
		log.Printf("SMS result - number: %s, status: %s, messageId: %s, cost: %s",
			r.Number, r.Status, r.MessageID, r.Cost)
		if !strings.EqualFold(r.Status, "Success") {
			return fmt.Errorf("sms to %s rejected: %s", r.Number, r.Status)
		}
	}
	if len(out.SMSMessageData.Recipients) == 0 {
		return fmt.Errorf("sms api accepted no recipients: %s", out.SMSMessageData.Message)
	}
	return nil
}

// SendAsync fires the send on its own goroutine. Failures are logged and
// dropped; nothing upstream waits on the outcome.
func (c *Client) SendAsync(phoneNumber, message string) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("panic in sms send to %s: %v", phoneNumber, r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := c.Send(ctx, phoneNumber, message); err != nil {
			log.Printf("failed to send SMS to %s: %v", phoneNumber, err)
		}
	}()
}
