package mailer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Client sends transactional email through the Resend HTTP API. The from
// domain must be verified in the Resend dashboard.
type Client struct {
	apiKey string
	from   string
	apiURL string
	httpc  *http.Client
}

func NewClient(apiKey, from string) *Client {
	return &Client{
		apiKey: apiKey,
		from:   from,
		apiURL: "https://api.resend.com",
		httpc:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Send(to, subject, html string) error {
	if c.apiKey == "" {
		return errors.New("mailer: RESEND_API_KEY not configured")
	}
	payload := map[string]any{
		"from":    c.from,
		"to":      []string{to},
		"subject": subject,
		"html":    html,
	}
	b, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", c.apiURL+"/emails", bytes.NewReader(b))
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("resend: %s", resp.Status)
	}
	return nil
}
