package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.sendinblue.com"

type Address struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type EmailMessage struct {
	Sender      Address   `json:"sender"`
	To          []Address `json:"to"`
	Subject     string    `json:"subject"`
	ReplyTo     *Address  `json:"replyTo,omitempty"`
	TextContent string    `json:"textContent,omitempty"`
	HtmlContent string    `json:"htmlContent,omitempty"`
}

// Client sends transactional emails through the Sendinblue v3 HTTP API.
type Client struct {
	noReplyAddress string
	siteName       string
	client         *http.Client
	apiKey         string
	baseURL        string
}

func NewClient(apiKey, noReplyAddress, siteName string) Client {
	return Client{
		client:         &http.Client{Timeout: 10 * time.Second},
		apiKey:         apiKey,
		siteName:       siteName,
		noReplyAddress: noReplyAddress,
		baseURL:        defaultBaseURL,
	}
}

// WithBaseURL points the client at another API host.
func (e Client) WithBaseURL(baseURL string) Client {
	e.baseURL = baseURL
	return e
}

func (e Client) NoReplySender() Address {
	return Address{Name: e.siteName, Email: e.noReplyAddress}
}

func (e Client) SendHTMLEmail(ctx context.Context, from, to Address, subject, html string) error {
	msg := EmailMessage{
		Sender:      from,
		Subject:     subject,
		To:          []Address{to},
		HtmlContent: html,
	}
	reqData, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v3/smtp/email", bytes.NewReader(reqData))
	if err != nil {
		return err
	}
	req.Header.Add("api-key", e.apiKey)
	req.Header.Add("content-type", "application/json")
	res, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		errBody, err := ioutil.ReadAll(res.Body)
		if err != nil {
			errBody = []byte(`unable to read body`)
		}
		return fmt.Errorf("got status code %d when sending email: err %s", res.StatusCode, string(errBody))
	}
	return nil
}
