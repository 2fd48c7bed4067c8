package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/civika/rishui/pkg/rishui/match"
	"github.com/civika/rishui/pkg/rishui/rules"
)

// Client calls an OpenAI-compatible chat completion endpoint.
type Client struct {
	BaseURL string
	APIKey  string
	Model   string

	HTTPClient *http.Client
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

const systemPrompt = "אתה יועץ רישוי עסקים ישראלי. בהינתן פרופיל עסק ורשימת " +
	"דרישות רגולטוריות, הפק דוח מעשי בעברית בפורמט JSON עם השדות: assessment, " +
	"complexity_level (low/medium/high), estimated_time, actions, tips. " +
	"הסתמך אך ורק על הדרישות שסופקו."

// Generate asks the model for a report grounded in the matched
// requirements. The response is expected to be the Report JSON; a
// non-JSON answer is wrapped as the assessment text.
func (c *Client) Generate(ctx context.Context, p match.Profile, matched []rules.Rule) (*Report, error) {
	content, err := c.Chat(ctx, systemPrompt, formatPrompt(p, matched))
	if err != nil {
		return nil, err
	}

	var r Report
	if err := json.Unmarshal([]byte(content), &r); err != nil {
		return &Report{Assessment: content}, nil
	}
	return &r, nil
}

func (c *Client) Chat(ctx context.Context, system, user string) (string, error) {
	if c.BaseURL == "" || c.Model == "" {
		return "", fmt.Errorf("report: base URL and model required")
	}
	messages := []chatMessage{{Role: "system", Content: system}, {Role: "user", Content: user}}
	payload, err := c.send(ctx, messages)
	if err != nil {
		return "", err
	}
	if len(payload.Choices) == 0 {
		return "", fmt.Errorf("report: empty response")
	}
	return payload.Choices[0].Message.Content, nil
}

func (c *Client) send(ctx context.Context, messages []chatMessage) (*chatResponse, error) {
	reqBody, err := json.Marshal(chatRequest{Model: c.Model, Messages: messages})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var payload chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if payload.Error != nil {
		return nil, fmt.Errorf("report error: %s", payload.Error.Message)
	}
	return &payload, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}

func formatPrompt(p match.Profile, matched []rules.Rule) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "פרופיל העסק: שטח %.0f מ\"ר, %d מקומות ישיבה", p.Area, p.Seats)
	if p.Employees > 0 {
		fmt.Fprintf(&buf, ", %d עובדים", p.Employees)
	}
	if len(p.Features) > 0 {
		buf.WriteString(", מאפיינים:")
		for _, f := range p.Features {
			fmt.Fprintf(&buf, " %s,", f.Label())
		}
		buf.Truncate(buf.Len() - 1)
	}
	buf.WriteString("\n\nדרישות רגולטוריות:\n")
	for i, r := range matched {
		fmt.Fprintf(&buf, "%d. [%s] %s (%s)\n", i+1, r.Category.Label(), r.Title, r.Status.Label())
		if r.Note != "" {
			fmt.Fprintf(&buf, "   הערה: %s\n", r.Note)
		}
	}
	buf.WriteString("\nהפק את הדוח בפורמט JSON בלבד.\n")
	return buf.String()
}
