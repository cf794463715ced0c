// Package llm adapts an OpenAI-compatible chat completion API to the typed
// extraction and generation calls the platform needs.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/hiretrack/hiretrack/internal/domain"
)

// maxPromptTokens bounds how much source text reaches the model. Longer CVs
// and postings are truncated at a token boundary, never mid-rune.
const maxPromptTokens = 12000

const defaultEncoding = "cl100k_base"

type Client struct {
	baseURL string
	apiKey  string
	model   string
	httpc   *http.Client
	timeout time.Duration
	sem     chan struct{}
	enc     *tiktoken.Tiktoken
}

type Options struct {
	BaseURL        string
	APIKey         string
	Model          string
	Timeout        time.Duration
	MaxConcurrency int
	HTTPClient     *http.Client
}

func New(opts Options) (*Client, error) {
	if opts.Model == "" {
		return nil, fmt.Errorf("op=llm.new: %w: model is required", domain.ErrInvalidArgument)
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 8
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	// Embedded BPE dictionaries; no network call to resolve the encoding.
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	enc, err := tiktoken.EncodingForModel(opts.Model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(defaultEncoding)
		if err != nil {
			return nil, fmt.Errorf("op=llm.encoding: %w", err)
		}
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		model:   opts.Model,
		httpc:   opts.HTTPClient,
		timeout: opts.Timeout,
		sem:     make(chan struct{}, opts.MaxConcurrency),
		enc:     enc,
	}, nil
}

func (c *Client) ModelVersion() string { return c.model }

// truncate keeps at most maxPromptTokens worth of text.
func (c *Client) truncate(text string) string {
	tokens := c.enc.Encode(text, nil, nil)
	if len(tokens) <= maxPromptTokens {
		return text
	}
	return c.enc.Decode(tokens[:maxPromptTokens])
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// complete performs one chat completion with retry on transient failures.
func (c *Client) complete(ctx domain.Context, messages []chatMessage) (string, error) {
	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	body, err := json.Marshal(chatRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("op=llm.marshal_request: %w", err)
	}

	var content string
	operation := func() error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpc.Do(req)
		if err != nil {
			return fmt.Errorf("op=llm.call: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return fmt.Errorf("op=llm.read_response: %w", err)
		}
		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("op=llm.call: status %d", resp.StatusCode)
		default:
			return backoff.Permanent(fmt.Errorf("op=llm.call: status %d: %s", resp.StatusCode, truncateForLog(raw)))
		}

		var cr chatResponse
		if err := json.Unmarshal(raw, &cr); err != nil {
			return fmt.Errorf("op=llm.decode_response: %w", err)
		}
		if len(cr.Choices) == 0 {
			return fmt.Errorf("op=llm.decode_response: no choices")
		}
		content = cr.Choices[0].Message.Content
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	return content, nil
}

// completeJSON runs the prompt and unmarshals the reply into out. On a reply
// that is not valid JSON for the expected shape it re-asks exactly once with a
// corrective message before giving up with ErrSchemaInvalid.
func (c *Client) completeJSON(ctx domain.Context, system, user string, out any) error {
	messages := []chatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}
	content, err := c.complete(ctx, messages)
	if err != nil {
		return err
	}
	firstErr := unmarshalStrict(content, out)
	if firstErr == nil {
		return nil
	}

	messages = append(messages,
		chatMessage{Role: "assistant", Content: content},
		chatMessage{Role: "user", Content: "That reply was not valid JSON for the requested schema (" + firstErr.Error() + "). Respond again with ONLY the JSON object, no prose, no code fences."},
	)
	content, err = c.complete(ctx, messages)
	if err != nil {
		return err
	}
	if err := unmarshalStrict(content, out); err != nil {
		return fmt.Errorf("op=llm.parse_json: %w: %v", domain.ErrSchemaInvalid, err)
	}
	return nil
}

// unmarshalStrict tolerates code fences and surrounding prose but rejects
// unknown top-level shapes.
func unmarshalStrict(content string, out any) error {
	payload := extractJSON(content)
	if payload == "" {
		return fmt.Errorf("no JSON object found")
	}
	dec := json.NewDecoder(strings.NewReader(payload))
	return dec.Decode(out)
}

// extractJSON returns the outermost {...} of content, stripping markdown
// fences models habitually add.
func extractJSON(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return ""
	}
	return content[start : end+1]
}

func truncateForLog(raw []byte) string {
	const n = 200
	if len(raw) > n {
		raw = raw[:n]
	}
	return string(raw)
}
