package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nutriverify/internal/logging"
)

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionResponse keeps only what the oracle reads: the JSON body,
// which some models deliver as tool-call arguments, and why generation stopped.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			Refusal   string `json:"refusal"`
			ToolCalls []struct {
				Function struct {
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// answer is the usable part of a completion.
type answer struct {
	content      string
	refusal      string
	finishReason string
}

func (r chatCompletionResponse) answer() answer {
	var a answer
	for _, choice := range r.Choices {
		msg := choice.Message
		if a.finishReason == "" {
			a.finishReason = strings.TrimSpace(choice.FinishReason)
		}
		if a.refusal == "" {
			a.refusal = strings.TrimSpace(msg.Refusal)
		}
		if content := strings.TrimSpace(msg.Content); content != "" {
			a.content = content
			a.finishReason = strings.TrimSpace(choice.FinishReason)
			return a
		}
		for _, call := range msg.ToolCalls {
			if args := strings.TrimSpace(call.Function.Arguments); args != "" {
				a.content = args
				a.finishReason = strings.TrimSpace(choice.FinishReason)
				return a
			}
		}
	}
	return a
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// IncompleteError is returned when a 2xx completion has no JSON to hand to
// the oracle, or the model stopped on its token limit mid-object.
type IncompleteError struct {
	FinishReason string
	Refusal      string
	Snippet      string
}

func (e *IncompleteError) Error() string {
	if e.Refusal != "" {
		return fmt.Sprintf("llm response refused: %s", e.Refusal)
	}
	return fmt.Sprintf("llm response incomplete (finish_reason=%q): %s", e.FinishReason, e.Snippet)
}

// complete sends payload until a usable answer arrives or the retry budget
// is spent. Refusals and client errors are returned at once.
func (c *Client) complete(ctx context.Context, payload chatCompletionRequest) (string, error) {
	attempts := max(c.retryMaxAttempts, 1)
	for attempt := 1; ; attempt++ {
		content, err := c.post(ctx, payload)
		if err == nil {
			return content, nil
		}
		wait, retry := c.retryAfter(err, attempt)
		if !retry || attempt >= attempts || ctx.Err() != nil {
			if attempt > 1 {
				return "", fmt.Errorf("llm complete: gave up after %d attempts: %w", attempt, err)
			}
			return "", fmt.Errorf("llm complete: %w", err)
		}
		c.logger.Debug("retrying completion",
			logging.Int("attempt", attempt),
			logging.Duration("delay", wait),
			logging.Error(err),
		)
		if err := c.sleep(ctx, wait); err != nil {
			return "", err
		}
	}
}

func (c *Client) post(ctx context.Context, payload chatCompletionRequest) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http (timeout=%s): %w", c.httpClient.Timeout, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("provider error: %s", strings.TrimSpace(completion.Error.Message))
	}
	a := completion.answer()
	// A nutrient object cut off at the token limit never decodes.
	if a.content == "" || a.finishReason == "length" {
		return "", &IncompleteError{
			FinishReason: a.finishReason,
			Refusal:      a.refusal,
			Snippet:      summarizePayloadSnippet(string(body)),
		}
	}
	return a.content, nil
}

// retryAfter reports whether err is worth another attempt and how long to
// wait first. A server-supplied Retry-After wins over the backoff schedule.
func (c *Client) retryAfter(err error, attempt int) (time.Duration, bool) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}
	var incomplete *IncompleteError
	if errors.As(err, &incomplete) {
		return c.backoffDelay(attempt), incomplete.Refusal == ""
	}
	var status *StatusError
	if errors.As(err, &status) {
		switch {
		case status.StatusCode == http.StatusRequestTimeout,
			status.StatusCode == http.StatusTooManyRequests,
			status.StatusCode >= http.StatusInternalServerError:
			if status.RetryAfter > 0 {
				return c.capDelay(status.RetryAfter), true
			}
			return c.backoffDelay(attempt), true
		}
		return 0, false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return c.backoffDelay(attempt), true
	}
	return 0, false
}

// backoffDelay is base * 2^(attempt-1), capped at the max delay.
func (c *Client) backoffDelay(attempt int) time.Duration {
	if c.retryBaseDelay <= 0 || attempt < 1 {
		return 0
	}
	shift := min(attempt-1, 16)
	return c.capDelay(c.retryBaseDelay << shift)
}

func (c *Client) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if c.retryMaxDelay > 0 && delay > c.retryMaxDelay {
		return c.retryMaxDelay
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// parseRetryAfter accepts delay-seconds or an HTTP date.
func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(max(seconds, 0)) * time.Second
	}
	if when, err := http.ParseTime(value); err == nil {
		return max(time.Until(when), 0)
	}
	return 0
}
