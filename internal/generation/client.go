// Package generation produces and refines diagram source through the Gemini
// API. Model output is never trusted as-is: every response passes through
// Sanitize before it reaches the editor.
package generation

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const (
	DefaultModel   = "gemini-2.5-pro"
	requestTimeout = 60 * time.Second
)

type Options struct {
	APIKey string
	Model  string
	// RPS and Burst bound outbound request rate across all users.
	RPS   float64
	Burst int
}

// Client wraps the Gemini API behind the two operations the editor needs.
type Client struct {
	genai   *genai.Client
	model   string
	limiter *rate.Limiter
}

func NewClient(ctx context.Context, opt Options) (*Client, error) {
	if opt.APIKey == "" {
		return nil, fmt.Errorf("generation: api key not configured")
	}
	if opt.Model == "" {
		opt.Model = DefaultModel
	}
	if opt.RPS <= 0 {
		opt.RPS = 1
	}
	if opt.Burst <= 0 {
		opt.Burst = 2
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opt.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{
		genai:   gc,
		model:   opt.Model,
		limiter: rate.NewLimiter(rate.Limit(opt.RPS), opt.Burst),
	}, nil
}

// Generate produces diagram source from a natural language description.
func (c *Client) Generate(ctx context.Context, description string) (string, error) {
	return c.complete(ctx, generateSystemPrompt, generateUserPrompt(description))
}

// Refine rewrites existing diagram source according to an instruction,
// preserving everything the instruction does not touch.
func (c *Client) Refine(ctx context.Context, source, instruction string) (string, error) {
	return c.complete(ctx, refineSystemPrompt, refineUserPrompt(source, instruction))
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("generation rate limit: %w", err)
	}

	tctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := c.genai.Models.GenerateContent(tctx, c.model,
		genai.Text(user),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
			Temperature:       genai.Ptr[float32](0.2),
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	return Sanitize(resp.Text())
}
