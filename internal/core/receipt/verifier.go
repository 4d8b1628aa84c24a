package receipt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Verifier takes a rules-parsed receipt and returns a corrected version, or
// nil to keep the rules result. Implementations are consulted best-effort;
// the parser swallows verifier errors.
type Verifier interface {
	Verify(ctx context.Context, rawText string, parsed *Parsed) (*Parsed, error)
}

// HTTPVerifier posts the raw text and the rules parse to an external
// verification endpoint and returns its corrected parse.
type HTTPVerifier struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewHTTPVerifier(endpoint, apiKey string, timeout time.Duration) *HTTPVerifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPVerifier{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

type verifyRequest struct {
	RawText string  `json:"rawText"`
	Parsed  *Parsed `json:"parsed"`
}

func (v *HTTPVerifier) Verify(ctx context.Context, rawText string, parsed *Parsed) (*Parsed, error) {
	body, err := json.Marshal(verifyRequest{RawText: rawText, Parsed: parsed})
	if err != nil {
		return nil, fmt.Errorf("encode verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if v.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+v.apiKey)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<12))
		return nil, fmt.Errorf("verify endpoint returned %d", resp.StatusCode)
	}

	var out Parsed
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode verify response: %w", err)
	}
	sanitize(&out)
	return &out, nil
}

// sanitize clamps a verifier response into the ranges the rest of the system
// expects.
func sanitize(p *Parsed) {
	if p.Items == nil {
		p.Items = []Item{}
	}
	for i := range p.Items {
		if p.Items[i].Name == "" {
			p.Items[i].Name = "Item"
		}
		if p.Items[i].Price < 0 {
			p.Items[i].Price = 0
		}
	}
	if p.Subtotal < 0 {
		p.Subtotal = 0
	}
	if p.Tax < 0 {
		p.Tax = 0
	}
	if p.Tip < 0 {
		p.Tip = 0
	}
	if p.Total < 0 {
		p.Total = 0
	}
	if p.Confidence < 0 {
		p.Confidence = 0
	}
	if p.Confidence > 1 {
		p.Confidence = 1
	}
	if p.Warnings == nil {
		p.Warnings = []string{}
	}
}
