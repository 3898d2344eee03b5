// Package llm backs the question-answering service with hosted model
// providers. The gate engine never imports this package; it only talks to
// the subject over HTTP.
package llm

import "context"

type Provider interface {
	Name() string
	Complete(ctx context.Context, req *Request) (*Response, error)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Request struct {
	Messages    []Message
	System      string
	MaxTokens   int
	Temperature float64
}

type Response struct {
	Text       string
	StopReason string
}
