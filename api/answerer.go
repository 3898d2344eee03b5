package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stellarlinkco/qa-gate/internal/llm"
)

// Answerer produces an answer for one question/context pair.
type Answerer interface {
	Answer(ctx context.Context, question, contextText string) (string, error)
}

const groundingSystemPrompt = `You are a question-answering service. ` +
	`Answer the question using only the provided context. Keep answers short. ` +
	`If the context does not contain the answer, reply that you cannot answer ` +
	`based on the provided context. Do not invent facts.`

// LLMAnswerer answers questions with a hosted model provider, instructed to
// stay grounded in the supplied context.
type LLMAnswerer struct {
	Provider llm.Provider
}

func (a *LLMAnswerer) Answer(ctx context.Context, question, contextText string) (string, error) {
	if a == nil || a.Provider == nil {
		return "", errors.New("api: nil provider")
	}

	content := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextText, question)
	resp, err := a.Provider.Complete(ctx, &llm.Request{
		System:    groundingSystemPrompt,
		Messages:  []llm.Message{{Role: "user", Content: content}},
		MaxTokens: 512,
	})
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", errors.New("api: nil provider response")
	}
	return strings.TrimSpace(resp.Text), nil
}
