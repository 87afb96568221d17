// Package assistant answers common questions about the platform from a
// canned response table. It is a demo surface: no model call, no state.
package assistant

import (
	"context"
	"strings"
	"time"

	dErrors "trustbase/pkg/domain-errors"
)

// Reply is one assistant answer.
type Reply struct {
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

const greeting = "Hello! I'm TrustBase GPT, your friendly assistant for understanding data transparency in Nigeria. How can I help you today?"

const defaultResponse = "I'm here to help you understand data transparency and privacy rights in Nigeria. Ask me about data protection laws, your privacy rights, or how to protect your personal information."

// keywords keeps partial matching deterministic.
var keywords = []string{"hi", "hello", "what is data privacy", "what is trustbase"}

var responses = map[string]string{
	"hi":                   greeting,
	"hello":                greeting,
	"what is data privacy": "Data privacy refers to the proper handling, processing, storage, and usage of personal information. In Nigeria, it means ensuring that organizations collect and use your personal data only with your consent and for legitimate purposes.",
	"what is trustbase":    "TrustBase is a platform that promotes data transparency for Nigerian citizens. We help you understand which organizations have access to your personal data, why they need it, and give you control over granting or revoking that access.",
}

// Service resolves messages to canned replies.
type Service struct {
	now func() time.Time
}

func NewService() *Service {
	return &Service{now: time.Now}
}

// Respond answers one message: exact match first, then substring match,
// then the default answer.
func (s *Service) Respond(ctx context.Context, message string) (*Reply, error) {
	normalized := strings.ToLower(strings.TrimSpace(message))
	if normalized == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "message is required")
	}

	answer, ok := responses[normalized]
	if !ok {
		for _, keyword := range keywords {
			if strings.Contains(normalized, keyword) {
				answer = responses[keyword]
				ok = true
				break
			}
		}
	}
	if !ok {
		answer = defaultResponse
	}

	return &Reply{Response: answer, Timestamp: s.now().UTC()}, nil
}
