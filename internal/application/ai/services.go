package ai

import (
	"context"

	"github.com/bryanwahyu/dspm-console/internal/domain/ai"
)

type Service struct {
	client ai.Client
}

func NewService(client ai.Client) *Service {
	return &Service{client: client}
}

// Summarize runs the raw scan output through the AI client and returns a
// structured JSON summary of the findings.
func (s *Service) Summarize(ctx context.Context, findings string) (string, error) {
	return s.client.Summarize(ctx, findings)
}
