package ai

import "context"

type Client interface {
	Summarize(ctx context.Context, findings string) (string, error)
}
