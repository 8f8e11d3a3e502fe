package services

import "context"

// Starter is implemented by long-running services that spawn their work in
// the background. The returned channel is signalled once after the service
// has wound down in response to context cancellation.
type Starter interface {
	Start(ctx context.Context) (done chan struct{}, err error)
}
