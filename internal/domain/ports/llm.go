package ports

import "context"

// NarrationRequest asks for writer-facing prose about one recommended action.
type NarrationRequest struct {
	Network     string
	ActionID    string
	Category    string
	Description string
	Context     string
}

// Narrator expands terse recommendations into prose for the writer.
type Narrator interface {
	// Narrate returns one paragraph per request, in request order.
	Narrate(ctx context.Context, requests []NarrationRequest) ([]string, error)
}
