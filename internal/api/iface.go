package api

import "context"

// ComplaintAPI defines the interface for the complaint analysis backend.
// *Client satisfies this interface. TUI and tests can use mock implementations.
type ComplaintAPI interface {
	Analyze(ctx context.Context, text string) (*Complaint, error)
	History(ctx context.Context) ([]Complaint, error)
	Health(ctx context.Context) (*HealthResponse, error)
	Agents(ctx context.Context) (*AgentsResponse, error)
	MockAgents(ctx context.Context) (*MockAgentsResponse, error)
}
