// Package metasearch implements the metasearch backend the Orchestrator
// submits candidate queries to: a URL-in / link-list-out collaborator.
package metasearch

import (
	"context"
	"time"
)

// Client performs a metasearch query and returns a bounded list of links.
type Client interface {
	Search(ctx context.Context, query string, maxResults int) ([]Link, error)
}

// Link is one metasearch result.
type Link struct {
	Title   string
	URL     string
	Snippet string
}

// Response is the raw result set from a metasearch call, kept distinct from
// []Link so a client can carry request-level metadata (query echo, fetch
// timestamp) without polluting the Orchestrator-facing Link type.
type Response struct {
	Links     []Link
	Query     string
	Timestamp time.Time
}
