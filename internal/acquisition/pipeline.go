package acquisition

import "context"

// Pipeline selects between the hosted and local Acquirer per the session's
// use_hosted_parser flag.
type Pipeline struct {
	Hosted Acquirer
	Local  Acquirer
}

func (p *Pipeline) Acquire(ctx context.Context, rawURL string, useHosted bool) (Result, error) {
	if useHosted && p.Hosted != nil {
		return p.Hosted.Acquire(ctx, rawURL)
	}
	return p.Local.Acquire(ctx, rawURL)
}
