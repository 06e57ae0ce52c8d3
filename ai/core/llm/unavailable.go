package llm

import "context"

// unavailableProvider stands in when the real provider could not be built,
// e.g. a missing API key. Every call fails with the construction error.
type unavailableProvider struct {
	name string
	err  error
}

// Unavailable returns a Provider whose every Generate call fails with err.
func Unavailable(name string, err error) Provider {
	return &unavailableProvider{name: name, err: err}
}

func (p *unavailableProvider) Name() string {
	return p.name
}

func (p *unavailableProvider) Generate(_ context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	return nil, &ProviderError{Provider: p.name, Model: req.Model, Err: p.err}
}
