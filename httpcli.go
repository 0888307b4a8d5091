// Package httpcli exposes client builder.
package httpcli

import (
	"github.com/adamwoolhether/httpcli/client"
)

// NewClient instantiates a new *Client with the provided options.
// Response bodies stay in memory up to 64KB and spill to a temporary
// file beyond that, unless changed via client.WithMemoryLimit.
func NewClient(opts ...client.Option) (*client.Client, error) {
	return client.Build(opts...)
}
