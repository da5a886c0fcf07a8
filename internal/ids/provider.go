package ids

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Provider issues identifiers for newly created records.
type Provider interface {
	NewID(prefix string) string
}

type clockRandProvider struct {
	clock func() time.Time
	intN  func(n int) int
}

// NewProvider constructs a Provider issuing `{prefix}-{epochMillis}-{random}`
// identifiers, the scheme the stored documents already use.
func NewProvider() Provider {
	return &clockRandProvider{
		clock: time.Now,
		intN:  rand.IntN,
	}
}

// NewProviderWith constructs a Provider with an injected clock and random
// source for deterministic tests.
func NewProviderWith(clock func() time.Time, intN func(n int) int) Provider {
	if clock == nil {
		clock = time.Now
	}
	if intN == nil {
		intN = rand.IntN
	}
	return &clockRandProvider{clock: clock, intN: intN}
}

func (p *clockRandProvider) NewID(prefix string) string {
	return fmt.Sprintf("%s-%d-%d", prefix, p.clock().UnixMilli(), p.intN(1001))
}
