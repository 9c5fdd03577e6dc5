package strata_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/strata"
)

type ProviderSuite struct {
	suite.Suite
}

func TestProviderSuite(t *testing.T) {
	suite.Run(t, new(ProviderSuite))
}

func (s *ProviderSuite) TestStaticProvider() {
	tier := newFakeTier("t", nil)

	p := strata.NewStaticProvider()
	p.Register("sessions", tier)

	resolved, ok := p.Resolve("sessions")
	s.True(ok)
	s.Same(tier, resolved)

	_, ok = p.Resolve("other")
	s.False(ok)

	s.Equal([]string{"sessions"}, p.Names())
	s.Require().NoError(p.Close())
}

func (s *ProviderSuite) TestMemoryProviderLazyCreation() {
	ctx := context.Background()

	p := strata.NewMemoryProvider(nil)
	s.T().Cleanup(func() { _ = p.Close() })

	first, ok := p.Resolve("sessions")
	s.Require().True(ok)
	second, ok := p.Resolve("sessions")
	s.Require().True(ok)
	s.Same(first, second, "repeated resolves must share one tier")

	s.Require().NoError(first.Set(ctx, "k", []byte("v")))
	value, found, err := second.(strata.Lookuper).Lookup(ctx, "k")
	s.Require().NoError(err)
	s.True(found)
	s.Equal([]byte("v"), value)

	p.Resolve("profiles")
	s.Equal([]string{"profiles", "sessions"}, p.Names())
}

func (s *ProviderSuite) TestMemoryProviderStaticMode() {
	p := strata.NewMemoryProvider([]string{"a", "b"})
	s.T().Cleanup(func() { _ = p.Close() })

	_, ok := p.Resolve("a")
	s.True(ok)

	_, ok = p.Resolve("unlisted")
	s.False(ok)

	s.Equal([]string{"a", "b"}, p.Names())
}

func (s *ProviderSuite) TestNamespaceProviderIsolatesNames() {
	ctx := context.Background()

	shared := strata.NewMemoryTier()
	p := strata.NewNamespaceProvider(shared, "users", "orders")
	s.T().Cleanup(func() { _ = p.Close() })

	users, ok := p.Resolve("users")
	s.Require().True(ok)
	orders, ok := p.Resolve("orders")
	s.Require().True(ok)
	_, ok = p.Resolve("unlisted")
	s.False(ok)

	s.Require().NoError(users.Set(ctx, "1", []byte("alice")))
	s.Require().NoError(orders.Set(ctx, "1", []byte("order-1")))

	value, found, err := users.(strata.Lookuper).Lookup(ctx, "1")
	s.Require().NoError(err)
	s.True(found)
	s.Equal([]byte("alice"), value)

	value, found, err = orders.(strata.Lookuper).Lookup(ctx, "1")
	s.Require().NoError(err)
	s.True(found)
	s.Equal([]byte("order-1"), value)

	// The shared tier holds both entries under prefixed keys.
	value, found, err = shared.Lookup(ctx, "users/1")
	s.Require().NoError(err)
	s.True(found)
	s.Equal([]byte("alice"), value)

	s.Require().NoError(users.Delete(ctx, "1"))
	_, found, err = shared.Lookup(ctx, "users/1")
	s.Require().NoError(err)
	s.False(found)
	_, found, err = shared.Lookup(ctx, "orders/1")
	s.Require().NoError(err)
	s.True(found)

	s.ElementsMatch([]string{"users", "orders"}, p.Names())
}

func (s *ProviderSuite) TestNamespaceProviderLoaderSeesLogicalKey() {
	ctx := context.Background()

	shared := strata.NewMemoryTier()
	p := strata.NewNamespaceProvider(shared, "users")
	s.T().Cleanup(func() { _ = p.Close() })

	users, ok := p.Resolve("users")
	s.Require().True(ok)

	var loaderKey string
	value, found, err := users.(strata.ReadThrough).GetOrLoad(ctx, "42",
		func(_ context.Context, key string) ([]byte, error) {
			loaderKey = key
			return []byte("bob"), nil
		})
	s.Require().NoError(err)
	s.True(found)
	s.Equal([]byte("bob"), value)
	s.Equal("42", loaderKey, "the loader must see the logical key, not the prefixed one")

	// The loaded value landed under the prefixed key.
	stored, found, err := shared.Lookup(ctx, "users/42")
	s.Require().NoError(err)
	s.True(found)
	s.Equal([]byte("bob"), stored)
}

func (s *ProviderSuite) TestNamespaceViewCloseLeavesBaseOpen() {
	ctx := context.Background()

	shared := strata.NewMemoryTier()
	p := strata.NewNamespaceProvider(shared, "users")

	users, ok := p.Resolve("users")
	s.Require().True(ok)

	s.Require().NoError(users.Close())
	s.Require().NoError(shared.Set(ctx, "k", []byte("v")), "base tier must survive a view close")

	s.Require().NoError(p.Close())
}

func (s *ProviderSuite) TestNoOpTier() {
	ctx := context.Background()

	tier := strata.NewNoOpTier()

	s.Require().NoError(tier.Set(ctx, "k", []byte("v")))
	s.Require().NoError(tier.Delete(ctx, "k"))
	s.Require().NoError(tier.Flush(ctx))
	s.Require().NoError(tier.Close())

	// Not lookup-capable: composites skip it during promotion scans.
	_, isLookuper := strata.Tier(tier).(strata.Lookuper)
	s.False(isLookuper)

	value, found, err := tier.GetOrLoad(ctx, "k", func(_ context.Context, _ string) ([]byte, error) {
		return []byte("loaded"), nil
	})
	s.Require().NoError(err)
	s.True(found)
	s.Equal([]byte("loaded"), value)

	_, found, err = tier.GetOrLoad(ctx, "k", nil)
	s.Require().NoError(err)
	s.False(found)
}

func (s *ProviderSuite) TestNoOpProviderResolvesEverything() {
	p := strata.NewNoOpProvider()

	tier, ok := p.Resolve("anything")
	s.True(ok)
	s.NotNil(tier)
	s.Empty(p.Names())
}
