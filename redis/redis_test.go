package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/strata"
	"github.com/pitabwire/strata/redis"
)

type RedisSuite struct {
	suite.Suite
	server *miniredis.Miniredis
	tier   *redis.Tier
}

func TestRedisSuite(t *testing.T) {
	suite.Run(t, new(RedisSuite))
}

func (s *RedisSuite) SetupTest() {
	server, err := miniredis.Run()
	s.Require().NoError(err)
	s.server = server

	tier, err := redis.New(strata.WithDSN(strata.DSN("redis://" + server.Addr())))
	s.Require().NoError(err)
	s.tier = tier
}

func (s *RedisSuite) TearDownTest() {
	_ = s.tier.Close()
	s.server.Close()
}

func (s *RedisSuite) TestNewRejectsBadDSN() {
	_, err := redis.New(strata.WithDSN("://bad-dsn"))
	s.Require().Error(err)
}

func (s *RedisSuite) TestLookupSetDeleteFlush() {
	ctx := context.Background()

	_, found, err := s.tier.Lookup(ctx, "missing")
	s.Require().NoError(err)
	s.False(found)

	s.Require().NoError(s.tier.Set(ctx, "k", []byte("v")))

	value, found, err := s.tier.Lookup(ctx, "k")
	s.Require().NoError(err)
	s.True(found)
	s.Equal([]byte("v"), value)

	s.Require().NoError(s.tier.Delete(ctx, "k"))
	_, found, err = s.tier.Lookup(ctx, "k")
	s.Require().NoError(err)
	s.False(found)

	s.Require().NoError(s.tier.Set(ctx, "a", []byte("1")))
	s.Require().NoError(s.tier.Set(ctx, "b", []byte("2")))
	s.Require().NoError(s.tier.Flush(ctx))
	_, found, err = s.tier.Lookup(ctx, "a")
	s.Require().NoError(err)
	s.False(found)
}

func (s *RedisSuite) TestGetOrLoad() {
	ctx := context.Background()

	loaderCalls := 0
	load := func(_ context.Context, _ string) ([]byte, error) {
		loaderCalls++
		return []byte("loaded"), nil
	}

	value, found, err := s.tier.GetOrLoad(ctx, "k", load)
	s.Require().NoError(err)
	s.True(found)
	s.Equal([]byte("loaded"), value)

	value, found, err = s.tier.GetOrLoad(ctx, "k", load)
	s.Require().NoError(err)
	s.True(found)
	s.Equal([]byte("loaded"), value)
	s.Equal(1, loaderCalls)
}

func (s *RedisSuite) TestFaultsSurfaceWhenServerGone() {
	ctx := context.Background()

	// Simulate an unreachable tier.
	s.server.Close()

	s.Require().Error(s.tier.Set(ctx, "k", []byte("v")))
	_, _, err := s.tier.Lookup(ctx, "k")
	s.Require().Error(err)
}

func (s *RedisSuite) TestAsCompositeTier() {
	ctx := context.Background()

	fast := strata.NewMemoryTier()
	s.T().Cleanup(func() { _ = fast.Close() })

	s.Require().NoError(s.tier.Set(ctx, "k", []byte("v")))

	c := strata.NewComposite("sessions", []strata.Tier{fast, s.tier})

	value, found, err := c.Lookup(ctx, "k")
	s.Require().NoError(err)
	s.True(found)
	s.Equal([]byte("v"), value)

	// The hit was promoted into the in-process tier.
	promoted, found, err := fast.Lookup(ctx, "k")
	s.Require().NoError(err)
	s.True(found)
	s.Equal([]byte("v"), promoted)
}
