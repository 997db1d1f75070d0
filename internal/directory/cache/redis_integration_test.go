//go:build integration

package cache_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"furgon/internal/directory/cache"
	"furgon/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	ctx   context.Context
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.ctx = context.Background()
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *RedisCacheSuite) TestWarmAndServe() {
	var loads atomic.Int32
	c := cache.NewRedis(s.redis.Client, func(context.Context) (map[string]string, error) {
		loads.Add(1)
		return map[string]string{"inst-1": "Colegio Andino", "inst-2": "Liceo Sur"}, nil
	}, time.Minute)

	first, err := c.Names(s.ctx)
	s.Require().NoError(err)
	s.Len(first, 2)

	second, err := c.Names(s.ctx)
	s.Require().NoError(err)
	s.Equal(first, second)
	s.EqualValues(1, loads.Load(), "second read must come from redis")
}

func (s *RedisCacheSuite) TestInvalidate() {
	var loads atomic.Int32
	c := cache.NewRedis(s.redis.Client, func(context.Context) (map[string]string, error) {
		loads.Add(1)
		return map[string]string{"inst-1": "Colegio Andino"}, nil
	}, time.Minute)

	_, err := c.Names(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(c.Invalidate(s.ctx))
	_, err = c.Names(s.ctx)
	s.Require().NoError(err)

	s.EqualValues(2, loads.Load())
}
