// Package health reports readiness through the standard grpc.health.v1 service. A Checker probes
// the identity store and the policy engine and flips the serving status accordingly.
package health

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const probeTimeout = 2 * time.Second

// Pinger checks storage connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PolicyChecker checks that the policy engine evaluates.
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Checker updates srv for the overall server ("") and each named service.
// Nil probes are skipped.
type Checker struct {
	srv      *health.Server
	store    Pinger
	policy   PolicyChecker
	services []string
	log      *zap.Logger
}

// NewChecker returns a Checker that reports on services in addition to the overall status.
func NewChecker(srv *health.Server, store Pinger, policy PolicyChecker, services []string, log *zap.Logger) *Checker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Checker{srv: srv, store: store, policy: policy, services: services, log: log}
}

// Check runs every probe once and sets SERVING if all pass, NOT_SERVING otherwise.
// It returns the first probe failure.
func (c *Checker) Check(ctx context.Context) error {
	err := c.probe(ctx)
	st := healthpb.HealthCheckResponse_SERVING
	if err != nil {
		st = healthpb.HealthCheckResponse_NOT_SERVING
		c.log.Warn("health check failed", zap.Error(err))
	}
	c.srv.SetServingStatus("", st)
	for _, name := range c.services {
		c.srv.SetServingStatus(name, st)
	}
	return err
}

func (c *Checker) probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if c.store != nil {
		if err := c.store.Ping(ctx); err != nil {
			return err
		}
	}
	if c.policy != nil {
		if err := c.policy.HealthCheck(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Run checks immediately and then every interval until ctx is done. On return all statuses are
// set to NOT_SERVING so draining load balancers stop routing.
func (c *Checker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	_ = c.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			c.srv.Shutdown()
			return
		case <-ticker.C:
			_ = c.Check(ctx)
		}
	}
}
