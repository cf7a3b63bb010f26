package bench

import (
	"context"
	"fmt"

	"github.com/vearne/pumpexec"
)

const (
	BackendInline  = "inline"
	BackendPumping = "pumping"
	BackendPool    = "pool"
)

// Backend supplies the SynchronizationContext work is run on.
type Backend interface {
	Name() string
	Context() pumpexec.SynchronizationContext
	Close() error
}

func BackendNames() []string {
	return []string{BackendInline, BackendPumping, BackendPool}
}

// NewBackend builds the backend called name from cfg.
func NewBackend(ctx context.Context, name string, cfg Config) (Backend, error) {
	switch name {
	case BackendInline:
		return inlineBackend{}, nil
	case BackendPumping:
		exec, err := pumpexec.NewPumpingExecutor(pumpexec.WithName("bench"))
		if err != nil {
			return nil, err
		}
		return &pumpingBackend{exec: exec}, nil
	case BackendPool:
		pool, err := newPool(ctx, cfg.Pool)
		if err != nil {
			return nil, err
		}
		return &poolBackend{kind: cfg.Pool.Kind, ctx: pumpexec.NewPoolContext(pool)}, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", name)
	}
}

func newPool(ctx context.Context, cfg PoolConfig) (pumpexec.ExecutorService, error) {
	switch cfg.Kind {
	case PoolFixed:
		return pumpexec.NewFixedGPool(ctx, cfg.Size, pumpexec.WithTaskQueueCap(cfg.TaskQueueCap)), nil
	case PoolDynamic:
		return pumpexec.NewDynamicGPool(ctx, cfg.Min, cfg.Max, pumpexec.WithDynamicTaskQueueCap(cfg.TaskQueueCap)), nil
	default:
		return nil, fmt.Errorf("unknown pool kind %q", cfg.Kind)
	}
}

type inlineBackend struct{}

func (inlineBackend) Name() string { return BackendInline }

func (inlineBackend) Context() pumpexec.SynchronizationContext { return pumpexec.InlineContext{} }

func (inlineBackend) Close() error { return nil }

type pumpingBackend struct {
	exec *pumpexec.PumpingExecutor
}

func (b *pumpingBackend) Name() string { return BackendPumping }

func (b *pumpingBackend) Context() pumpexec.SynchronizationContext { return b.exec.Context() }

func (b *pumpingBackend) Close() error {
	_, err := b.exec.Complete().Get()
	return err
}

type poolBackend struct {
	kind string
	ctx  *pumpexec.PoolContext
}

func (b *poolBackend) Name() string { return BackendPool + "/" + b.kind }

func (b *poolBackend) Context() pumpexec.SynchronizationContext { return b.ctx }

func (b *poolBackend) Close() error {
	b.ctx.Pool().Shutdown()
	b.ctx.Pool().WaitTerminate()
	return nil
}
