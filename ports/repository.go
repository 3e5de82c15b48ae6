package ports

import (
	"context"

	"gophi/domain/core"
	"gophi/domain/phi"
)

// ResultRepository persists finished system-level analyses.
type ResultRepository interface {
	SaveResult(ctx context.Context, result *phi.BigPhiResult) error
	GetResult(ctx context.Context, id core.ResultID) (*phi.BigPhiResult, error)
	ListResults(ctx context.Context, subsystem core.SubsystemHash) ([]*phi.BigPhiResult, error)
}
