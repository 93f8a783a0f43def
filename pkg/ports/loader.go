package ports

import (
	"context"

	"github.com/lanreath/strata/pkg/domain"
)

// ChartLoader retrieves a declarative chart definition from some backend
// (YAML file, document repository, embedded literal). Loaders return the
// definition as declared; structural validation belongs to the compiler.
type ChartLoader interface {
	Load(ctx context.Context) (*domain.ChartDef, error)
}
