package ports

import (
	"context"

	"physlab/domain/knowledge"
)

// KnowledgeEnginePort forwards natural-language queries to a remote engine
type KnowledgeEnginePort interface {
	Query(ctx context.Context, input string) (*knowledge.Result, error)
}
