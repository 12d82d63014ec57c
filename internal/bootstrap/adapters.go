package bootstrap

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/graphctx/internal/infrastructure/cache"
	"github.com/turtacn/graphctx/internal/infrastructure/database/neo4j"
	"github.com/turtacn/graphctx/internal/infrastructure/database/postgres"
	"github.com/turtacn/graphctx/internal/infrastructure/search/milvus"
)

// The HTTP handlers package only needs Name()/Check(ctx) from each backend;
// these adapters keep that narrow contract from leaking backend-specific
// types into the handler package.

type neo4jHealthAdapter struct{ driver *neo4j.Driver }

func (a *neo4jHealthAdapter) Name() string                   { return "neo4j" }
func (a *neo4jHealthAdapter) Check(ctx context.Context) error { return a.driver.HealthCheck(ctx) }

type postgresHealthAdapter struct{ pool *pgxpool.Pool }

func (a *postgresHealthAdapter) Name() string { return "postgres" }
func (a *postgresHealthAdapter) Check(ctx context.Context) error {
	return postgres.HealthCheck(ctx, a.pool)
}

type milvusHealthAdapter struct{ client *milvus.Client }

func (a *milvusHealthAdapter) Name() string                    { return "milvus" }
func (a *milvusHealthAdapter) Check(ctx context.Context) error { return a.client.HealthCheck(ctx) }

type redisHealthAdapter struct{ rc *cache.ResultCache }

func (a *redisHealthAdapter) Name() string                    { return "redis" }
func (a *redisHealthAdapter) Check(ctx context.Context) error { return a.rc.Ping(ctx) }
