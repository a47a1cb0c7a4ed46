package components

import (
	"todo-notifier/internal/infra/db"
	"todo-notifier/internal/infra/readstore"
	"todo-notifier/internal/infra/uow"
	"todo-notifier/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		NewDBTX,
		fx.Annotate(
			readstore.NewTaskReadStore,
			fx.As(new(shared.TaskReadStore)),
		),
		uow.NewPostgresUoW,
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}
