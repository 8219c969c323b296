package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
	_ "github.com/lib/pq"

	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/storage"
	"github.com/iWorld-y/ad_radar/app/display/internal/conf"
)

type Data struct {
	store *storage.Storage
}

// Store 返回共享的归档存储
func (d *Data) Store() *storage.Storage {
	return d.store
}

func NewData(c *conf.Data, logger log.Logger) (*Data, func(), error) {
	db, err := sql.Open(c.Database.Driver, c.Database.Source)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, err
	}

	store := storage.New(db)
	if err := store.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to init run tables: %w", err)
	}

	cleanup := func() {
		log.NewHelper(logger).Info("closing the data resources")
		store.Close()
	}
	return &Data{store: store}, cleanup, nil
}
