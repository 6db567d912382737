package store

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/africanuspanga/africa-stickers-website/internal/domain/products"
)

var QueryTimeoutDuration = time.Second * 5

// Storage gathers every domain store behind one value so handlers take a
// single dependency.
type Storage struct {
	Products products.Store
}

func NewStorage(db *pgxpool.Pool) Storage {
	return Storage{
		Products: products.NewRepository(db),
	}
}
