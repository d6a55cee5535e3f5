package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrUserAlreadyExist = errors.New("user already exist")
	ErrRefreshRejected  = errors.New("refresh token expired, revoked or unknown")
)

type GormRepo struct {
	DB        *gorm.DB
	TxOptions *sql.TxOptions
}

func New(db *gorm.DB, txOpts *sql.TxOptions) *GormRepo {
	return &GormRepo{DB: db, TxOptions: txOpts}
}

func (r *GormRepo) InTx(ctx context.Context, fn func(tx *GormRepo) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepo{DB: tx, TxOptions: r.TxOptions})
	}, r.TxOptions)
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
