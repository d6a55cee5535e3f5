package db

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxOptions(t *testing.T) {
	opts, err := TxOptions("")
	require.NoError(t, err)
	assert.Nil(t, opts)

	opts, err = TxOptions("READ_COMMITTED")
	require.NoError(t, err)
	assert.Equal(t, sql.LevelReadCommitted, opts.Isolation)

	opts, err = TxOptions("serializable")
	require.NoError(t, err)
	assert.Equal(t, sql.LevelSerializable, opts.Isolation)

	_, err = TxOptions("chaos")
	assert.Error(t, err)
}

func TestOpen_EmptyDSN(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Error(t, err)
}
