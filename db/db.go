package storylinedb

import (
	"database/sql"
	"errors"

	"github.com/pingcap/log"
)

// TxnRollback rolls tx back and logs the failure. It is meant to be deferred
// right after Begin; a tx that was already committed is ignored.
func TxnRollback(tx *sql.Tx) {
	err := tx.Rollback()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		log.Error(err.Error())
	}
}
