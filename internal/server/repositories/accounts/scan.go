package accounts

import (
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/credgate/internal/common"
	"github.com/dmitrijs2005/credgate/internal/server/models"
)

// scanSingle reads at most two rows and accepts exactly one. Duplicate rows
// break the uniqueness invariant and are reported exactly like a miss.
func scanSingle(rows *sql.Rows) (*models.Account, error) {
	var (
		found *models.Account
		count int
	)

	for rows.Next() {
		count++
		a := &models.Account{}
		if err := rows.Scan(&a.ID, &a.Identifier, &a.SecretHash, &a.SecretSalt, &a.HashScheme); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		found = a
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if count != 1 {
		return nil, common.ErrorNotFound
	}
	return found, nil
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
