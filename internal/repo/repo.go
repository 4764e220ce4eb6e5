package repo

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	if *v == "" {
		return nil
	}
	return *v
}

func optionalColumn(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func buildUpdate(table string, fields []string, args []any, id string) (string, []any) {
	args = append(args, id)
	return fmt.Sprintf(`UPDATE %s SET %s WHERE id=?`, table, strings.Join(fields, ",")), args
}
