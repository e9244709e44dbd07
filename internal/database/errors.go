package database

import (
	"fmt"
	"strings"

	"github.com/atosab2b/catalog-export/pkg/rest"
	"github.com/jackc/pgx/v5/pgconn"
)

var errorMap = map[string]string{
	//UniqueViolation
	"23505": "ya está en uso",
	//NotNullViolation
	"23502": "no puede ser nulo",
}

func GetError(err *pgconn.PgError, constraint string) *rest.ApiErr {
	// Unique violations name the constraint (postgres default: table_column_key);
	// not-null violations carry the column directly instead.
	columnName := err.ColumnName
	parts := strings.Split(constraint, "_")
	if len(parts) >= 3 {
		columnName = parts[1]
	}
	if message, ok := errorMap[err.Code]; ok {
		fmtMsg := fmt.Sprintf("%s %s", columnName, message)
		cause := rest.Causes{
			Field:   columnName,
			Message: fmtMsg,
		}
		return rest.NewBadRequestValidationError(fmtMsg, []rest.Causes{cause})
	}
	return rest.NewInternalServerError("error al insertar datos")
}
