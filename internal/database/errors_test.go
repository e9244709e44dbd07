package database

import (
	"net/http"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestGetError_UniqueViolation(t *testing.T) {
	// Default postgres name for the orden.codigo UNIQUE constraint.
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "orden_codigo_key"}

	apiErr := GetError(pgErr, pgErr.ConstraintName)
	if apiErr.Code != http.StatusBadRequest {
		t.Errorf("code = %d, want %d", apiErr.Code, http.StatusBadRequest)
	}
	if len(apiErr.Causes) != 1 || apiErr.Causes[0].Field != "codigo" {
		t.Errorf("causes = %+v, want one cause on field codigo", apiErr.Causes)
	}
	if !strings.Contains(apiErr.Message, "ya está en uso") {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestGetError_NotNullViolationUsesColumnName(t *testing.T) {
	// Not-null violations carry no constraint name, only the column.
	pgErr := &pgconn.PgError{Code: "23502", ColumnName: "grupo"}

	apiErr := GetError(pgErr, pgErr.ConstraintName)
	if apiErr.Code != http.StatusBadRequest {
		t.Errorf("code = %d, want %d", apiErr.Code, http.StatusBadRequest)
	}
	if len(apiErr.Causes) != 1 || apiErr.Causes[0].Field != "grupo" {
		t.Errorf("causes = %+v, want one cause on field grupo", apiErr.Causes)
	}
	if apiErr.Message != "grupo no puede ser nulo" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestGetError_UnmappedCodeIsInternal(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "40001"}

	apiErr := GetError(pgErr, "")
	if apiErr.Code != http.StatusInternalServerError {
		t.Errorf("code = %d, want %d", apiErr.Code, http.StatusInternalServerError)
	}
}
