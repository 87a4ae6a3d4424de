package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump flattens an error chain into log-friendly fields.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Chain      []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGClass      string `json:"pg_class,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGColumn     string `json:"pg_column,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`
}

// postgres SQLSTATE classes worth naming in logs
var pgClasses = map[string]string{
	"08": "connection_exception",
	"22": "data_exception",
	"23": "integrity_constraint_violation",
	"25": "invalid_transaction_state",
	"40": "transaction_rollback",
	"42": "syntax_error_or_access_rule_violation",
	"53": "insufficient_resources",
	"57": "operator_intervention",
}

// Dump walks err and extracts the typed code plus any Postgres diagnostics.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}
	d := ErrorDump{TopMessage: err.Error()}
	if typed := As(err); typed != nil {
		d.Code = typed.Code()
	}
	for link := err; link != nil; link = errors.Unwrap(link) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", link, link))
	}
	d.fillPostgres(err)
	return d
}

// PostgresCode returns the SQLSTATE carried by err, if any.
func PostgresCode(err error) string {
	var d ErrorDump
	d.fillPostgres(err)
	return d.PGCode
}

// fillPostgres accepts both pgx and lib/pq driver errors.
func (d *ErrorDump) fillPostgres(err error) {
	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgxErr):
		d.PGCode, d.PGMessage, d.PGDetail = pgxErr.Code, pgxErr.Message, pgxErr.Detail
		d.PGConstraint, d.PGTable, d.PGColumn = pgxErr.ConstraintName, pgxErr.TableName, pgxErr.ColumnName
	case errors.As(err, &pqErr):
		d.PGCode, d.PGMessage, d.PGDetail = string(pqErr.Code), pqErr.Message, pqErr.Detail
		d.PGConstraint, d.PGTable, d.PGColumn = pqErr.Constraint, pqErr.Table, pqErr.Column
	default:
		return
	}
	if len(d.PGCode) >= 2 {
		d.PGClass = pgClasses[d.PGCode[:2]]
	}
}
