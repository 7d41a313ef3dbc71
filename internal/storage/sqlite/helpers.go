package sqlite

import (
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/chrisroyse/docprov/internal/common"
)

// wrapWriteError maps a raw SQLite error into the stable AppError taxonomy
// a DAL write must surface (§4.2): busy/locked becomes DATABASE_LOCKED, a
// foreign key violation FOREIGN_KEY_VIOLATION, a unique or primary key
// violation ALREADY_EXISTS, a check violation VALIDATION; everything else
// (including other constraint kinds) is an internal error.
func wrapWriteError(err error, context string) error {
	if err == nil {
		return nil
	}
	if sqliteErr, ok := err.(sqlite3.Error); ok {
		switch sqliteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return common.DatabaseLocked(context, err)
		case sqlite3.ErrConstraint:
			switch sqliteErr.ExtendedCode {
			case sqlite3.ErrConstraintForeignKey:
				return common.ForeignKeyViolation(context, err)
			case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
				return common.AlreadyExists(context)
			case sqlite3.ErrConstraintCheck:
				return common.Validation(context + ": " + err.Error())
			}
		}
	}
	return common.Internal(context, err)
}

// marshalJSON serializes a value to its JSON text-column representation,
// defaulting to an empty object/array rather than the literal "null".
func marshalJSON(v interface{}) (string, error) {
	if v == nil {
		return "{}", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalJSONInto(raw string, v interface{}) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), v)
}

// scanNoRows converts sql.ErrNoRows into a nil, found=false pair, the
// shared "lookups by id return an optional value" contract (§4.2).
func scanNoRows(err error) (bool, error) {
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}
