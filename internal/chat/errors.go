package chat

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var (
	// ErrConnectionFailure means the database could not be reached or
	// authenticated against.
	ErrConnectionFailure = errors.New("chat store: connection failure")
	// ErrConstraintViolation covers unique, foreign-key and check violations.
	ErrConstraintViolation = errors.New("chat store: constraint violation")
	ErrInvalidRole         = errors.New("chat store: invalid role")
	ErrEmptyUserID         = errors.New("chat store: empty user id")
	ErrEmptySessionID      = errors.New("chat store: empty session id")
)

// MySQL server error numbers that indicate a constraint violation.
var mysqlConstraintCodes = map[uint16]bool{
	1062: true, // ER_DUP_ENTRY
	1216: true, // ER_NO_REFERENCED_ROW
	1217: true, // ER_ROW_IS_REFERENCED
	1451: true, // ER_ROW_IS_REFERENCED_2
	1452: true, // ER_NO_REFERENCED_ROW_2
	1265: true, // WARN_DATA_TRUNCATED, raised for bad ENUM values in strict mode
	3819: true, // ER_CHECK_CONSTRAINT_VIOLATED
}

// wrapErr attaches op context and the matching error kind to a storage error.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrConstraintViolation), errors.Is(err, ErrConnectionFailure):
		return fmt.Errorf("%s: %w", op, err)
	case isConstraintViolation(err):
		return fmt.Errorf("%s: %w: %w", op, ErrConstraintViolation, err)
	case isConnectionFailure(err):
		return fmt.Errorf("%s: %w: %w", op, ErrConnectionFailure, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func isConstraintViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) ||
		errors.Is(err, gorm.ErrForeignKeyViolated) ||
		errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return mysqlConstraintCodes[myErr.Number]
	}
	// sqlite: "UNIQUE constraint failed", "FOREIGN KEY constraint failed", ...
	return strings.Contains(err.Error(), "constraint failed")
}

func isConnectionFailure(err error) bool {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		// ER_ACCESS_DENIED_ERROR, ER_DBACCESS_DENIED_ERROR, ER_BAD_DB_ERROR
		return myErr.Number == 1045 || myErr.Number == 1044 || myErr.Number == 1049
	}
	return false
}
