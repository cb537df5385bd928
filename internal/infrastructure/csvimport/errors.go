package csvimport

import (
	"errors"
	"fmt"
)

// Row error codes
const (
	CodeRequired      = "REQUIRED"
	CodeInvalidType   = "INVALID_TYPE"
	CodeInvalidLength = "INVALID_LENGTH"
	CodeOutOfRange    = "OUT_OF_RANGE"
	CodeNotAllowed    = "NOT_ALLOWED"
	CodeDuplicateFile = "DUPLICATE_IN_FILE"
	CodeDuplicateDB   = "DUPLICATE_IN_DB"
	CodeNotFound      = "REFERENCE_NOT_FOUND"
	CodeInvalid       = "INVALID"
)

// Sheet level errors
var (
	ErrEmptyFile     = errors.New("file is empty")
	ErrMissingHeader = errors.New("file has no header row")
	ErrNoDataRows    = errors.New("file has no data rows")
	ErrTooManyRows   = errors.New("too many rows")
	ErrMalformedRow  = errors.New("malformed row")
)

// RowError is one problem found on one cell of the sheet
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// DefaultMaxErrors caps the errors kept by an ErrorCollection
const DefaultMaxErrors = 100

// ErrorCollection keeps the first maxErrors row errors and counts the rest
type ErrorCollection struct {
	errors    []RowError
	maxErrors int
	total     int
	rows      map[int]struct{}
}

// NewErrorCollection creates an ErrorCollection
func NewErrorCollection(maxErrors int) *ErrorCollection {
	if maxErrors <= 0 {
		maxErrors = DefaultMaxErrors
	}
	return &ErrorCollection{maxErrors: maxErrors, rows: make(map[int]struct{})}
}

// Add records err
func (ec *ErrorCollection) Add(err RowError) {
	ec.total++
	ec.rows[err.Row] = struct{}{}
	if len(ec.errors) < ec.maxErrors {
		ec.errors = append(ec.errors, err)
	}
}

// AddRequired records a blank mandatory cell
func (ec *ErrorCollection) AddRequired(row int, column string) {
	ec.Add(RowError{Row: row, Column: column, Code: CodeRequired, Message: "value is required"})
}

// AddDuplicate records a value already used in the file or in the database
func (ec *ErrorCollection) AddDuplicate(row int, column, value string, inDB bool) {
	if inDB {
		ec.Add(RowError{Row: row, Column: column, Code: CodeDuplicateDB, Message: "value already exists", Value: value})
		return
	}
	ec.Add(RowError{Row: row, Column: column, Code: CodeDuplicateFile, Message: "value is repeated in the file", Value: value})
}

// AddNotFound records a reference to a missing master row
func (ec *ErrorCollection) AddNotFound(row int, column, value string) {
	ec.Add(RowError{Row: row, Column: column, Code: CodeNotFound, Message: "referenced value does not exist", Value: value})
}

// Errors returns the kept errors in the order they were added
func (ec *ErrorCollection) Errors() []RowError { return ec.errors }

// Total returns the number of errors added, kept or not
func (ec *ErrorCollection) Total() int { return ec.total }

// HasErrors reports whether any error was added
func (ec *ErrorCollection) HasErrors() bool { return ec.total > 0 }

// Truncated reports whether errors were dropped
func (ec *ErrorCollection) Truncated() bool { return ec.total > len(ec.errors) }

// RowFailed reports whether row has at least one error
func (ec *ErrorCollection) RowFailed(row int) bool {
	_, ok := ec.rows[row]
	return ok
}

// FailedRows returns the number of distinct rows with errors
func (ec *ErrorCollection) FailedRows() int { return len(ec.rows) }
