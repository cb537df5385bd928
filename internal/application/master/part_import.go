package master

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/infrastructure/csvimport"
)

// Part sheet limits
const (
	MaxImportRows   = 5000
	MaxImportErrors = 200
)

// Part sheet columns
const (
	colPartCode    = "partCode"
	colPartName    = "partName"
	colPartType    = "partType"
	colUnit        = "unit"
	colSpec        = "spec"
	colSafetyStock = "safetyStock"
	colUseYn       = "useYn"
	colRemark      = "remark"
)

var (
	partTypeRule = csvimport.Field(colPartType).Required().OneOf(string(master.PartTypeRaw), string(master.PartTypeWIP), string(master.PartTypeFG)).Build()
	useYnRule    = csvimport.Field(colUseYn).OneOf(shared.Yes, shared.No).Build()

	partSheetRules = []csvimport.FieldRule{
		csvimport.Field(colPartCode).Required().MaxLength(50).Unique().Build(),
		csvimport.Field(colPartName).Required().MaxLength(200).Build(),
		partTypeRule,
		csvimport.Field(colUnit).MaxLength(10).Build(),
		csvimport.Field(colSpec).MaxLength(500).Build(),
		csvimport.Field(colSafetyStock).Int().Min(0).Build(),
		useYnRule,
		csvimport.Field(colRemark).MaxLength(500).Build(),
	}
)

// PartImportRepositories are the repositories a part import writes through
type PartImportRepositories interface {
	Parts() master.PartRepository
}

// PartImportScope runs fn inside one database transaction
type PartImportScope interface {
	Execute(ctx context.Context, fn func(repos PartImportRepositories) error) error
}

// PartImportResult reports what an import found and did
type PartImportResult struct {
	Encoding   string               `json:"encoding"`
	TotalRows  int                  `json:"totalRows"`
	ValidRows  int                  `json:"validRows"`
	ErrorRows  int                  `json:"errorRows"`
	Created    int                  `json:"created"`
	DryRun     bool                 `json:"dryRun"`
	Errors     []csvimport.RowError `json:"errors"`
	ErrorCount int                  `json:"errorCount"`
	Truncated  bool                 `json:"truncated"`
}

// HasErrors reports whether any row was rejected
func (r *PartImportResult) HasErrors() bool { return r.ErrorCount > 0 }

// PartImportService registers parts in bulk from a CSV sheet. The sheet is
// all or nothing: one bad row and no part is written.
type PartImportService struct {
	parts master.PartRepository
	tx    PartImportScope
}

// NewPartImportService creates a new PartImportService
func NewPartImportService(parts master.PartRepository, tx PartImportScope) *PartImportService {
	return &PartImportService{parts: parts, tx: tx}
}

// Import validates the sheet in r and, unless dryRun is set or a row failed,
// creates every part in one transaction.
func (s *PartImportService) Import(ctx context.Context, actor shared.Actor, r io.Reader, dryRun bool) (*PartImportResult, error) {
	parser, err := csvimport.NewParser(r)
	if err != nil {
		return nil, sheetError(err)
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, sheetError(err)
	}
	if missing := parser.MissingHeaders(colPartCode, colPartName, colPartType); len(missing) > 0 {
		return nil, shared.InvalidInput("missing columns: %s", strings.Join(missing, ", "))
	}
	rows, err := parser.ReadAll(MaxImportRows)
	if err != nil {
		return nil, sheetError(err)
	}

	validator := csvimport.NewValidator(partSheetRules, MaxImportErrors)
	errs := validator.Errors()
	parts := make([]*master.Part, 0, len(rows))
	for _, row := range rows {
		if !validator.ValidateRow(row) {
			continue
		}
		p, err := s.partFromRow(ctx, actor, row, errs)
		if err != nil {
			return nil, err
		}
		if p != nil {
			parts = append(parts, p)
		}
	}

	result := &PartImportResult{
		Encoding:   string(parser.Encoding()),
		TotalRows:  len(rows),
		ErrorRows:  errs.FailedRows(),
		DryRun:     dryRun,
		Errors:     errs.Errors(),
		ErrorCount: errs.Total(),
		Truncated:  errs.Truncated(),
	}
	result.ValidRows = result.TotalRows - result.ErrorRows
	if result.Errors == nil {
		result.Errors = []csvimport.RowError{}
	}
	if dryRun || result.HasErrors() {
		return result, nil
	}

	err = s.tx.Execute(ctx, func(repos PartImportRepositories) error {
		for _, p := range parts {
			if err := repos.Parts().Create(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Created = len(parts)
	return result, nil
}

// partFromRow builds the part of a row that passed the sheet rules. A part code
// already registered is recorded on errs and yields nil.
func (s *PartImportService) partFromRow(ctx context.Context, actor shared.Actor, row *csvimport.Row, errs *csvimport.ErrorCollection) (*master.Part, error) {
	code := row.Get(colPartCode)
	exists, err := s.parts.Exists(ctx, actor, shared.Conds{"part_code": code}, nil)
	if err != nil {
		return nil, err
	}
	if exists {
		errs.AddDuplicate(row.Line, colPartCode, code, true)
		return nil, nil
	}

	partType := csvimport.Normalize(partTypeRule, row.Get(colPartType))
	p, err := master.NewPart(actor, code, row.Get(colPartName), master.PartType(partType))
	if err != nil {
		return nil, err
	}
	p.Unit = row.GetOrDefault(colUnit, p.Unit)
	p.Spec = row.Get(colSpec)
	p.Remark = row.Get(colRemark)
	if v := row.Get(colSafetyStock); v != "" {
		p.SafetyStock, _ = strconv.Atoi(v)
	}
	if v := row.Get(colUseYn); v != "" {
		p.UseYn = csvimport.Normalize(useYnRule, v)
	}
	return p, nil
}

// sheetError maps a sheet level parse failure to INVALID_INPUT
func sheetError(err error) error {
	for _, known := range []error{
		csvimport.ErrEmptyFile, csvimport.ErrMissingHeader, csvimport.ErrNoDataRows,
		csvimport.ErrTooManyRows, csvimport.ErrMalformedRow,
	} {
		if errors.Is(err, known) {
			return shared.InvalidInput("%s", err.Error())
		}
	}
	return err
}
