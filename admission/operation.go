/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package admission

import "sort"

// Operation is a kind of conversion that is counted against its own quota.
type Operation string

// Operations served by the conversion API.
const (
	OperationPDFToText  Operation = "pdf_to_text"
	OperationPDFToTXT   Operation = "pdf_to_txt"
	OperationPDFToDOCX  Operation = "pdf_to_docx"
	OperationPDFToExcel Operation = "pdf_to_excel"
)

// Default daily limits per operation.
const (
	DefaultPDFToTextLimit  = 40
	DefaultPDFToTXTLimit   = 40
	DefaultPDFToDOCXLimit  = 12
	DefaultPDFToExcelLimit = 12
)

// Limits maps an operation to the maximum number of requests per window.
type Limits map[Operation]int

// DefaultLimits returns a new copy of the default per-operation limits.
func DefaultLimits() Limits {
	return Limits{
		OperationPDFToText:  DefaultPDFToTextLimit,
		OperationPDFToTXT:   DefaultPDFToTXTLimit,
		OperationPDFToDOCX:  DefaultPDFToDOCXLimit,
		OperationPDFToExcel: DefaultPDFToExcelLimit,
	}
}

// Operations returns the configured operations sorted by name.
func (l Limits) Operations() []Operation {
	ops := make([]Operation, 0, len(l))
	for op := range l {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

func (l Limits) clone() Limits {
	res := make(Limits, len(l))
	for op, limit := range l {
		res[op] = limit
	}
	return res
}
