package numbering

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Fallback formatters used when no rule row is configured for a document type.

const (
	dateLayout     = "20060102"
	dateTimeLayout = "20060102150405"
)

func orDefault(prefix, def string) string {
	if prefix == "" {
		return def
	}
	return prefix
}

// LotNumber renders <P>YYYYMMDD<line><seq3>, prefix defaults to LOT
func LotNumber(prefix, lineCode string, now time.Time, seq int) string {
	return fmt.Sprintf("%s%s%s%03d", orDefault(prefix, "LOT"), now.Format(dateLayout), lineCode, seq)
}

// BoxNumber renders BOXYYYYMMDD<line><seq3>
func BoxNumber(lineCode string, now time.Time, seq int) string {
	return LotNumber("BOX", lineCode, now, seq)
}

// DailyNumber renders <P>YYYYMMDD<seq3>
func DailyNumber(prefix string, now time.Time, seq int) string {
	return fmt.Sprintf("%s%s%03d", prefix, now.Format(dateLayout), seq)
}

// PalletNumber renders PLTYYYYMMDD<seq3>
func PalletNumber(now time.Time, seq int) string { return DailyNumber("PLT", now, seq) }

// JobOrderNumber renders WOYYYYMMDD<seq3>
func JobOrderNumber(now time.Time, seq int) string { return DailyNumber("WO", now, seq) }

// ShipmentNumber renders SHPYYYYMMDD<seq3>
func ShipmentNumber(now time.Time, seq int) string { return DailyNumber("SHP", now, seq) }

// RepairNumber renders RPRYYYYMMDD<seq3>
func RepairNumber(now time.Time, seq int) string { return DailyNumber("RPR", now, seq) }

// AdjustNumber renders ADJYYYYMMDD<seq3>
func AdjustNumber(now time.Time, seq int) string { return DailyNumber("ADJ", now, seq) }

// TransferNumber renders TRFYYYYMMDD<seq3>
func TransferNumber(now time.Time, seq int) string { return DailyNumber("TRF", now, seq) }

// SerialNumber renders SERYYYYMMDDHHmmss<seq3>
func SerialNumber(now time.Time, seq int) string {
	return fmt.Sprintf("SER%s%03d", now.Format(dateTimeLayout), seq)
}

// InspectionType is the stage a quality inspection belongs to
type InspectionType string

const (
	InspectionIQC InspectionType = "IQC"
	InspectionPQC InspectionType = "PQC"
	InspectionFQC InspectionType = "FQC"
	InspectionOQC InspectionType = "OQC"
)

// InspectionNumber renders <IQC|PQC|FQC|OQC>YYYYMMDD<seq3>
func InspectionNumber(kind InspectionType, now time.Time, seq int) string {
	return DailyNumber(string(kind), now, seq)
}

// DefectNumber renders DEF-<proc>-YYYYMMDD-<seq3>
func DefectNumber(processCode string, now time.Time, seq int) string {
	return fmt.Sprintf("DEF-%s-%s-%03d", processCode, now.Format(dateLayout), seq)
}

// DatedCounter renders <P>-YYYYMMDD-NNN, used for OQC requests and PM work orders
func DatedCounter(prefix string, now time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%03d", prefix, now.Format(dateLayout), seq)
}

// DatedPrefix returns the <P>-YYYYMMDD- part shared by all numbers of one day
func DatedPrefix(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%s-", prefix, now.Format(dateLayout))
}

// CompactCounter renders <P>YYYYMMDD<seq4>, used by outsourcing documents
func CompactCounter(prefix string, now time.Time, seq int) string {
	return fmt.Sprintf("%s%s%04d", prefix, now.Format(dateLayout), seq)
}

var (
	dateRun      = regexp.MustCompile(`\d{8}`)
	trailingRun  = regexp.MustCompile(`\d+$`)
	minValidYear = 2020
	maxValidYear = 2100
)

// ExtractDate returns the first 8-digit run in number, or "" when there is none
func ExtractDate(number string) string {
	return dateRun.FindString(number)
}

// ExtractSequence returns the trailing digits of number, or 0
func ExtractSequence(number string) int {
	m := trailingRun.FindString(number)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// IsValidNumber checks the prefix and that the embedded date is plausible
func IsValidNumber(number, prefix string) bool {
	if number == "" || !strings.HasPrefix(number, prefix) {
		return false
	}
	date := ExtractDate(number)
	if date == "" {
		return false
	}
	year, _ := strconv.Atoi(date[0:4])
	month, _ := strconv.Atoi(date[4:6])
	day, _ := strconv.Atoi(date[6:8])
	return year >= minValidYear && year <= maxValidYear &&
		month >= 1 && month <= 12 &&
		day >= 1 && day <= 31
}
