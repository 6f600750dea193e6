package service

import (
	"errors"
	"fmt"
	"strings"

	"vehicle-info-bot/internal/domain/vehicle"
)

const (
	NoDetailsText   = "נמצא מידע על הרכב אך אין פרטים זמינים."
	FormatErrorText = "שגיאה בעיצוב מידע על הרכב."
)

var ErrMalformedRecord = errors.New("malformed vehicle record")

// Field maps a display label to a registry field.
type Field struct {
	Label string
	Key   string
}

// Fields is the display order of record fields.
var Fields = []Field{
	{Label: "מספר רישוי", Key: "mispar_rechev"},
	{Label: "יצרן", Key: "tozeret_nm"},
	{Label: "דגם", Key: "degem_nm"},
	{Label: "שם מסחרי", Key: "kinuy_mishari"},
	{Label: "שנת ייצור", Key: "shnat_yitzur"},
	{Label: "צבע", Key: "tzeva_rechev"},
	{Label: "סוג דלק", Key: "sug_delek_nm"},
	{Label: "בעלות", Key: "baalut"},
	{Label: "מספר שלדה", Key: "misgeret"},
	{Label: "מנוע", Key: "degem_manoa"},
	{Label: "תאריך בדיקה אחרונה", Key: "mivchan_acharon_dt"},
	{Label: "תוקף רישום", Key: "tokef_dt"},
	{Label: "צמיגים קדמיים", Key: "zmig_kidmi"},
	{Label: "צמיגים אחוריים", Key: "zmig_ahori"},
}

// Format picks the displayable fields of a record in table order.
func Format(record vehicle.Record) (vehicle.FormattedReply, error) {
	reply := vehicle.FormattedReply{}
	for _, f := range Fields {
		value, ok, err := record.Value(f.Key)
		if err != nil {
			return vehicle.FormattedReply{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
		}
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if isPlaceholder(value) {
			continue
		}
		reply.Lines = append(reply.Lines, vehicle.Line{Label: f.Label, Key: f.Key, Value: value})
	}
	return reply, nil
}

// FormatText renders a record as plain "label: value" lines, falling back to
// the canned texts for empty and malformed records.
func FormatText(record vehicle.Record) string {
	reply, err := Format(record)
	if err != nil {
		return FormatErrorText
	}
	if reply.Empty() {
		return NoDetailsText
	}
	return reply.Plain()
}

func isPlaceholder(value string) bool {
	switch strings.ToLower(value) {
	case "", "null", "none":
		return true
	}
	return false
}
