// Package model holds the lead record types flowing through the ETL:
// the loosely-typed CRM input, the flat normalized output, and the
// reference dimension rows.
package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// RawLead is one lead record as amoCRM returns it. Scalar fields are
// declared as `any` because the CRM is not strict about types: ids and
// timestamps arrive as numbers, but absent keys, nulls and stringified
// numbers all occur in real exports. Use AsString/AsInt64 to read them.
type RawLead struct {
	ID                any           `json:"id"`
	Name              any           `json:"name"`
	AccountID         any           `json:"account_id"`
	PipelineID        any           `json:"pipeline_id"`
	StatusID          any           `json:"status_id"`
	Price             any           `json:"price"`
	ResponsibleUserID any           `json:"responsible_user_id"`
	CreatedBy         any           `json:"created_by"`
	UpdatedBy         any           `json:"updated_by"`
	CreatedAt         any           `json:"created_at"`
	UpdatedAt         any           `json:"updated_at"`
	ClosedAt          any           `json:"closed_at"`
	LossReasonID      any           `json:"loss_reason_id"`
	Score             any           `json:"score"`
	IsDeleted         any           `json:"is_deleted"`
	CustomFields      []CustomField `json:"custom_fields_values"`
	Embedded          LeadEmbedded  `json:"_embedded"`
}

// CustomField is one entry of custom_fields_values. FieldCode is an
// enum-like code ("PHONE", "EMAIL") when the field is a system one,
// empty for account-defined fields which only carry a display name.
type CustomField struct {
	FieldCode string             `json:"field_code"`
	FieldName string             `json:"field_name"`
	Values    []CustomFieldValue `json:"values"`
}

// CustomFieldValue wraps a single value; the CRM sends strings, numbers
// and booleans here depending on the field type.
type CustomFieldValue struct {
	Value any `json:"value"`
}

// LeadEmbedded carries the _embedded sub-document; only tags are used.
type LeadEmbedded struct {
	Tags []LeadTag `json:"tags"`
}

// LeadTag is one tag attached to a lead.
type LeadTag struct {
	Name string `json:"name"`
}

// AsString renders a loosely-typed CRM scalar as a string. Nil and
// unsupported types degrade to "". Whole-number floats (the usual result
// of decoding JSON numbers into any) print without a fraction so ids and
// timestamps survive the round trip.
func AsString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "1"
		}
		return "0"
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}

// AsInt64 coerces a loosely-typed CRM scalar to int64. Decimal commas
// are tolerated because some CRM exports localize numbers.
func AsInt64(v any) (int64, bool) {
	s := strings.TrimSpace(AsString(v))
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int64(f), true
}
