package model

import "strconv"

// StatusRow is one row of the pipeline-status dimension, flattened from
// the CRM's pipelines listing (one row per pipeline/status pair).
type StatusRow struct {
	ClientID     int64
	ClientSlug   string
	PipelineID   int64
	PipelineName string
	StatusID     int64
	StatusName   string
	Sort         int64
	IsFinal      bool
	IsWon        bool
	IsLost       bool
	UpdatedAt    string
}

// StatusHeader is the CSV column order for the status dimension.
var StatusHeader = []string{
	"client_id", "client_slug",
	"pipeline_id", "pipeline_name",
	"status_id", "status_name",
	"sort", "is_final", "is_won", "is_lost",
	"updated_at",
}

// Row renders the status row in StatusHeader order.
func (r StatusRow) Row() []string {
	return []string{
		strconv.FormatInt(r.ClientID, 10),
		r.ClientSlug,
		strconv.FormatInt(r.PipelineID, 10),
		r.PipelineName,
		strconv.FormatInt(r.StatusID, 10),
		r.StatusName,
		strconv.FormatInt(r.Sort, 10),
		boolFlag(r.IsFinal),
		boolFlag(r.IsWon),
		boolFlag(r.IsLost),
		r.UpdatedAt,
	}
}

// StatusRowFromRecord maps a CSV record onto a StatusRow by header name.
func StatusRowFromRecord(header, record []string) StatusRow {
	var r StatusRow
	for i, col := range header {
		if i >= len(record) {
			break
		}
		v := record[i]
		switch col {
		case "client_id":
			r.ClientID, _ = AsInt64(v)
		case "client_slug":
			r.ClientSlug = v
		case "pipeline_id":
			r.PipelineID, _ = AsInt64(v)
		case "pipeline_name":
			r.PipelineName = v
		case "status_id":
			r.StatusID, _ = AsInt64(v)
		case "status_name":
			r.StatusName = v
		case "sort":
			r.Sort, _ = AsInt64(v)
		case "is_final":
			r.IsFinal = parseFlag(v)
		case "is_won":
			r.IsWon = parseFlag(v)
		case "is_lost":
			r.IsLost = parseFlag(v)
		case "updated_at":
			r.UpdatedAt = v
		}
	}
	return r
}

// LossReasonRow is one row of the loss-reason dimension.
type LossReasonRow struct {
	ClientID       int64
	ClientSlug     string
	LossReasonID   int64
	LossReasonName string
	CreatedAt      string
	UpdatedAt      string
	Sort           int64
}

// LossReasonHeader is the CSV column order for the loss-reason dimension.
var LossReasonHeader = []string{
	"client_id", "client_slug",
	"loss_reason_id", "loss_reason_name",
	"created_at", "updated_at",
	"sort",
}

// Row renders the loss-reason row in LossReasonHeader order.
func (r LossReasonRow) Row() []string {
	return []string{
		strconv.FormatInt(r.ClientID, 10),
		r.ClientSlug,
		strconv.FormatInt(r.LossReasonID, 10),
		r.LossReasonName,
		r.CreatedAt,
		r.UpdatedAt,
		strconv.FormatInt(r.Sort, 10),
	}
}

// LossReasonRowFromRecord maps a CSV record onto a LossReasonRow.
func LossReasonRowFromRecord(header, record []string) LossReasonRow {
	var r LossReasonRow
	for i, col := range header {
		if i >= len(record) {
			break
		}
		v := record[i]
		switch col {
		case "client_id":
			r.ClientID, _ = AsInt64(v)
		case "client_slug":
			r.ClientSlug = v
		case "loss_reason_id":
			r.LossReasonID, _ = AsInt64(v)
		case "loss_reason_name":
			r.LossReasonName = v
		case "created_at":
			r.CreatedAt = v
		case "updated_at":
			r.UpdatedAt = v
		case "sort":
			r.Sort, _ = AsInt64(v)
		}
	}
	return r
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func parseFlag(v string) bool {
	switch v {
	case "1", "true", "True", "yes", "y":
		return true
	}
	return false
}
