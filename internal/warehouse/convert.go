package warehouse

import (
	"strconv"
	"strings"
	"time"

	"github.com/artstat/leads-cli/internal/model"
)

const dtLayout = "2006-01-02 15:04:05"

// leadColumns is the canonical column order of leads_fact, shared by
// both backends so one conversion covers ClickHouse batches and
// Postgres COPY alike.
var leadColumns = []string{
	"client_id", "client_slug", "lead_id", "name",
	"pipeline_id", "status_id", "loss_reason_id",
	"price", "account_id", "created_by", "updated_by", "score",
	"manager_id", "is_deleted",
	"created_at", "updated_at", "closed_at",
	"created_dt", "updated_dt", "closed_dt",
	"phone", "email", "source", "channel",
	"utm_source", "utm_medium", "utm_campaign", "utm_content", "utm_term",
	"phone_from_name", "name_clean", "tags",
	"etl_loaded_at",
}

var statusColumns = []string{
	"client_id", "client_slug",
	"pipeline_id", "pipeline_name",
	"status_id", "status_name",
	"sort", "is_final", "is_won", "is_lost",
	"updated_at",
}

var lossReasonColumns = []string{
	"client_id", "client_slug",
	"loss_reason_id", "loss_reason_name",
	"created_at", "updated_at", "sort",
}

// leadValues converts a flat lead to warehouse column values in
// leadColumns order. Rows without a positive lead id are dropped (ok ==
// false); everything else is coerced leniently, unparsable numerics
// becoming NULL the way the loader always treated them.
func leadValues(row model.FlatLead, loadedAt time.Time) ([]any, bool) {
	leadID := parseInt(row.ID)
	if leadID == nil || *leadID <= 0 {
		return nil, false
	}

	return []any{
		row.ClientID,
		row.ClientSlug,
		*leadID,
		row.Name,
		parseInt(row.PipelineID),
		parseInt(row.StatusID),
		parseInt(row.LossReasonID),
		parseFloat(row.Price),
		parseInt(row.AccountID),
		parseInt(row.CreatedBy),
		parseInt(row.UpdatedBy),
		parseFloat(row.Score),
		parseInt(row.ResponsibleUserID), // manager_id
		flagByte(row.IsDeleted),
		parseDateTime(row.CreatedAt),
		parseDateTime(row.UpdatedAt),
		parseDateTime(row.ClosedAt),
		parseDateTime(row.CreatedDt),
		parseDateTime(row.UpdatedDt),
		parseDateTime(row.ClosedDt),
		row.Phone,
		row.Email,
		row.Source,
		row.Channel,
		row.UTMSource,
		row.UTMMedium,
		row.UTMCampaign,
		row.UTMContent,
		row.UTMTerm,
		row.PhoneFromName,
		row.NameClean,
		row.Tags,
		loadedAt,
	}, true
}

func statusValues(row model.StatusRow, loadedAt time.Time) []any {
	updated := parseDateTime(row.UpdatedAt)
	if updated == nil {
		updated = &loadedAt
	}
	return []any{
		row.ClientID,
		row.ClientSlug,
		row.PipelineID,
		row.PipelineName,
		row.StatusID,
		row.StatusName,
		row.Sort,
		boolByte(row.IsFinal),
		boolByte(row.IsWon),
		boolByte(row.IsLost),
		*updated,
	}
}

func lossReasonValues(row model.LossReasonRow) []any {
	return []any{
		row.ClientID,
		row.ClientSlug,
		row.LossReasonID,
		row.LossReasonName,
		parseDateTime(row.CreatedAt),
		parseDateTime(row.UpdatedAt),
		row.Sort,
	}
}

func parseInt(s string) *int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return nil
	}
	n := int64(f)
	return &n
}

func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseDateTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	// Tolerate an ISO "T" separator and a timezone suffix.
	s = strings.ReplaceAll(s, "T", " ")
	if i := strings.IndexAny(s, "+Z"); i > 0 {
		s = strings.TrimSpace(s[:i])
	}
	t, err := time.ParseInLocation(dtLayout, s, time.UTC)
	if err != nil {
		return nil
	}
	return &t
}

// flagByte folds the CSV's is_deleted spellings into 0/1.
func flagByte(s string) uint8 {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y":
		return 1
	}
	return 0
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
