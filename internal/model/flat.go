package model

import "strconv"

// FlatLead is the normalized, tabular form of one lead. Every derived
// field is a plain string defaulting to "" so a row can always be
// written, no matter how malformed the input was. Column order follows
// FlatHeader and matches the warehouse facts table.
type FlatLead struct {
	ClientID          int64
	ClientSlug        string
	ID                string
	Name              string
	AccountID         string
	PipelineID        string
	StatusID          string
	Price             string
	CreatedAt         string
	UpdatedAt         string
	ClosedAt          string
	ResponsibleUserID string
	CreatedBy         string
	UpdatedBy         string
	IsDeleted         string
	LossReasonID      string
	Score             string
	CreatedDt         string
	UpdatedDt         string
	ClosedDt          string
	Phone             string
	Email             string
	Source            string
	UTMSource         string
	UTMMedium         string
	UTMCampaign       string
	UTMContent        string
	UTMTerm           string
	Channel           string
	PhoneFromName     string
	NameClean         string
	Tags              string
}

// FlatHeader is the CSV column order for normalized leads.
var FlatHeader = []string{
	"client_id",
	"client_slug",
	"id",
	"name",
	"account_id",
	"pipeline_id",
	"status_id",
	"price",
	"created_at",
	"updated_at",
	"closed_at",
	"responsible_user_id",
	"created_by",
	"updated_by",
	"is_deleted",
	"loss_reason_id",
	"score",
	"created_dt",
	"updated_dt",
	"closed_dt",
	"phone",
	"email",
	"source",
	"utm_source",
	"utm_medium",
	"utm_campaign",
	"utm_content",
	"utm_term",
	"channel",
	"phone_from_name",
	"name_clean",
	"tags",
}

// Row renders the lead in FlatHeader order.
func (l FlatLead) Row() []string {
	return []string{
		strconv.FormatInt(l.ClientID, 10),
		l.ClientSlug,
		l.ID,
		l.Name,
		l.AccountID,
		l.PipelineID,
		l.StatusID,
		l.Price,
		l.CreatedAt,
		l.UpdatedAt,
		l.ClosedAt,
		l.ResponsibleUserID,
		l.CreatedBy,
		l.UpdatedBy,
		l.IsDeleted,
		l.LossReasonID,
		l.Score,
		l.CreatedDt,
		l.UpdatedDt,
		l.ClosedDt,
		l.Phone,
		l.Email,
		l.Source,
		l.UTMSource,
		l.UTMMedium,
		l.UTMCampaign,
		l.UTMContent,
		l.UTMTerm,
		l.Channel,
		l.PhoneFromName,
		l.NameClean,
		l.Tags,
	}
}

func (l *FlatLead) setColumn(name, value string) {
	switch name {
	case "client_id":
		id, _ := AsInt64(value)
		l.ClientID = id
	case "client_slug":
		l.ClientSlug = value
	case "id":
		l.ID = value
	case "name":
		l.Name = value
	case "account_id":
		l.AccountID = value
	case "pipeline_id":
		l.PipelineID = value
	case "status_id":
		l.StatusID = value
	case "price":
		l.Price = value
	case "created_at":
		l.CreatedAt = value
	case "updated_at":
		l.UpdatedAt = value
	case "closed_at":
		l.ClosedAt = value
	case "responsible_user_id":
		l.ResponsibleUserID = value
	case "created_by":
		l.CreatedBy = value
	case "updated_by":
		l.UpdatedBy = value
	case "is_deleted":
		l.IsDeleted = value
	case "loss_reason_id":
		l.LossReasonID = value
	case "score":
		l.Score = value
	case "created_dt":
		l.CreatedDt = value
	case "updated_dt":
		l.UpdatedDt = value
	case "closed_dt":
		l.ClosedDt = value
	case "phone":
		l.Phone = value
	case "email":
		l.Email = value
	case "source":
		l.Source = value
	case "utm_source":
		l.UTMSource = value
	case "utm_medium":
		l.UTMMedium = value
	case "utm_campaign":
		l.UTMCampaign = value
	case "utm_content":
		l.UTMContent = value
	case "utm_term":
		l.UTMTerm = value
	case "channel":
		l.Channel = value
	case "phone_from_name":
		l.PhoneFromName = value
	case "name_clean":
		l.NameClean = value
	case "tags":
		l.Tags = value
	}
}

// FlatLeadFromRecord maps a CSV record onto a FlatLead by header name.
// Unknown columns are ignored, missing ones stay zero.
func FlatLeadFromRecord(header, record []string) FlatLead {
	var l FlatLead
	for i, col := range header {
		if i >= len(record) {
			break
		}
		l.setColumn(col, record[i])
	}
	return l
}
