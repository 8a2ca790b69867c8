package dto

// MetaLeadPayload is the envelope Meta posts to the Lead Ads webhook.
type MetaLeadPayload struct {
	Object string          `json:"object"`
	Entry  []MetaLeadEntry `json:"entry"`
}

// MetaLeadEntry is one page-level notification batch.
type MetaLeadEntry struct {
	ID      string           `json:"id"`
	Time    int64            `json:"time"`
	Changes []MetaLeadChange `json:"changes"`
}

// MetaLeadChange is one leadgen change inside an entry.
type MetaLeadChange struct {
	Field string        `json:"field"`
	Value MetaLeadValue `json:"value"`
}

// MetaLeadValue carries the lead form submission.
type MetaLeadValue struct {
	LeadgenID   string          `json:"leadgen_id"`
	FormID      string          `json:"form_id"`
	PageID      string          `json:"page_id"`
	CreatedTime int64           `json:"created_time"`
	FieldData   []MetaLeadField `json:"field_data"`
}

// MetaLeadField is one answered form question.
type MetaLeadField struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// WebhookIntakeResult reports the outcome of a processed webhook delivery.
type WebhookIntakeResult struct {
	Created  int `json:"created"`
	Skipped  int `json:"skipped"`
	Rejected int `json:"rejected"`
}
