package dto

// DashboardResponse aggregates pipeline and lead-quality statistics for one
// academy.
type DashboardResponse struct {
	TotalLeads       int64            `json:"total_leads"`
	LeadsByStatus    map[string]int64 `json:"leads_by_status"`
	PipelineByStage  map[string]int64 `json:"pipeline_by_stage"`
	AverageLeadScore float64          `json:"average_lead_score"`
	HotLeads         int64            `json:"hot_leads"`
}
