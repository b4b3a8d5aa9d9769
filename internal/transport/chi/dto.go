package chi

import (
	"time"

	"github.com/gridwatch/searchsync/internal/domain/latency"
	"github.com/gridwatch/searchsync/internal/domain/search/result"
	healthuc "github.com/gridwatch/searchsync/internal/usecase/health"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type resyncResponse struct {
	Processed int `json:"processed"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func healthToResponse(r healthuc.Report) healthResponse {
	checks := make(map[string]string, len(r.Checks))
	for k, v := range r.Checks {
		checks[k] = string(v)
	}
	return healthResponse{Status: string(r.Status), Checks: checks}
}

type searchItemResponse struct {
	EntityType  string            `json:"entity_type"`
	EntityID    int64             `json:"entity_id"`
	Tenant      string            `json:"tenant"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Status      string            `json:"status,omitempty"`
	Score       float64           `json:"score"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type searchResponse struct {
	Items      []searchItemResponse `json:"items"`
	Total      int                  `json:"total"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	PageCount  int                  `json:"page_count"`
	DurationMS int64                `json:"duration_ms"`
}

func pageToResponse(p result.Page) searchResponse {
	items := make([]searchItemResponse, 0, len(p.Items))
	for i := range p.Items {
		it := &p.Items[i]
		items = append(items, searchItemResponse{
			EntityType:  string(it.EntityType()),
			EntityID:    it.EntityID(),
			Tenant:      it.TenantID(),
			Name:        it.Name(),
			Description: it.Description(),
			Status:      it.Status(),
			Score:       it.Score(),
			Metadata:    it.Metadata(),
		})
	}
	return searchResponse{
		Items:      items,
		Total:      p.Total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		PageCount:  p.PageCount,
		DurationMS: p.DurationMS,
	}
}

type statsResponse struct {
	Count int     `json:"count"`
	AvgMS float64 `json:"avg_ms"`
	MinMS int64   `json:"min_ms"`
	MaxMS int64   `json:"max_ms"`
	P50MS int64   `json:"p50_ms"`
	P95MS int64   `json:"p95_ms"`
	P99MS int64   `json:"p99_ms"`
}

func statsToResponse(s latency.Stats) statsResponse {
	return statsResponse{
		Count: s.Count, AvgMS: s.AvgMS,
		MinMS: s.MinMS, MaxMS: s.MaxMS,
		P50MS: s.P50MS, P95MS: s.P95MS, P99MS: s.P99MS,
	}
}

type slowQueryResponse struct {
	At         time.Time `json:"at"`
	Tenant     string    `json:"tenant"`
	QueryType  string    `json:"query_type"`
	DurationMS int64     `json:"duration_ms"`
}

func slowQueriesToResponse(samples []latency.Sample) []slowQueryResponse {
	out := make([]slowQueryResponse, 0, len(samples))
	for _, s := range samples {
		out = append(out, slowQueryResponse{
			At: s.At, Tenant: s.Tenant, QueryType: s.QueryType, DurationMS: s.DurationMS,
		})
	}
	return out
}

type distributionResponse struct {
	Under100MS     int `json:"under_100ms"`
	From100To500   int `json:"100ms_500ms"`
	From500To1000  int `json:"500ms_1000ms"`
	From1000To2000 int `json:"1000ms_2000ms"`
	Over2000MS     int `json:"over_2000ms"`
}

func distributionToResponse(d latency.Distribution) distributionResponse {
	return distributionResponse{
		Under100MS:     d.Under100MS,
		From100To500:   d.From100To500,
		From500To1000:  d.From500To1000,
		From1000To2000: d.From1000To2000,
		Over2000MS:     d.Over2000MS,
	}
}

type slaResponse struct {
	Samples         int     `json:"samples"`
	AvgMS           float64 `json:"avg_ms"`
	P99MS           int64   `json:"p99_ms"`
	AvgWithinTarget bool    `json:"avg_within_target"`
	P99WithinTarget bool    `json:"p99_within_target"`
	Compliant       bool    `json:"compliant"`
	SlowCount       int     `json:"slow_count"`
	SlowPercent     float64 `json:"slow_percent"`
}

func slaToResponse(r latency.SLAReport) slaResponse {
	return slaResponse{
		Samples:         r.Samples,
		AvgMS:           r.AvgMS,
		P99MS:           r.P99MS,
		AvgWithinTarget: r.AvgWithinTarget,
		P99WithinTarget: r.P99WithinTarget,
		Compliant:       r.Compliant,
		SlowCount:       r.SlowCount,
		SlowPercent:     r.SlowPercent,
	}
}
