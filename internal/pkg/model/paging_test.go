package model

import "testing"

func TestPagingQuery(t *testing.T) {
	p := PagingQuery{}
	p.SetDefaults(1, 20, 100)
	if p.Page != 1 || p.PageSize != 20 || p.Offset() != 0 || p.Limit() != 20 {
		t.Errorf("unexpected defaults %+v", p)
	}
	p = PagingQuery{Page: 3, PageSize: 500}
	p.SetDefaults(1, 20, 100)
	if p.PageSize != 100 || p.Offset() != 200 {
		t.Errorf("unexpected capped query %+v offset %d", p, p.Offset())
	}
	if err := (PagingQuery{Page: -1}).Validate(); err == nil {
		t.Error("negative page must be rejected")
	}
}

func TestJobsQuery_Validate(t *testing.T) {
	if err := (JobsQuery{PagingQuery: PagingQuery{Page: 1, PageSize: 10}}).Validate(); err == nil {
		t.Error("name is required")
	}
	if err := (JobsQuery{Name: "segmentation", PagingQuery: PagingQuery{Page: 2, PageSize: 10}}).Validate(); err != nil {
		t.Errorf("unexpected error %v", err)
	}
	if err := (JobsQuery{Name: "x", PagingQuery: PagingQuery{PageSize: 5000}}).Validate(); err == nil {
		t.Error("page_size above 1000 must be rejected")
	}
}
