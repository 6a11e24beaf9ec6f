package pagination

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newContext(target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestFromContext_Defaults(t *testing.T) {
	p := FromContext(newContext("/api/v1/coding/catalog/icd10"))
	if p.Limit != DefaultLimit {
		t.Errorf("expected limit %d, got %d", DefaultLimit, p.Limit)
	}
	if p.Offset != 0 {
		t.Errorf("expected offset 0, got %d", p.Offset)
	}
}

func TestFromContext_CustomValues(t *testing.T) {
	p := FromContext(newContext("/x?limit=50&offset=10"))
	if p.Limit != 50 || p.Offset != 10 {
		t.Errorf("expected 50/10, got %d/%d", p.Limit, p.Offset)
	}
}

func TestFromContext_FHIRParams(t *testing.T) {
	p := FromContext(newContext("/x?_count=5&_offset=15"))
	if p.Limit != 5 || p.Offset != 15 {
		t.Errorf("expected 5/15, got %d/%d", p.Limit, p.Offset)
	}
}

func TestFromContext_MaxLimit(t *testing.T) {
	p := FromContext(newContext("/x?limit=1000"))
	if p.Limit != MaxLimit {
		t.Errorf("expected limit capped at %d, got %d", MaxLimit, p.Limit)
	}
}

func TestFromContext_NegativeOffset(t *testing.T) {
	p := FromContext(newContext("/x?offset=-5"))
	if p.Offset != 0 {
		t.Errorf("expected offset 0, got %d", p.Offset)
	}
}

func TestNewResponse(t *testing.T) {
	r := NewResponse([]string{"a", "b"}, 5, Params{Limit: 2, Offset: 0})
	if r.Total != 5 || r.Limit != 2 || r.Offset != 0 {
		t.Errorf("unexpected response: %+v", r)
	}
	if !r.HasMore {
		t.Error("expected has_more")
	}

	last := NewResponse([]string{"e"}, 5, Params{Limit: 2, Offset: 4})
	if last.HasMore {
		t.Error("expected no more results on last page")
	}
}

func TestResponse_WithNext(t *testing.T) {
	p := Params{Limit: 2, Offset: 2}
	q := url.Values{"category": {"pad"}, "_count": {"2"}}
	r := NewResponse(nil, 10, p).WithNext("/api/v1/coding/catalog/icd10", q, p)

	if !strings.HasPrefix(r.Next, "/api/v1/coding/catalog/icd10?") {
		t.Fatalf("unexpected next link %q", r.Next)
	}
	next, _ := url.Parse(r.Next)
	got := next.Query()
	if got.Get("offset") != "4" || got.Get("limit") != "2" || got.Get("category") != "pad" {
		t.Errorf("unexpected next query %v", got)
	}
	if got.Has("_count") {
		t.Error("expected FHIR-style params to be replaced")
	}

	done := NewResponse(nil, 3, Params{Limit: 5}).WithNext("/x", nil, Params{Limit: 5})
	if done.Next != "" {
		t.Errorf("expected no next link, got %q", done.Next)
	}
}

func TestPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	tests := []struct {
		p    Params
		want []int
	}{
		{Params{Limit: 2, Offset: 0}, []int{1, 2}},
		{Params{Limit: 2, Offset: 4}, []int{5}},
		{Params{Limit: 10, Offset: 1}, []int{2, 3, 4, 5}},
		{Params{Limit: 2, Offset: 9}, []int{}},
	}
	for _, tt := range tests {
		got := Page(items, tt.p)
		if len(got) != len(tt.want) {
			t.Errorf("Page(%+v) = %v, want %v", tt.p, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Page(%+v) = %v, want %v", tt.p, got, tt.want)
				break
			}
		}
	}
}
