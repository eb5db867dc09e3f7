package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		// empty -> default
		{"", 10, 10},
		// valid ints
		{"42", 0, 42},
		{"-13", 1, -13},
		{"0012", 99, 12},
		// invalid -> default (no trim)
		{"x", 5, 5},
		{" 42", 7, 7},
		// overflow -> default
		{"999999999999999999999999", -1, -1},
	}

	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestClampPage(t *testing.T) {
	cases := []struct {
		page, size         int
		wantPage, wantSize int
	}{
		{0, 0, 1, DefaultPageSize},
		{-3, 10, 1, 10},
		{2, -1, 2, 1},
		{4, 1000, 4, MaxPageSize},
	}
	for _, tc := range cases {
		p, s := ClampPage(tc.page, tc.size)
		if p != tc.wantPage || s != tc.wantSize {
			t.Fatalf("ClampPage(%d, %d) = %d, %d; want %d, %d", tc.page, tc.size, p, s, tc.wantPage, tc.wantSize)
		}
	}
	if got := Offset(3, 20); got != 40 {
		t.Fatalf("Offset(3, 20) = %d", got)
	}
}

func TestNewPage(t *testing.T) {
	p := NewPage[string](nil, 1, 20, 0)
	if p.Items == nil || len(p.Items) != 0 || p.Pagination.TotalPages != 0 || p.Pagination.HasNext {
		t.Fatalf("empty page = %+v", p)
	}

	p = NewPage([]string{"a", "b"}, 1, 2, 5)
	if p.Pagination.TotalPages != 3 || !p.Pagination.HasNext {
		t.Fatalf("first page = %+v", p.Pagination)
	}
	p = NewPage([]string{"e"}, 3, 2, 5)
	if p.Pagination.HasNext {
		t.Fatalf("last page must not have next: %+v", p.Pagination)
	}
}
