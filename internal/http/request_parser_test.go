package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"carteira/internal/analytics"
	"carteira/internal/report"
	"carteira/internal/store"
)

func TestParsePeriod(t *testing.T) {
	now := time.Date(2025, time.March, 31, 23, 30, 0, 0, time.UTC)
	saoPaulo := time.FixedZone("BRT", -3*60*60)

	tests := []struct {
		name      string
		query     url.Values
		loc       *time.Location
		wantYear  int
		wantMonth time.Month
		wantErr   bool
	}{
		{name: "defaults to current month", query: url.Values{}, loc: time.UTC, wantYear: 2025, wantMonth: time.March},
		{name: "current month follows location", query: url.Values{}, loc: saoPaulo, wantYear: 2025, wantMonth: time.March},
		{name: "explicit values", query: url.Values{"year": {"2024"}, "month": {"12"}}, loc: time.UTC, wantYear: 2024, wantMonth: time.December},
		{name: "only month", query: url.Values{"month": {"1"}}, loc: time.UTC, wantYear: 2025, wantMonth: time.January},
		{name: "month out of range", query: url.Values{"month": {"13"}}, loc: time.UTC, wantErr: true},
		{name: "non numeric year", query: url.Values{"year": {"abc"}}, loc: time.UTC, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePeriod(tt.query, now, tt.loc)
			if tt.wantErr {
				if !errors.Is(err, analytics.ErrInvalidPeriod) {
					t.Fatalf("expected ErrInvalidPeriod, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePeriod: %v", err)
			}
			if p.Year != tt.wantYear || p.Month != tt.wantMonth {
				t.Errorf("period = %d-%d, want %d-%d", p.Year, p.Month, tt.wantYear, tt.wantMonth)
			}
		})
	}
}

func TestParseUser(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := ParseUser(r); !errors.Is(err, store.ErrInvalidUser) {
		t.Fatalf("missing header: expected ErrInvalidUser, got %v", err)
	}

	r.Header.Set(UserHeader, "  ana  ")
	user, err := ParseUser(r)
	if err != nil || user != "ana" {
		t.Fatalf("ParseUser = %q, %v", user, err)
	}

	r.Header.Set(UserHeader, strings.Repeat("x", store.MaxUserLength+1))
	if _, err := ParseUser(r); !errors.Is(err, store.ErrInvalidUser) {
		t.Fatalf("long user: expected ErrInvalidUser, got %v", err)
	}
}

func TestParseLocale(t *testing.T) {
	l, err := ParseLocale(url.Values{}, report.PtBR)
	if err != nil || l.Symbol != report.PtBR.Symbol {
		t.Fatalf("default locale = %+v, %v", l, err)
	}
	l, err = ParseLocale(url.Values{"locale": {"en-US"}}, report.PtBR)
	if err != nil || l.Symbol != report.EnUS.Symbol {
		t.Fatalf("en-US locale = %+v, %v", l, err)
	}
	if _, err := ParseLocale(url.Values{"locale": {"xx"}}, report.PtBR); !errors.Is(err, errBadRequest) {
		t.Fatalf("expected errBadRequest, got %v", err)
	}
}

func TestDecodeRecords(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantLen   int
		wantBatch bool
		wantErr   bool
	}{
		{name: "single", body: `{"description":"Pão","amount":7.5,"type":"EXPENSE"}`, wantLen: 1},
		{name: "array", body: `[{"description":"a","amount":1},{"description":"b","amount":"2,50"}]`, wantLen: 2, wantBatch: true},
		{name: "malformed", body: `{"description":`, wantErr: true},
		{name: "wrong shape", body: `"text"`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			rs, batch, err := decodeRecords(httptest.NewRecorder(), r)
			if tt.wantErr {
				if !errors.Is(err, errBadRequest) {
					t.Fatalf("expected errBadRequest, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeRecords: %v", err)
			}
			if len(rs) != tt.wantLen || batch != tt.wantBatch {
				t.Errorf("got %d records (batch=%v), want %d (batch=%v)", len(rs), batch, tt.wantLen, tt.wantBatch)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  Mer\x00cado\x07 \n"); got != "Mercado" {
		t.Errorf("sanitizeInput = %q", got)
	}
	if got := sanitizeInput("a\tb"); got != "a\tb" {
		t.Errorf("tabs must survive, got %q", got)
	}
}
