package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"carteira/internal/analytics"
	"carteira/internal/core"
	"carteira/internal/report"
	"carteira/internal/store"
)

// UserHeader names the caller whose ledger a request reads or changes.
const UserHeader = "X-User"

const (
	maxJSONBody  = 1 << 20
	maxMediaBody = 12 << 20
)

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// ParseUser validates the user named by the request header.
func ParseUser(r *http.Request) (string, error) {
	user := strings.TrimSpace(r.Header.Get(UserHeader))
	if err := store.ValidateUser(user); err != nil {
		return "", err
	}
	return user, nil
}

// ParsePeriod reads year and month from the query. Missing values default
// to the month of now in loc; malformed ones are an error.
func ParsePeriod(query url.Values, now time.Time, loc *time.Location) (analytics.Period, error) {
	current := analytics.PeriodOf(now, loc)
	year, month := current.Year, int(current.Month)

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return analytics.Period{}, fmt.Errorf("%w: year %q", analytics.ErrInvalidPeriod, v)
		}
		year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return analytics.Period{}, fmt.Errorf("%w: month %q", analytics.ErrInvalidPeriod, v)
		}
		month = m
	}
	return analytics.NewPeriod(year, time.Month(month), loc)
}

// ParseLocale picks the locale named by the query, or def.
func ParseLocale(query url.Values, def report.Locale) (report.Locale, error) {
	name := strings.TrimSpace(query.Get("locale"))
	if name == "" {
		return def, nil
	}
	l, err := report.LocaleByName(name)
	if err != nil {
		return report.Locale{}, badRequest("unknown locale %q", name)
	}
	return l, nil
}

// decodeJSON reads at most limit bytes of JSON into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return badRequest("request body exceeds %d bytes", tooLarge.Limit)
		}
		return badRequest("read body: %v", err)
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid JSON: %v", err)
	}
	return nil
}

// decodeRecords accepts either one record or an array of them.
func decodeRecords(w http.ResponseWriter, r *http.Request) ([]core.Record, bool, error) {
	var raw json.RawMessage
	if err := decodeJSON(w, r, maxJSONBody, &raw); err != nil {
		return nil, false, err
	}
	raw = bytes.TrimSpace(raw)
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if len(raw) > 0 && raw[0] == '[' {
		var records []core.Record
		if err := dec.Decode(&records); err != nil {
			return nil, true, badRequest("invalid transactions: %v", err)
		}
		return records, true, nil
	}
	var record core.Record
	if err := dec.Decode(&record); err != nil {
		return nil, false, badRequest("invalid transaction: %v", err)
	}
	return []core.Record{record}, false, nil
}

// sanitizeInput drops control characters other than tab and newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
