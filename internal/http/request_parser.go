// Package http exposes the budgeting engine and ledger as a JSON API.
//
// This file implements utilities for parsing and validating request data:
// JSON bodies, path identifiers and list filters.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"budget/internal/core"
)

const (
	maxBodyBytes = 1 << 20

	defaultHistoryDays = 30
	maxHistoryDays     = 366

	dateLayout = "2006-01-02"
)

// decodeJSON reads a single JSON object from the request body into dst.
// Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// parseID extracts the {id} path value as a positive integer.
func parseID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.PathValue("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// parseDays reads ?days=N, defaulting to 30 and capping at a year.
func parseDays(query url.Values) (int, error) {
	v := strings.TrimSpace(query.Get("days"))
	if v == "" {
		return defaultHistoryDays, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid days %q", v)
	}
	if n > maxHistoryDays {
		n = maxHistoryDays
	}
	return n, nil
}

// parseBool reads an optional boolean query parameter.
func parseBool(query url.Values, key string) (*bool, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", key, v)
	}
	return &b, nil
}

// parseWindow reads optional ?from=YYYY-MM-DD&to=YYYY-MM-DD local days into
// a half-open window covering both days. A missing bound is open-ended.
func parseWindow(query url.Values, clock core.Clock) (*core.Window, error) {
	from := strings.TrimSpace(query.Get("from"))
	to := strings.TrimSpace(query.Get("to"))
	if from == "" && to == "" {
		return nil, nil
	}

	w := &core.Window{
		Start: time.Unix(0, 0).UTC(),
		End:   time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	if from != "" {
		start, err := parseLocalDay(from, clock)
		if err != nil {
			return nil, err
		}
		w.Start = start
	}
	if to != "" {
		end, err := parseLocalDay(to, clock)
		if err != nil {
			return nil, err
		}
		w.End = end.Add(24 * time.Hour)
	}
	if !w.End.After(w.Start) {
		return nil, errors.New("from must not be after to")
	}
	return w, nil
}

// parseLocalDay returns the UTC instant of local midnight for a YYYY-MM-DD day.
func parseLocalDay(day string, clock core.Clock) (time.Time, error) {
	d, err := time.Parse(dateLayout, day)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", day)
	}
	// Local noon of the requested day.
	return clock.LocalDayStart(d.Add(12*time.Hour - clock.Offset())), nil
}
