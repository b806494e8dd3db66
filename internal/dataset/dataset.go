package dataset

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"socialrag/internal/domain"
	"socialrag/internal/logger"
)

// ErrNoRecords is returned when none of the inputs yielded a record.
var ErrNoRecords = errors.New("no records found")

// Dataset is an immutable, caller-owned handle on the full record set.
type Dataset struct {
	records []domain.Record
}

// New copies records into a dataset handle.
func New(records []domain.Record) *Dataset {
	cp := make([]domain.Record, len(records))
	copy(cp, records)
	return &Dataset{records: cp}
}

// Records returns a copy of the records in load order.
func (d *Dataset) Records() []domain.Record {
	if d == nil {
		return nil
	}
	cp := make([]domain.Record, len(d.records))
	copy(cp, d.records)
	return cp
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// Platforms returns the distinct platforms in first-seen order.
func (d *Dataset) Platforms() []domain.Platform {
	seen := map[domain.Platform]bool{}
	var out []domain.Platform
	for _, r := range d.records {
		if !seen[r.Platform] {
			seen[r.Platform] = true
			out = append(out, r.Platform)
		}
	}
	return out
}

// PostPlatforms maps post IDs to their platform.
func (d *Dataset) PostPlatforms() map[string]domain.Platform {
	out := make(map[string]domain.Platform, len(d.records))
	for _, r := range d.records {
		if r.PostID != "" {
			out[r.PostID] = r.Platform
		}
	}
	return out
}

// Loader reads post exports from CSV and JSON files.
type Loader struct {
	log *logger.Logger
}

func NewLoader(log *logger.Logger) *Loader {
	if log == nil {
		log = logger.Nop()
	}
	return &Loader{log: log}
}

// Load reads every path (glob patterns allowed) and returns one dataset.
func (l *Loader) Load(paths ...string) (*Dataset, error) {
	var records []domain.Record
	for _, p := range paths {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", p, err)
		}
		if matches == nil {
			matches = []string{p}
		}
		for _, m := range matches {
			var (
				recs []domain.Record
				err  error
			)
			switch strings.ToLower(filepath.Ext(m)) {
			case ".csv":
				recs, err = l.loadCSVFile(m)
			case ".json":
				recs, err = l.loadJSONFile(m)
			default:
				l.log.Debug("skipping unsupported file", "path", m)
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("load %s: %w", m, err)
			}
			records = append(records, recs...)
		}
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	ds := New(records)
	l.warnUnknownPlatforms(ds)
	return ds, nil
}

// warnUnknownPlatforms reports records whose platform is outside the four
// supported ones; they are kept and analysed under their own name.
func (l *Loader) warnUnknownPlatforms(ds *Dataset) {
	var unknown []string
	for _, p := range ds.Platforms() {
		if !p.Known() {
			unknown = append(unknown, p.String())
		}
	}
	if len(unknown) == 0 {
		return
	}
	n := 0
	for _, r := range ds.records {
		if !r.Platform.Known() {
			n++
		}
	}
	l.log.Warn("records with unrecognised platform", "count", n, "platforms", unknown)
}

func (l *Loader) loadCSVFile(path string) ([]domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	recs, coerced, err := ReadCSV(f, platformFromFilename(path))
	if err != nil {
		return nil, err
	}
	l.logLoaded(path, len(recs), coerced)
	return recs, nil
}

func (l *Loader) loadJSONFile(path string) ([]domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	recs, coerced, err := ReadJSON(f, platformFromFilename(path))
	if err != nil {
		return nil, err
	}
	l.logLoaded(path, len(recs), coerced)
	return recs, nil
}

func (l *Loader) logLoaded(path string, n, coerced int) {
	if coerced > 0 {
		l.log.Warn("coerced malformed values to defaults", "path", path, "cells", coerced)
	}
	l.log.Info("loaded records", "path", path, "records", n)
}

// ReadCSV parses a post export. fallback is used when there is no platform
// column or a row leaves it blank. coerced counts cells replaced by defaults.
func ReadCSV(r io.Reader, fallback domain.Platform) (recs []domain.Record, coerced int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = canonicalColumn(h)
	}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, coerced, err
		}
		fields := make(map[string]any, len(cols))
		for i, c := range cols {
			if c == "" || i >= len(row) {
				continue
			}
			fields[c] = row[i]
		}
		if isBlankRow(fields) {
			continue
		}
		rec, n := recordFromFields(fields, fallback)
		coerced += n
		recs = append(recs, rec)
	}
	return recs, coerced, nil
}

// ReadJSON parses an array of flat objects.
func ReadJSON(r io.Reader, fallback domain.Platform) (recs []domain.Record, coerced int, err error) {
	var rows []map[string]any
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, 0, err
	}
	for _, row := range rows {
		fields := make(map[string]any, len(row))
		for k, v := range row {
			if c := canonicalColumn(k); c != "" {
				fields[c] = v
			}
		}
		if isBlankRow(fields) {
			continue
		}
		rec, n := recordFromFields(fields, fallback)
		coerced += n
		recs = append(recs, rec)
	}
	return recs, coerced, nil
}

func isBlankRow(fields map[string]any) bool {
	for _, v := range fields {
		if stringFromAny(v) != "" {
			return false
		}
	}
	return true
}

// recordFromFields applies the missing-field defaults in one place.
func recordFromFields(fields map[string]any, fallback domain.Platform) (domain.Record, int) {
	coerced := 0
	num := func(key string) float64 {
		v, ok := numberFromAny(fields[key])
		if !ok {
			coerced++
		}
		return v
	}
	platform := domain.ParsePlatform(stringFromAny(fields["platform"]))
	if platform == domain.PlatformUnknown && fallback != "" {
		platform = fallback
	}
	rec := domain.Record{
		PostID:      stringFromAny(fields["post_id"]),
		Platform:    platform,
		PostType:    stringFromAny(fields["post_type"]),
		MediaType:   stringFromAny(fields["media_type"]),
		Content:     stringFromAny(fields["content"]),
		PostedDate:  stringFromAny(fields["posted_date"]),
		PostedTime:  stringFromAny(fields["posted_time"]),
		Impressions: num("impressions"),
		Reach:       num("reach"),
		Likes:       num("likes"),
		Comments:    num("comments"),
		Shares:      num("shares"),
		Saves:       num("saves"),
	}
	if _, present := fields["engagement_rate"]; present {
		rec.EngagementRate = num("engagement_rate")
	} else {
		rec.EngagementRate = derivedEngagementRate(rec)
	}
	return rec, coerced
}

func derivedEngagementRate(r domain.Record) float64 {
	base := r.Reach
	if base <= 0 {
		base = r.Impressions
	}
	if base <= 0 {
		return 0
	}
	return r.TotalEngagement() / base * 100
}

// platformFromFilename infers the platform from exports named like
// instagram_organic_posts.csv.
func platformFromFilename(path string) domain.Platform {
	base := strings.ToLower(filepath.Base(path))
	for _, p := range domain.KnownPlatforms {
		if strings.HasPrefix(base, strings.ToLower(string(p))) {
			return p
		}
	}
	return ""
}
