// ABOUTME: Tests for catalog models and probe classification.
// ABOUTME: Covers category labels, post lookup, and latency thresholds.
package models

import (
	"testing"
	"time"
)

func TestCategory(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Adobe Photoshop 2024", "Adobe"},
		{"AUTODESK AutoCAD", "Autodesk"},
		{"Microsoft Office LTSC", "Microsoft"},
		{"WinRAR 7", "Other"},
	}
	for _, tt := range tests {
		if got := Category(tt.title); got != tt.want {
			t.Errorf("Category(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestCatalogFind(t *testing.T) {
	c := Catalog{
		{Title: "Adobe Photoshop", Link: "https://example.com/ps"},
		{Title: "Adobe Illustrator", Link: "https://example.com/ai"},
	}

	if p, ok := c.Find("https://example.com/ai"); !ok || p.Title != "Adobe Illustrator" {
		t.Errorf("Find by link = %+v, %v", p, ok)
	}
	if p, ok := c.Find("photoshop"); !ok || p.Link != "https://example.com/ps" {
		t.Errorf("Find by title = %+v, %v", p, ok)
	}
	if _, ok := c.Find("nothing"); ok {
		t.Error("expected no match")
	}
}

func TestClassifyLatency(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want ProbeStatus
	}{
		{0, StatusFast},
		{999 * time.Millisecond, StatusFast},
		{999*time.Millisecond + 400*time.Microsecond, StatusFast},
		{999*time.Millisecond + 600*time.Microsecond, StatusNormal},
		{time.Second, StatusNormal},
		{2999 * time.Millisecond, StatusNormal},
		{3 * time.Second, StatusSlow},
		{10 * time.Second, StatusSlow},
	}
	for _, tt := range tests {
		if got := ClassifyLatency(tt.d); got != tt.want {
			t.Errorf("ClassifyLatency(%v) = %s, want %s", tt.d, got, tt.want)
		}
	}
}

func TestLatencyMsAbsentWhenOffline(t *testing.T) {
	r := ProbeResult{URL: "https://x", Online: false, Status: StatusOffline}
	if _, ok := r.LatencyMs(); ok {
		t.Error("expected no latency for offline result")
	}

	r = ProbeResult{URL: "https://x", Online: true, Latency: 1500 * time.Millisecond, Status: StatusNormal}
	ms, ok := r.LatencyMs()
	if !ok || ms != 1500 {
		t.Errorf("LatencyMs = %d, %v", ms, ok)
	}

	r.Latency = 400*time.Millisecond + 700*time.Microsecond
	if ms, _ := r.LatencyMs(); ms != 401 {
		t.Errorf("LatencyMs = %d, want 401 (rounded)", ms)
	}
}
