package services

import (
    "strings"
    "testing"

    "github.com/HamedShams/vendor-pulse/internal/domain"
)

func testExcludes() map[string]struct{} {
    return map[string]struct{}{"unknown": {}, "typeerror": {}}
}

func issue(vendor, title, count string) domain.Issue {
    return domain.Issue{Title: title, Count: count, Metadata: domain.Metadata{Type: vendor}}
}

func TestAggregate_SumsIntoOneVendorRecord(t *testing.T) {
    vt := newVendorTotals(testExcludes())
    vt.Add(issue("Stripe", "card declined", "5"))
    vt.Add(issue("stripe", "card declined", "3"))
    vt.Add(issue("STRIPE", "timeout", "2"))

    if len(vt.records) != 1 {
        t.Fatalf("expected one vendor record, got %d", len(vt.records))
    }
    rec := vt.records["stripe"]
    if rec == nil { t.Fatalf("expected record under normalized key") }
    if rec.Events != 10 || rec.Issues != 3 {
        t.Fatalf("expected events=10 issues=3, got events=%d issues=%d", rec.Events, rec.Issues)
    }
    if len(rec.Messages) != 2 {
        t.Fatalf("expected 2 distinct messages, got %d", len(rec.Messages))
    }
}

func TestAggregate_ExclusionIsCaseInsensitive(t *testing.T) {
    vt := newVendorTotals(testExcludes())
    for _, v := range []string{"TypeError", "typeerror", "TYPEERROR", "  typeerror "} {
        if vt.Add(issue(v, "boom", "100")) {
            t.Fatalf("issue with type %q should be excluded", v)
        }
    }
    if len(vt.records) != 0 { t.Fatalf("excluded issues must not create records") }
}

func TestAggregate_MissingMetadata(t *testing.T) {
    vt := newVendorTotals(testExcludes())
    if vt.Add(domain.Issue{Title: "no metadata at all", Count: "9"}) {
        t.Fatalf("issue without metadata.type should be excluded")
    }
    if vt.Add(issue("   ", "blank type", "9")) {
        t.Fatalf("issue with blank metadata.type should be excluded")
    }
}

func TestEventCount_PrefersStatsSeries(t *testing.T) {
    is := issue("stripe", "x", "100")
    is.Stats = map[string][][]float64{
        "14d": {{1704067200, 3}, {1704153600, 4}},
    }
    if got := eventCount(is); got != 7 {
        t.Fatalf("expected stats sum 7, got %d", got)
    }

    // empty series falls back to the raw total; never both
    is.Stats = map[string][][]float64{"14d": {}}
    if got := eventCount(is); got != 100 {
        t.Fatalf("expected raw count fallback 100, got %d", got)
    }

    is.Stats = nil
    is.Count = "not-a-number"
    if got := eventCount(is); got != 0 {
        t.Fatalf("malformed count should degrade to 0, got %d", got)
    }
}

func TestDisplayMessage_Fallbacks(t *testing.T) {
    is := domain.Issue{Title: "title wins", Metadata: domain.Metadata{Type: "x", Value: "value"}}
    if displayMessage(is) != "title wins" { t.Fatalf("title should win") }
    is.Title = ""
    if displayMessage(is) != "value" { t.Fatalf("metadata.value should be the fallback") }
    is.Metadata.Value = ""
    if displayMessage(is) != "" { t.Fatalf("expected empty string fallback") }
}

func TestRank_StableAndConsecutive(t *testing.T) {
    vt := newVendorTotals(testExcludes())
    vt.Add(issue("alpha", "a", "5"))
    vt.Add(issue("beta", "b", "5"))  // tie with alpha, discovered second
    vt.Add(issue("gamma", "c", "9"))

    rows := vt.Rank()
    if len(rows) != 3 { t.Fatalf("expected 3 rows, got %d", len(rows)) }
    if rows[0].Vendor != "Gamma" || rows[1].Vendor != "Alpha" || rows[2].Vendor != "Beta" {
        t.Fatalf("unexpected order: %s, %s, %s", rows[0].Vendor, rows[1].Vendor, rows[2].Vendor)
    }
    for i, row := range rows {
        if row.Rank != i+1 {
            t.Fatalf("ranks must be consecutive even on ties: row %d has rank %d", i, row.Rank)
        }
    }
}

func TestRank_MessagesSortedAndJoined(t *testing.T) {
    vt := newVendorTotals(testExcludes())
    vt.Add(issue("stripe", "zebra", "1"))
    vt.Add(issue("stripe", "apple", "1"))
    vt.Add(issue("stripe", "zebra", "1"))

    rows := vt.Rank()
    if rows[0].Messages != "apple; zebra" {
        t.Fatalf("expected sorted deduped join, got %q", rows[0].Messages)
    }
    if strings.Count(rows[0].Messages, "zebra") != 1 {
        t.Fatalf("duplicate messages must collapse")
    }
}
