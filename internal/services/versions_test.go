package services

import (
    "testing"
    "time"

    "github.com/HamedShams/vendor-pulse/internal/domain"
)

func versionGreater(a, b string) bool {
    return versionLess(versionSortKey(b), versionSortKey(a))
}

func TestVersionOrdering(t *testing.T) {
    descending := []string{"3.1.3", "3.1.2", "3.1.1", "3.0.39", "3.0.6"}
    for i := 0; i < len(descending)-1; i++ {
        if !versionGreater(descending[i], descending[i+1]) {
            t.Fatalf("expected %s > %s", descending[i], descending[i+1])
        }
    }
    if !versionGreater("3.1.0-beta.2", "3.1.0-beta.1") {
        t.Fatalf("expected beta.2 above beta.1")
    }
    if !versionGreater("3.1.0", "3.1.0-beta.1") {
        t.Fatalf("expected final release above its pre-release")
    }
    ka, kb := versionSortKey("3.1"), versionSortKey("3.1.0")
    if versionLess(ka, kb) || versionLess(kb, ka) {
        t.Fatalf("expected 3.1 == 3.1.0 in ordering terms")
    }
}

func TestVersionSortKey_Degrades(t *testing.T) {
    // malformed input must yield a low-but-valid key, never panic
    for _, v := range []string{"", "garbage", "a.b.c", "1.2.3.4.5", "-", "+meta", "1.x.3-rc"} {
        _ = versionSortKey(v)
    }
    k := versionSortKey("1.2.3.4.5")
    if k.nums != [4]int{1, 2, 3, 4} {
        t.Fatalf("components beyond the 4th should be ignored, got %v", k.nums)
    }
    k = versionSortKey("2.0.0+build.7")
    if k.pre != 0 || k.final != 1 {
        t.Fatalf("build metadata must not look like a pre-release, got %+v", k)
    }
}

func TestSelectVersions(t *testing.T) {
    end := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
    catalog := []domain.Release{
        {Version: "3.1.3", DateCreated: "2024-01-09T00:00:00Z"}, // after window end
        {Version: "3.1.2", DateCreated: "2024-01-05T10:00:00Z"},
        {Version: "3.1.2", DateCreated: "2024-01-06T10:00:00Z"}, // duplicate version
        {Version: "3.0.6", DateCreated: "2024-01-02T00:00:00Z"},
        {Version: "3.1.1", DateCreated: "2024-01-04T00:00:00Z"},
        {Version: "", DateCreated: "2024-01-04T00:00:00Z"},      // empty version
        {Version: "3.1.0", DateCreated: "not-a-date"},           // unparseable timestamp
        {Version: "legacy-2.0", DateCreated: "2024-01-03T00:00:00Z"},
    }

    got := selectVersions(catalog, end, "")
    want := []string{"3.1.2", "3.1.1", "3.0.6", "legacy-2.0"}
    if len(got) != len(want) {
        t.Fatalf("expected %d eligible versions, got %d: %+v", len(want), len(got), got)
    }
    for i := range want {
        if got[i].version != want[i] {
            t.Fatalf("position %d: expected %s, got %s", i, want[i], got[i].version)
        }
    }
    // first occurrence wins for the display timestamp
    if !got[0].created.Equal(time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)) {
        t.Fatalf("expected first-seen timestamp for 3.1.2, got %v", got[0].created)
    }

    filtered := selectVersions(catalog, end, "3.1")
    if len(filtered) != 2 || filtered[0].version != "3.1.2" || filtered[1].version != "3.1.1" {
        t.Fatalf("prefix filter: unexpected result %+v", filtered)
    }
}

func TestSelectVersions_ExcludesNewestOutsideWindow(t *testing.T) {
    end := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
    catalog := []domain.Release{
        {Version: "9.0.0", DateCreated: "2024-02-01T00:00:00Z"},
        {Version: "1.0.0", DateCreated: "2024-01-01T00:00:00Z"},
    }
    got := selectVersions(catalog, end, "")
    if len(got) != 1 || got[0].version != "1.0.0" {
        t.Fatalf("release created after window end must be excluded even if newest: %+v", got)
    }
}
