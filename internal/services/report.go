/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "encoding/csv"
    "fmt"
    "os"
    "path/filepath"
    "strconv"

    "github.com/HamedShams/vendor-pulse/internal/domain"
)

func reportPath(dir string, window domain.DateWindow) string {
    return filepath.Join(dir, fmt.Sprintf("vendor_report_%s_to_%s.csv", window.StartDay(), window.EndDay()))
}

// writeReport renders the ranked rows as a UTF-8 CSV under dir, creating the
// directory if needed. The file is fully written and closed before delivery reads
// it back.
func writeReport(path string, rows []domain.ReportRow, period string) error {
    if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { return err }
    f, err := os.Create(path)
    if err != nil { return err }

    w := csv.NewWriter(f)
    header := []string{"Rank", "Vendor", fmt.Sprintf("Events (%s)", period), "Issues", "Messages"}
    if err := w.Write(header); err != nil {
        f.Close()
        return err
    }
    for _, row := range rows {
        record := []string{
            strconv.Itoa(row.Rank),
            row.Vendor,
            strconv.Itoa(row.Events),
            strconv.Itoa(row.Issues),
            row.Messages,
        }
        if err := w.Write(record); err != nil {
            f.Close()
            return err
        }
    }
    w.Flush()
    if err := w.Error(); err != nil {
        f.Close()
        return err
    }
    return f.Close()
}
