package certification

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jwalitptl/lms-api/pkg/auth"
)

var exportHeader = []string{
	"id", "user_id", "course_id", "issued_at", "expires_at", "revoked_at",
	"revocation_reason", "previous_certification_id", "status", "days_until_expiry",
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// ExportCSV writes the certifications List would return as CSV.
func (s *Service) ExportCSV(ctx context.Context, p auth.Principal, filter ListFilter, w io.Writer) error {
	views, err := s.List(ctx, p, filter)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, v := range views {
		issued := v.IssuedAt
		record := []string{
			v.ID.String(),
			v.UserID.String(),
			v.CourseID.String(),
			formatTime(&issued),
			formatTime(v.ExpiresAt),
			formatTime(v.RevokedAt),
			"",
			"",
			string(v.Status),
			"",
		}
		if v.RevocationReason != nil {
			record[6] = *v.RevocationReason
		}
		if v.PreviousCertificationID != nil {
			record[7] = v.PreviousCertificationID.String()
		}
		if v.DaysUntilExpiry != nil {
			record[9] = strconv.Itoa(*v.DaysUntilExpiry)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
