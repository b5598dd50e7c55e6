// Package validate audits a session's stored rows against the engine's
// structural invariants: dense turn numbering, disjoint ordered chapter
// ranges, a single campaign summary, and monotonic change-request statuses.
// It reads, never repairs.
package validate

import (
	"context"
	"fmt"

	"soloquest/internal/store"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeTurnGap           = "turn_index_gap"
	codeTurnStart         = "turn_index_start"
	codeChapterOverlap    = "chapter_range_overlap"
	codeChapterDisorder   = "chapter_range_disorder"
	codeCampaignDuplicate = "campaign_summary_duplicate"
	codeCampaignRange     = "campaign_range_mismatch"
	codeRequestStatus     = "change_request_status"
	codeJournalBeyondLog  = "journal_beyond_turn_log"
)

type Issue struct {
	Severity Severity
	Code     string
	Message  string
}

type Report struct {
	SessionID int64
	Issues    []Issue
}

// Errors reports whether the report contains at least one error-severity
// issue.
func (r *Report) Errors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

const allRows = 1 << 30

// Auditable is the read surface the audit needs; store.Queries satisfies it.
type Auditable interface {
	ListRecentTurns(ctx context.Context, sessionID int64, limit int) ([]store.TurnLog, error)
	ListSummaries(ctx context.Context, sessionID int64, level string) ([]store.SessionSummary, error)
	ListChangeRequests(ctx context.Context, sessionID int64, status string, limit int) ([]store.StateChangeRequest, error)
	ListRecentJournal(ctx context.Context, sessionID int64, limit int) ([]store.StoryJournalEntry, error)
}

// Run audits one session inside the given transaction scope.
func Run(ctx context.Context, q Auditable, sessionID int64) (*Report, error) {
	report := &Report{SessionID: sessionID}

	maxTurn, err := checkTurnLog(ctx, q, sessionID, report)
	if err != nil {
		return nil, err
	}
	if err := checkSummaries(ctx, q, sessionID, report); err != nil {
		return nil, err
	}
	if err := checkChangeRequests(ctx, q, sessionID, report); err != nil {
		return nil, err
	}
	if err := checkJournal(ctx, q, sessionID, maxTurn, report); err != nil {
		return nil, err
	}
	return report, nil
}

func checkTurnLog(ctx context.Context, q Auditable, sessionID int64, report *Report) (int, error) {
	turns, err := q.ListRecentTurns(ctx, sessionID, allRows)
	if err != nil {
		return -1, fmt.Errorf("auditing turn log: %w", err)
	}
	if len(turns) == 0 {
		return -1, nil
	}

	// Storage returns newest-first.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}

	if turns[0].TurnIndex != 0 {
		report.Issues = append(report.Issues, Issue{
			Severity: SeverityError,
			Code:     codeTurnStart,
			Message:  fmt.Sprintf("turn log starts at %d, expected 0", turns[0].TurnIndex),
		})
	}
	for i := 1; i < len(turns); i++ {
		if turns[i].TurnIndex != turns[i-1].TurnIndex+1 {
			report.Issues = append(report.Issues, Issue{
				Severity: SeverityError,
				Code:     codeTurnGap,
				Message:  fmt.Sprintf("turn index jumps from %d to %d", turns[i-1].TurnIndex, turns[i].TurnIndex),
			})
		}
	}
	return turns[len(turns)-1].TurnIndex, nil
}

func checkSummaries(ctx context.Context, q Auditable, sessionID int64, report *Report) error {
	chapters, err := q.ListSummaries(ctx, sessionID, store.LevelChapter)
	if err != nil {
		return fmt.Errorf("auditing summaries: %w", err)
	}

	maxChapterEnd := -1
	for i, chapter := range chapters {
		if chapter.EndTurn < chapter.StartTurn {
			report.Issues = append(report.Issues, Issue{
				Severity: SeverityError,
				Code:     codeChapterDisorder,
				Message:  fmt.Sprintf("chapter %d has inverted range %d-%d", chapter.ID, chapter.StartTurn, chapter.EndTurn),
			})
		}
		if i > 0 && chapter.StartTurn <= chapters[i-1].EndTurn {
			report.Issues = append(report.Issues, Issue{
				Severity: SeverityError,
				Code:     codeChapterOverlap,
				Message:  fmt.Sprintf("chapter range %d-%d overlaps previous end %d", chapter.StartTurn, chapter.EndTurn, chapters[i-1].EndTurn),
			})
		}
		if chapter.EndTurn > maxChapterEnd {
			maxChapterEnd = chapter.EndTurn
		}
	}

	campaigns, err := q.ListSummaries(ctx, sessionID, store.LevelCampaign)
	if err != nil {
		return fmt.Errorf("auditing summaries: %w", err)
	}
	if len(campaigns) > 1 {
		report.Issues = append(report.Issues, Issue{
			Severity: SeverityError,
			Code:     codeCampaignDuplicate,
			Message:  fmt.Sprintf("%d campaign summaries exist, expected at most 1", len(campaigns)),
		})
	}
	if len(campaigns) >= 1 && maxChapterEnd >= 0 {
		latest := campaigns[len(campaigns)-1]
		if latest.EndTurn != maxChapterEnd {
			report.Issues = append(report.Issues, Issue{
				Severity: SeverityError,
				Code:     codeCampaignRange,
				Message:  fmt.Sprintf("campaign summary ends at %d, chapters end at %d", latest.EndTurn, maxChapterEnd),
			})
		}
	}
	return nil
}

func checkChangeRequests(ctx context.Context, q Auditable, sessionID int64, report *Report) error {
	requests, err := q.ListChangeRequests(ctx, sessionID, "", allRows)
	if err != nil {
		return fmt.Errorf("auditing change requests: %w", err)
	}
	for _, req := range requests {
		switch req.Status {
		case store.StatusPending, store.StatusApplied, store.StatusRejected:
		default:
			report.Issues = append(report.Issues, Issue{
				Severity: SeverityError,
				Code:     codeRequestStatus,
				Message:  fmt.Sprintf("request %d has unknown status %q", req.ID, req.Status),
			})
		}
		if req.Status == store.StatusApplied && req.ErrorText != "" {
			report.Issues = append(report.Issues, Issue{
				Severity: SeverityWarn,
				Code:     codeRequestStatus,
				Message:  fmt.Sprintf("applied request %d carries error text", req.ID),
			})
		}
	}
	return nil
}

func checkJournal(ctx context.Context, q Auditable, sessionID int64, maxTurn int, report *Report) error {
	entries, err := q.ListRecentJournal(ctx, sessionID, allRows)
	if err != nil {
		return fmt.Errorf("auditing journal: %w", err)
	}
	for _, entry := range entries {
		if entry.HasTurn && entry.TurnIndex > maxTurn {
			report.Issues = append(report.Issues, Issue{
				Severity: SeverityWarn,
				Code:     codeJournalBeyondLog,
				Message:  fmt.Sprintf("journal entry %d references turn %d beyond the log (max %d)", entry.ID, entry.TurnIndex, maxTurn),
			})
		}
	}
	return nil
}
