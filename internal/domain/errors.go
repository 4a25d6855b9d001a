package domain

import (
	"errors"
	"fmt"
)

// ErrEnrichmentUnavailable indicates the enrichment lookup could not supply
// a bundle (model down, timeout). Recoverable: the signal degrades to
// heuristic-only scoring.
var ErrEnrichmentUnavailable = errors.New("enrichment unavailable")

// MalformedRecordError reports a raw record missing required fields. The
// record is dropped and counted; the batch continues.
type MalformedRecordError struct {
	SourceType SourceType
	Company    string
	NativeID   string
	Reason     string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record (source=%s company=%q native_id=%q): %s",
		e.SourceType, e.Company, e.NativeID, e.Reason)
}

// NoRuleMatchedError indicates no decision rule matched a scored signal.
// This can only happen when the mandatory always-true fallback rule is
// missing, so it is a configuration bug and aborts the run.
type NoRuleMatchedError struct {
	SignalID string
}

func (e *NoRuleMatchedError) Error() string {
	return fmt.Sprintf("no decision rule matched signal %s: fallback rule missing from configuration", e.SignalID)
}

// InvalidRuleConfigError reports a malformed decision rule at load time,
// before any signal is processed.
type InvalidRuleConfigError struct {
	Rule   string
	Reason string
}

func (e *InvalidRuleConfigError) Error() string {
	return fmt.Sprintf("invalid decision rule %q: %s", e.Rule, e.Reason)
}
