package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aad-go/aad/internal/errs"
	"github.com/aad-go/aad/internal/ids"
)

// EscalationLevel ranks the severity of an escalation.
type EscalationLevel int

const (
	EscalationWarning EscalationLevel = iota
	EscalationError
	EscalationCritical
)

// String returns the level's name.
func (l EscalationLevel) String() string {
	switch l {
	case EscalationWarning:
		return "Warning"
	case EscalationError:
		return "Error"
	case EscalationCritical:
		return "Critical"
	default:
		return "Unknown"
	}
}

// Emoji returns the level's log-line glyph.
func (l EscalationLevel) Emoji() string {
	switch l {
	case EscalationWarning:
		return "🟡"
	case EscalationError:
		return "🔴"
	case EscalationCritical:
		return "⛔"
	default:
		return "❔"
	}
}

// LogPrefix returns the emoji-plus-name prefix used on stderr log lines.
func (l EscalationLevel) LogPrefix() string {
	return l.Emoji() + " " + l.String()
}

// Escalation is a single recorded escalation event, optionally carrying
// spec/phase context.
type Escalation struct {
	SessionID ids.SessionID
	Level     EscalationLevel
	Reason    string
	Timestamp time.Time
	SpecID    *string
	Phase     *string
}

// NewEscalation creates an Escalation stamped with the current time.
func NewEscalation(sessionID ids.SessionID, level EscalationLevel, reason string) Escalation {
	return Escalation{
		SessionID: sessionID,
		Level:     level,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	}
}

// WithContext attaches spec/phase context to the escalation and returns it.
func (e Escalation) WithContext(specID, phase string) Escalation {
	e.SpecID = &specID
	e.Phase = &phase
	return e
}

// EscalationHandler writes escalations to stderr and to a Markdown log file
// under a dedicated directory.
type EscalationHandler struct {
	dir string
}

// NewEscalationHandler creates a handler rooted at dir (e.g.
// .aad/escalations).
func NewEscalationHandler(dir string) *EscalationHandler {
	return &EscalationHandler{dir: dir}
}

// Handle logs the escalation to stderr and writes its Markdown record,
// returning the record's path.
func (h *EscalationHandler) Handle(e Escalation) (string, error) {
	fmt.Fprintf(os.Stderr, "%s [%s] session=%s: %s\n", e.Level.LogPrefix(), e.Timestamp.Format(time.RFC3339), e.SessionID, e.Reason)

	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		return "", errs.Wrap(errs.KindRepository, "creating escalation directory", err)
	}

	filename := e.Timestamp.Format("2006-01-02_15-04-05") + "_" + string(e.SessionID) + ".md"
	path := filepath.Join(h.dir, filename)

	var b strings.Builder
	fmt.Fprintln(&b, "# Escalation Log")
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "- **Session ID:** %s\n", e.SessionID)
	fmt.Fprintf(&b, "- **Level:** %s %s\n", e.Level.Emoji(), e.Level.String())
	fmt.Fprintf(&b, "- **Timestamp:** %s\n", e.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&b, "- **Reason:** %s\n", e.Reason)

	if e.SpecID != nil || e.Phase != nil {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "## Context")
		if e.SpecID != nil {
			fmt.Fprintf(&b, "- **Spec:** %s\n", *e.SpecID)
		}
		if e.Phase != nil {
			fmt.Fprintf(&b, "- **Phase:** %s\n", *e.Phase)
		}
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", errs.Wrap(errs.KindRepository, "writing escalation log", err)
	}
	return path, nil
}
