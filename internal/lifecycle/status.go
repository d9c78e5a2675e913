// Package lifecycle models the document status as a closed set of values.
//
// Four states are stored: draft, sent, accepted and rejected. Expired is only
// ever derived at read time from sent + validUntil, and refuses to be persisted.
package lifecycle

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"DF-PROPOSAL/internal/apperr"
)

// Status is comparable with ==. Values outside the ones declared below cannot
// be constructed from other packages; the zero value is Draft.
type Status struct {
	v state
}

type state uint8

const (
	stateDraft state = iota
	stateSent
	stateAccepted
	stateRejected
	stateExpired
)

var (
	Draft    = Status{stateDraft}
	Sent     = Status{stateSent}
	Accepted = Status{stateAccepted}
	Rejected = Status{stateRejected}
	Expired  = Status{stateExpired}
)

var names = map[state]string{
	stateDraft:    "draft",
	stateSent:     "sent",
	stateAccepted: "accepted",
	stateRejected: "rejected",
	stateExpired:  "expired",
}

// ErrDerivedStatus is returned when something tries to store Expired.
var ErrDerivedStatus = errors.New("expired is a derived status and cannot be stored")

// Parse maps a status name to its value. "expired" parses, but Stored() is false for it.
func Parse(s string) (Status, error) {
	for st, name := range names {
		if name == s {
			return Status{st}, nil
		}
	}
	return Draft, fmt.Errorf("unknown document status %q", s)
}

func (s Status) String() string {
	return names[s.v]
}

// Stored reports whether s may be written to storage.
func (s Status) Stored() bool {
	return s != Expired
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == Accepted || s == Rejected
}

// Mutable reports whether sections and pricing items may change.
func (s Status) Mutable() bool {
	return s == Draft
}

// Effective derives the read-time status. A sent document whose validUntil is
// in the past reads as Expired; extending validUntil makes it Sent again.
func (s Status) Effective(validUntil *time.Time, now time.Time) Status {
	if s == Sent && validUntil != nil && validUntil.Before(now) {
		return Expired
	}
	return s
}

// Send is the author's send action. Sending an already sent (or expired)
// document is a no-op so that a resend keeps the existing link.
func (s Status) Send() (Status, error) {
	switch s {
	case Draft, Sent, Expired:
		return Sent, nil
	case Accepted, Rejected:
		return s, apperr.ErrAlreadyResponded
	}
	return s, apperr.ErrInvalidTransition
}

// Accept is the recipient's accept action on the effective status.
func (s Status) Accept() (Status, error) {
	return s.respond(Accepted)
}

// Reject is the recipient's reject action on the effective status.
func (s Status) Reject() (Status, error) {
	return s.respond(Rejected)
}

func (s Status) respond(to Status) (Status, error) {
	switch s {
	case Sent:
		return to, nil
	case Expired:
		return s, apperr.ErrExpiredDocument
	case Accepted, Rejected:
		return s, apperr.ErrAlreadyResponded
	}
	return s, apperr.ErrInvalidTransition
}

// CanEditValidUntil reports whether the author may change validUntil.
func (s Status) CanEditValidUntil() bool {
	return s == Draft || s == Sent || s == Expired
}

// Display is the recipient-facing state of the public view.
func (s Status) Display() string {
	switch s {
	case Sent:
		return "actionable"
	case Expired:
		return "expired"
	case Accepted:
		return "accepted"
	case Rejected:
		return "declined"
	}
	return "draft"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value implements driver.Valuer.
func (s Status) Value() (driver.Value, error) {
	if !s.Stored() {
		return nil, ErrDerivedStatus
	}
	return s.String(), nil
}

// Scan implements sql.Scanner.
func (s *Status) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		*s = Draft
		return nil
	default:
		return fmt.Errorf("cannot scan %T into lifecycle.Status", src)
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	if !parsed.Stored() {
		return ErrDerivedStatus
	}
	*s = parsed
	return nil
}

// GormDataType keeps the column a short string.
func (Status) GormDataType() string {
	return "string"
}
