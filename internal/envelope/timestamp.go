package envelope

import "time"

// timestampFormat renders timestamps as YYYY-MM-DDTHH:MM:SSZ in UTC, the
// format WS-Security endpoints expect in wsu:Created and wsu:Expires.
const timestampFormat = "2006-01-02T15:04:05Z"

// Timestamp defines the validity period of a SOAP message: the creation
// and expiration instants, both in UTC.
type Timestamp struct {
	Created time.Time
	Expires time.Time
}

// NewTimestamp creates a Timestamp with explicit creation and expiration
// instants.
func NewTimestamp(created, expires time.Time) *Timestamp {
	return &Timestamp{
		Created: created.UTC(),
		Expires: expires.UTC(),
	}
}

// NewTimestampValidFor creates a Timestamp valid from now for the given
// duration.
func NewTimestampValidFor(d time.Duration) *Timestamp {
	created := time.Now().UTC()
	return &Timestamp{
		Created: created,
		Expires: created.Add(d),
	}
}

// CreatedString returns the creation time formatted for the envelope.
func (t *Timestamp) CreatedString() string {
	return t.Created.UTC().Format(timestampFormat)
}

// ExpiresString returns the expiration time formatted for the envelope.
func (t *Timestamp) ExpiresString() string {
	return t.Expires.UTC().Format(timestampFormat)
}
