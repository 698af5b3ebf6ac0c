package provision

import "strings"

// Wire format: "SSID\nPASSWORD". A pipe is accepted as a legacy separator,
// but only when the payload contains no newline — a pipe after a newline
// belongs to the password.
const (
	credSeparator       = '\n'
	legacyCredSeparator = '|'
)

// fieldCutset is the whitespace trimmed from both ends of each field.
const fieldCutset = " \t\r\n"

// Credentials is a validated SSID/password pair parsed from a peer write.
type Credentials struct {
	SSID     string
	Password string
}

// ParseError describes a rejected credential payload. Code is the short
// reason reported to the peer as "error:<code>".
type ParseError struct {
	code string
	msg  string
}

func (e *ParseError) Error() string { return "provision: " + e.msg }

// Code returns the wire reason code.
func (e *ParseError) Code() string { return e.code }

var (
	// ErrEmptyPayload reports a zero-length write.
	ErrEmptyPayload = &ParseError{code: "vacio", msg: "empty payload"}
	// ErrNoSeparator reports a payload without a newline or pipe separator.
	ErrNoSeparator = &ParseError{code: "formato", msg: "missing credential separator"}
	// ErrMissingSSID reports an SSID that is empty after trimming.
	ErrMissingSSID = &ParseError{code: "ssid", msg: "ssid is empty"}
)

// ParseCredentials turns a raw characteristic write into a validated
// SSID/password pair. Carriage returns are stripped, both fields are
// trimmed, and an empty password is accepted (open networks). Pure
// function of the input bytes.
func ParseCredentials(raw []byte) (Credentials, error) {
	if len(raw) == 0 {
		return Credentials{}, ErrEmptyPayload
	}

	payload := strings.ReplaceAll(string(raw), "\r", "")

	sep := strings.IndexByte(payload, credSeparator)
	if sep < 0 {
		sep = strings.IndexByte(payload, legacyCredSeparator)
	}
	if sep < 0 {
		return Credentials{}, ErrNoSeparator
	}

	ssid := strings.Trim(payload[:sep], fieldCutset)
	password := strings.Trim(payload[sep+1:], fieldCutset)

	if ssid == "" {
		return Credentials{}, ErrMissingSSID
	}

	return Credentials{SSID: ssid, Password: password}, nil
}
