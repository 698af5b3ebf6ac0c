package provision

import (
	"errors"
	"testing"
)

func TestParseCredentialsNewlineSeparator(t *testing.T) {
	creds, err := ParseCredentials([]byte("home\nhunter2"))
	if err != nil {
		t.Fatalf("ParseCredentials() error = %v", err)
	}
	if creds.SSID != "home" {
		t.Errorf("SSID = %q, want %q", creds.SSID, "home")
	}
	if creds.Password != "hunter2" {
		t.Errorf("Password = %q, want %q", creds.Password, "hunter2")
	}
}

func TestParseCredentialsPipeFallback(t *testing.T) {
	creds, err := ParseCredentials([]byte("home|hunter2"))
	if err != nil {
		t.Fatalf("ParseCredentials() error = %v", err)
	}
	if creds.SSID != "home" || creds.Password != "hunter2" {
		t.Errorf("ParseCredentials() = %+v, want {home hunter2}", creds)
	}
}

func TestParseCredentialsNewlineTakesPrecedence(t *testing.T) {
	// A pipe after the newline belongs to the password; it must not re-split.
	creds, err := ParseCredentials([]byte("home\nfirst|second"))
	if err != nil {
		t.Fatalf("ParseCredentials() error = %v", err)
	}
	if creds.SSID != "home" {
		t.Errorf("SSID = %q, want %q", creds.SSID, "home")
	}
	if creds.Password != "first|second" {
		t.Errorf("Password = %q, want %q", creds.Password, "first|second")
	}
}

func TestParseCredentialsTrimsFields(t *testing.T) {
	creds, err := ParseCredentials([]byte("  casa rural \t\n\t secreto  "))
	if err != nil {
		t.Fatalf("ParseCredentials() error = %v", err)
	}
	if creds.SSID != "casa rural" {
		t.Errorf("SSID = %q, want %q", creds.SSID, "casa rural")
	}
	if creds.Password != "secreto" {
		t.Errorf("Password = %q, want %q", creds.Password, "secreto")
	}
}

func TestParseCredentialsStripsCarriageReturns(t *testing.T) {
	// Windows-style line endings normalize to the plain newline form.
	creds, err := ParseCredentials([]byte("home\r\nhunter2\r\n"))
	if err != nil {
		t.Fatalf("ParseCredentials() error = %v", err)
	}
	if creds.SSID != "home" || creds.Password != "hunter2" {
		t.Errorf("ParseCredentials() = %+v, want {home hunter2}", creds)
	}
}

func TestParseCredentialsEmptyPasswordIsValid(t *testing.T) {
	// Open networks have no password.
	creds, err := ParseCredentials([]byte("cafe-abierto\n"))
	if err != nil {
		t.Fatalf("ParseCredentials() error = %v", err)
	}
	if creds.SSID != "cafe-abierto" {
		t.Errorf("SSID = %q, want %q", creds.SSID, "cafe-abierto")
	}
	if creds.Password != "" {
		t.Errorf("Password = %q, want empty", creds.Password)
	}
}

func TestParseCredentialsErrors(t *testing.T) {
	tests := []struct {
		name     string
		raw      []byte
		wantErr  *ParseError
		wantCode string
	}{
		{"nil payload", nil, ErrEmptyPayload, "vacio"},
		{"empty payload", []byte{}, ErrEmptyPayload, "vacio"},
		{"no separator", []byte("just-an-ssid"), ErrNoSeparator, "formato"},
		{"only carriage returns", []byte("\r\r"), ErrNoSeparator, "formato"},
		{"whitespace ssid", []byte("  \n secret"), ErrMissingSSID, "ssid"},
		{"empty ssid with pipe", []byte("|secret"), ErrMissingSSID, "ssid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCredentials(tt.raw)
			if err == nil {
				t.Fatalf("ParseCredentials(%q) expected error", tt.raw)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseCredentials(%q) error = %v, want %v", tt.raw, err, tt.wantErr)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error %v is not a *ParseError", err)
			}
			if pe.Code() != tt.wantCode {
				t.Errorf("Code() = %q, want %q", pe.Code(), tt.wantCode)
			}
		})
	}
}

func TestParseCredentialsPasswordNotTruncatedAtSecondNewline(t *testing.T) {
	creds, err := ParseCredentials([]byte("home\nline1\nline2"))
	if err != nil {
		t.Fatalf("ParseCredentials() error = %v", err)
	}
	if creds.Password != "line1\nline2" {
		t.Errorf("Password = %q, want %q", creds.Password, "line1\nline2")
	}
}
