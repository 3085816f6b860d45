package negotiation

import (
	"testing"
)

func TestParseClientHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    ClientInfo
		wantErr bool
	}{
		{
			name:   "profile only",
			header: `profile="browser-1"`,
			want:   ClientInfo{Profile: "browser-1"},
		},
		{
			name:   "profile and version",
			header: `profile="browser-1", version="1.4.0"`,
			want:   ClientInfo{Profile: "browser-1", Version: "1.4.0"},
		},
		{
			name:   "version first",
			header: `version="v2.0.1", profile="tablet"`,
			want:   ClientInfo{Profile: "tablet", Version: "v2.0.1"},
		},
		{
			name:   "surrounding whitespace",
			header: `  profile="browser-1"  `,
			want:   ClientInfo{Profile: "browser-1"},
		},
		{
			name:   "unknown keys ignored",
			header: `profile="browser-1", build="abc"`,
			want:   ClientInfo{Profile: "browser-1"},
		},
		{
			name:   "parameters ignored",
			header: `profile="browser-1";x=1`,
			want:   ClientInfo{Profile: "browser-1"},
		},
		{
			name:   "escaped quote",
			header: `profile="a\"b"`,
			want:   ClientInfo{Profile: `a"b`},
		},
		{
			name:    "empty header",
			header:  "",
			wantErr: true,
		},
		{
			name:    "whitespace only",
			header:  "   ",
			wantErr: true,
		},
		{
			name:    "missing profile",
			header:  `version="1.0.0"`,
			wantErr: true,
		},
		{
			name:    "empty profile",
			header:  `profile=""`,
			wantErr: true,
		},
		{
			name:    "unquoted profile",
			header:  `profile=browser`,
			wantErr: true,
		},
		{
			name:    "numeric version",
			header:  `profile="browser-1", version=2`,
			wantErr: true,
		},
		{
			name:    "unterminated quote",
			header:  `profile="browser-1`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClientHeader(tt.header)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseClientHeader() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseClientHeader() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFormatClientHeader(t *testing.T) {
	got, err := FormatClientHeader(ClientInfo{Profile: "browser-1", Version: "1.4.0"})
	if err != nil {
		t.Fatalf("FormatClientHeader() error = %v", err)
	}
	if want := `profile="browser-1", version="1.4.0"`; got != want {
		t.Errorf("FormatClientHeader() = %q, want %q", got, want)
	}

	// Round trip through the parser.
	info, err := ParseClientHeader(got)
	if err != nil {
		t.Fatalf("ParseClientHeader() error = %v", err)
	}
	if info.Profile != "browser-1" || info.Version != "1.4.0" {
		t.Errorf("round trip = %+v", info)
	}

	if _, err := FormatClientHeader(ClientInfo{}); err == nil {
		t.Error("FormatClientHeader() with empty profile should fail")
	}
}
