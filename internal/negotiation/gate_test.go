package negotiation

import (
	"errors"
	"testing"
)

func TestNewGate(t *testing.T) {
	tests := []struct {
		min     string
		want    string
		wantErr bool
	}{
		{min: "", want: ""},
		{min: "1.4.0", want: "v1.4.0"},
		{min: "v2", want: "v2.0.0"},
		{min: "v1.2", want: "v1.2.0"},
		{min: "latest", wantErr: true},
		{min: "1.x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.min, func(t *testing.T) {
			g, err := NewGate(tt.min)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewGate(%q) error = %v, wantErr %v", tt.min, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got := g.Minimum(); got != tt.want {
				t.Errorf("Minimum() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGateCheck(t *testing.T) {
	g, err := NewGate("1.4.0")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		version string
		ok      bool
	}{
		{"1.4.0", true},
		{"v1.4.0", true},
		{"1.10.0", true},
		{"2.0.0-beta.1", true},
		{"1.3.9", false},
		{"1.4.0-rc.1", false}, // prerelease sorts before the release
		{"", false},
		{"banana", false},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			err := g.Check(tt.version)
			if tt.ok {
				if err != nil {
					t.Errorf("Check(%q) = %v, want nil", tt.version, err)
				}
				return
			}
			var verErr *VersionError
			if !errors.As(err, &verErr) {
				t.Fatalf("Check(%q) = %v, want *VersionError", tt.version, err)
			}
			if verErr.Code != ClientVersionUnsupported {
				t.Errorf("Code = %s, want %s", verErr.Code, ClientVersionUnsupported)
			}
		})
	}
}

func TestGateDisabled(t *testing.T) {
	var nilGate *Gate
	if err := nilGate.Check(""); err != nil {
		t.Errorf("nil gate Check() = %v", err)
	}

	g, _ := NewGate("")
	if err := g.Check("0.0.1"); err != nil {
		t.Errorf("empty gate Check() = %v", err)
	}
}

func TestGateAdmit(t *testing.T) {
	g, _ := NewGate("1.0.0")

	if err := g.Admit(ClientInfo{Profile: "p", Version: "1.0.0"}); err != nil {
		t.Errorf("Admit() = %v", err)
	}

	var verErr *VersionError
	err := g.Admit(ClientInfo{Version: "1.0.0"})
	if !errors.As(err, &verErr) || verErr.Code != ClientRequired {
		t.Errorf("Admit() without profile = %v, want %s", err, ClientRequired)
	}

	err = g.Admit(ClientInfo{Profile: "p", Version: "0.9.0"})
	if !errors.As(err, &verErr) || verErr.Code != ClientVersionUnsupported {
		t.Errorf("Admit() old version = %v, want %s", err, ClientVersionUnsupported)
	}
}
