package access

import "testing"

func TestTierTable(t *testing.T) {
	tests := []struct {
		level  Level
		grants Grants
	}{
		{Limited, Grants{Read: true}},
		{Solid, Grants{Read: true, Write: true}},
		{Full, Grants{Read: true, Write: true, Delete: true, Exec: true}},
	}

	for _, tt := range tests {
		if got := tt.level.Grants(); got != tt.grants {
			t.Errorf("%s grants = %+v, want %+v", tt.level, got, tt.grants)
		}
	}
}

func TestGrantsAreMonotonic(t *testing.T) {
	capabilities := []Capability{CapRead, CapWrite, CapDelete, CapExec}
	ordered := []Level{Limited, Solid, Full}

	for _, c := range capabilities {
		for i := 0; i < len(ordered)-1; i++ {
			lower, higher := ordered[i], ordered[i+1]
			if lower.Allows(c) && !higher.Allows(c) {
				t.Errorf("capability %s granted at %s but not at %s", c, lower, higher)
			}
		}
	}
}

func TestOnlyFullGrantsExec(t *testing.T) {
	for _, level := range []Level{Limited, Solid} {
		if level.Allows(CapExec) {
			t.Errorf("%s must not grant exec", level)
		}
	}
	if !Full.Allows(CapExec) {
		t.Error("full must grant exec")
	}
}

func TestDeleteImpliesWrite(t *testing.T) {
	for _, level := range []Level{Limited, Solid, Full} {
		if level.Allows(CapDelete) && !level.Allows(CapWrite) {
			t.Errorf("%s grants delete without write", level)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"limited", Limited, false},
		{"Solid", Solid, false},
		{" full ", Full, false},
		{"", Limited, true},
		{"root", Limited, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseLevel(%q) expected error, got %v", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLevel(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLevelNames(t *testing.T) {
	if Limited.String() != "limited" || Solid.String() != "solid" || Full.String() != "full" {
		t.Errorf("unexpected level names: %s %s %s", Limited, Solid, Full)
	}
}
