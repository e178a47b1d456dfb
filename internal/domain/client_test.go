package domain

import "testing"

func TestParseSex(t *testing.T) {
	tests := []struct {
		raw     string
		want    Sex
		wantErr bool
	}{
		{raw: "M", want: SexMale},
		{raw: " f ", want: SexFemale},
		{raw: "X", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseSex(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseSex(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParseSex(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestParseClientType(t *testing.T) {
	if got, err := ParseClientType("Business"); err != nil || got != ClientTypeBusiness {
		t.Fatalf("ParseClientType() = %q, %v", got, err)
	}
	if _, err := ParseClientType("vip"); err != ErrUnknownClientType {
		t.Fatalf("expected ErrUnknownClientType, got %v", err)
	}
}

func TestClient_Activity(t *testing.T) {
	client := Client{Name: "Durand", FirstName: "Alice", Active: true}

	if got := client.FullName(); got != "Alice Durand" {
		t.Fatalf("FullName() = %q", got)
	}
	client.Deactivate()
	if client.Usable() {
		t.Fatal("deactivated client must not be usable")
	}
	client.Activate()
	if !client.Usable() {
		t.Fatal("activated client must be usable")
	}
}
