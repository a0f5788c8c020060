package pin

import (
	"errors"
	"testing"
)

func TestValid(t *testing.T) {
	for _, good := range []string{"0000", "1234", "9999"} {
		if !Valid(good) {
			t.Fatalf("%q should be valid", good)
		}
	}
	for _, bad := range []string{"", "123", "12345", "12a4", "12 4", "١٢٣٤"} {
		if Valid(bad) {
			t.Fatalf("%q should be invalid", bad)
		}
	}
}

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("4321")
	if err != nil {
		t.Fatal(err)
	}
	if hash == "4321" {
		t.Fatal("pin stored in the clear")
	}
	if !Verify(hash, "4321") {
		t.Fatal("correct pin rejected")
	}
	if Verify(hash, "1234") {
		t.Fatal("wrong pin accepted")
	}
	if Verify("", "4321") {
		t.Fatal("empty hash accepted")
	}
}

func TestHashRejectsBadFormat(t *testing.T) {
	if _, err := Hash("12345"); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
}
