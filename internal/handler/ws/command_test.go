package ws

import "testing"

func TestParseCommandKnownNames(t *testing.T) {
	cases := map[string]Command{
		"login":              CommandLogin,
		"read_message":       CommandReadMessage,
		"whiteboard":         CommandWhiteboard,
		"call-invite":        CommandCallInvite,
		"call-answer":        CommandCallAnswer,
		"call-ice-candidate": CommandCallIceCandidate,
		"call-end":           CommandCallEnd,
	}
	for name, want := range cases {
		got, ok := ParseCommand(name)
		if !ok || got != want {
			t.Fatalf("ParseCommand(%q) = %v, %v", name, got, ok)
		}
		if got.String() != name {
			t.Fatalf("String() round-trip broke: %q != %q", got.String(), name)
		}
	}
}

func TestParseCommandUnknown(t *testing.T) {
	for _, name := range []string{"", "LOGIN", "message", "whiteboard "} {
		if _, ok := ParseCommand(name); ok {
			t.Fatalf("ParseCommand(%q) should fail", name)
		}
	}
}
