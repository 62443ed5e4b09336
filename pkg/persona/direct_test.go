package persona

import "testing"

func TestDirectMatchesAfterNormalization(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"hi", "Hey there! What's on your mind?"},
		{"HELLO", "Hey there! What's on your mind?"},
		{"  Bye!  ", "See you later! Take care!"},
		{"how are you?", "I'm doing great, thanks for asking! How about you?"},
		{"Thank You!", "No problem! Happy to help."},
		{"what's your name", SelfIntro},
		{"WHO ARE YOU", SelfIntro},
	}
	for _, tc := range cases {
		got, ok := Direct(tc.input)
		if !ok {
			t.Fatalf("Direct(%q): expected a match", tc.input)
		}
		if got != tc.want {
			t.Fatalf("Direct(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestDirectIsIdempotent(t *testing.T) {
	for i := 0; i < 3; i++ {
		got, ok := Direct("hi")
		if !ok || got != "Hey there! What's on your mind?" {
			t.Fatalf("call %d: got %q, ok=%v", i, got, ok)
		}
	}
}

func TestDirectReturnsNoMatchForRealQuestions(t *testing.T) {
	for _, input := range []string{
		"what is the capital of France?",
		"hi there, can you help me with something?",
		"",
		"   ",
	} {
		if reply, ok := Direct(input); ok {
			t.Fatalf("Direct(%q): unexpected match %q", input, reply)
		}
	}
}
