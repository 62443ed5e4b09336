package persona

import "strings"

// Fixed reply sets for trivial inputs. Membership is checked after trimming
// and lower-casing, so "  HELLO " matches "hello".
var directReplies = buildDirectReplies()

func buildDirectReplies() map[string]string {
	m := make(map[string]string)
	add := func(reply string, inputs ...string) {
		for _, in := range inputs {
			m[in] = reply
		}
	}
	add("Hey there! What's on your mind?",
		"hi", "hello", "hey", "hi there", "hello there")
	add("I'm doing great, thanks for asking! How about you?",
		"how are you", "how are you?", "how do you do", "how do you do?")
	add("No problem! Happy to help.",
		"thanks", "thank you", "thanks!", "thank you!")
	add("See you later! Take care!",
		"bye", "goodbye", "bye!", "goodbye!", "see you", "see ya")
	add(SelfIntro,
		"who are you", "who are you?", "what are you", "what are you?",
		"what is your name", "what's your name")
	return m
}

// Direct returns the canned reply for trivial inputs (greetings, thanks,
// farewells, identity questions). It must run before any upstream call; a
// match short-circuits the whole pipeline.
func Direct(input string) (string, bool) {
	reply, ok := directReplies[strings.ToLower(strings.TrimSpace(input))]
	return reply, ok
}
