package persona

import "strings"

// identityCues mark the original question as an identity question. If a
// denied name shows up in the answer to one of these, the whole answer is
// replaced with the self-introduction.
var identityCues = []string{"name", "who are you", "what are you"}

// encyclopedicCues mark an answer as too formal for casual conversation.
var encyclopedicCues = []string{"is a", "refers to", "definition", "etymology"}

// stepResult is the outcome of one processing step. A done result
// short-circuits the pipeline; later steps never see the text again.
type stepResult struct {
	done bool
	text string
}

func next(text string) stepResult  { return stepResult{text: text} }
func final(text string) stepResult { return stepResult{done: true, text: text} }

// Process rewrites a raw upstream answer into a brand-consistent reply.
// Steps run in a fixed order and the early returns are destructive on
// purpose: once a step finishes the answer, the remaining text is discarded.
// Direct replies never pass through here.
func Process(raw, question string) string {
	steps := []func(string, string) stepResult{
		stripCitations,
		maskDeniedNames,
		simplifyEncyclopedic,
	}
	text := raw
	for _, step := range steps {
		res := step(text, question)
		if res.done {
			return res.text
		}
		text = res.text
	}
	return strings.TrimSpace(text)
}

// stripCitations truncates at the first citation marker and at the first
// "References:" section. Upstream answers cite sources as [1][2].
func stripCitations(text, _ string) stepResult {
	if i := strings.Index(text, "["); i >= 0 {
		text = text[:i]
	}
	if i := strings.Index(text, "References:"); i >= 0 {
		text = text[:i]
	}
	return next(text)
}

// maskDeniedNames handles answers that mention competing assistants. Identity
// questions get the fixed self-introduction; everything else has each denied
// name rewritten to Wizdom.
func maskDeniedNames(text, question string) stepResult {
	lower := strings.ToLower(text)
	questionLower := strings.ToLower(question)
	for _, name := range deniedNames {
		if !strings.Contains(lower, name) {
			continue
		}
		for _, cue := range identityCues {
			if strings.Contains(questionLower, cue) {
				return final(SelfIntro)
			}
		}
		text = replaceFold(text, name, Name)
	}
	return next(text)
}

// simplifyEncyclopedic collapses definition-style answers to a single casual
// sentence. Only the first ". "-separated sentence survives, with its first
// "is a" rewritten to "a".
func simplifyEncyclopedic(text, _ string) stepResult {
	lower := strings.ToLower(text)
	formal := false
	for _, cue := range encyclopedicCues {
		if strings.Contains(lower, cue) {
			formal = true
			break
		}
	}
	if !formal {
		return next(text)
	}
	first := strings.ToLower(strings.Split(text, ". ")[0])
	if !strings.Contains(first, "is a") {
		return next(text)
	}
	return final("That's " + strings.Replace(first, "is a", "a", 1) + ".")
}

// replaceFold replaces every case-insensitive occurrence of old with new.
func replaceFold(s, old, new string) string {
	if old == "" {
		return s
	}
	lower := strings.ToLower(s)
	target := strings.ToLower(old)
	var b strings.Builder
	for {
		i := strings.Index(lower, target)
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		b.WriteString(new)
		s = s[i+len(old):]
		lower = lower[i+len(target):]
	}
}
