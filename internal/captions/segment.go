package captions

import "strings"

const (
	// MaxWordsPerCaption caps every cue regardless of punctuation.
	MaxWordsPerCaption = 7
	// minWordsBeforeSentenceBreak is the length a cue must exceed before a
	// sentence-ending word may close it.
	minWordsBeforeSentenceBreak = 3
)

// Segment groups words into captions in a single greedy pass. A caption closes
// when it reaches MaxWordsPerCaption words, when a word ending in '.', '!' or
// '?' lands in a caption already longer than three words, or at the final
// word. Start and end come from the first and last word of each caption; gaps
// or overlaps between neighbouring captions are left as the words report them.
//
// An empty input yields an empty, non-nil slice. Malformed timestamps are
// rejected with *InvalidInputError before any caption is built.
func Segment(words []Word) ([]Caption, error) {
	if err := Validate(words); err != nil {
		return nil, err
	}
	cues := make([]Caption, 0, len(words)/minWordsBeforeSentenceBreak+1)
	first := 0
	for i, word := range words {
		if !closesCaption(word, i-first+1, i == len(words)-1) {
			continue
		}
		cues = append(cues, buildCaption(len(cues)+1, words[first:i+1]))
		first = i + 1
	}
	return cues, nil
}

func closesCaption(word Word, count int, last bool) bool {
	switch {
	case count >= MaxWordsPerCaption:
		return true
	case endsSentence(word.Text) && count > minWordsBeforeSentenceBreak:
		return true
	default:
		return last
	}
}

func endsSentence(text string) bool {
	if text == "" {
		return false
	}
	switch text[len(text)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}

func buildCaption(index int, words []Word) Caption {
	texts := make([]string, len(words))
	for i, w := range words {
		texts[i] = w.Text
	}
	return Caption{
		Index: index,
		Start: words[0].Start,
		End:   words[len(words)-1].End,
		Text:  strings.Join(texts, " "),
	}
}
