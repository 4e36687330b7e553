package post

import "strings"

// WordsPerMinute is the reading speed behind ReadingTime.
const WordsPerMinute = 200

// WordCount adds up the words of every heading and body block text.
// Blank text counts as no words.
func WordCount(sections []Section) int {
	total := 0
	for _, s := range sections {
		total += len(strings.Fields(s.Heading))
		for _, b := range s.Body {
			total += len(strings.Fields(b.Text))
		}
	}
	return total
}

// ReadingTime estimates whole minutes to read the sections, rounding up.
func ReadingTime(sections []Section) int {
	words := WordCount(sections)
	return (words + WordsPerMinute - 1) / WordsPerMinute
}

// ReadingTime is the estimate for the post's content.
func (d Detail) ReadingTime() int {
	return ReadingTime(d.Data.Content)
}
