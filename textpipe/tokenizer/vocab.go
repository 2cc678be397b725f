package tokenizer

import (
	"sort"

	"github.com/armon/go-radix"
)

// reservedSlots is the number of ids claimed before frequency assignment
// begins: <pad> then <unk>.
const reservedSlots = 2

// Vocabulary is a bidirectional word<->id mapping, fixed once built. Ids are
// dense in [0, Size()), every id maps to exactly one word and vice versa.
type Vocabulary struct {
	idByWord map[string]int64
	wordByID []string
	prefix   *radix.Tree
	padID    int64
	unkID    int64
}

// buildVocabulary assigns ids by descending corpus frequency with a
// lexicographic tie-break, so repeated fits over the same corpus produce the
// same assignment. maxSize caps the total vocabulary including the reserved
// entries (0 = unbounded); minFreq drops words rarer than the floor (0 = keep
// all).
func buildVocabulary(freq map[string]int, maxSize, minFreq int) *Vocabulary {
	words := make([]string, 0, len(freq))
	for w, c := range freq {
		if minFreq > 0 && c < minFreq {
			continue
		}
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] != freq[words[j]] {
			return freq[words[i]] > freq[words[j]]
		}
		return words[i] < words[j]
	})
	if maxSize > reservedSlots && len(words) > maxSize-reservedSlots {
		words = words[:maxSize-reservedSlots]
	}

	v := &Vocabulary{
		idByWord: make(map[string]int64, len(words)+reservedSlots),
		wordByID: make([]string, 0, len(words)+reservedSlots),
		prefix:   radix.New(),
	}
	v.padID = v.add(PadToken)
	v.unkID = v.add(UnkToken)
	for _, w := range words {
		v.add(w)
	}
	return v
}

func (v *Vocabulary) add(word string) int64 {
	id := int64(len(v.wordByID))
	v.idByWord[word] = id
	v.wordByID = append(v.wordByID, word)
	v.prefix.Insert(word, id)
	return id
}

// ID returns the id for word, falling back to the unknown id for words the
// vocabulary never saw.
func (v *Vocabulary) ID(word string) int64 {
	if id, ok := v.idByWord[word]; ok {
		return id
	}
	return v.unkID
}

// Word returns the word assigned to id; ok is false outside [0, Size()).
func (v *Vocabulary) Word(id int64) (string, bool) {
	if id < 0 || id >= int64(len(v.wordByID)) {
		return "", false
	}
	return v.wordByID[id], true
}

// Size returns the number of entries, reserved ids included.
func (v *Vocabulary) Size() int {
	return len(v.wordByID)
}

// PadID returns the reserved padding id.
func (v *Vocabulary) PadID() int64 {
	return v.padID
}

// UnkID returns the reserved unknown-word id.
func (v *Vocabulary) UnkID() int64 {
	return v.unkID
}

// WordsWithPrefix returns every vocabulary word starting with prefix, in
// lexicographic order. Useful for inspecting what a fitted vocabulary
// actually contains.
func (v *Vocabulary) WordsWithPrefix(prefix string) []string {
	var out []string
	v.prefix.WalkPrefix(prefix, func(key string, _ interface{}) bool {
		out = append(out, key)
		return false
	})
	return out
}
