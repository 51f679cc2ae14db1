package recipients

import (
	"errors"
	"regexp"
	"sort"
	"strings"
)

const (
	sniffSampleSize  = 1024
	sniffChunkLength = 10
	sniffThreshold   = 0.9
)

// preferredDelimiters break ties when several characters look consistent.
var preferredDelimiters = []byte{',', '\t', ';', ' ', ':'}

var errNoDelimiter = errors.New("Could not determine delimiter")

// dialect is the detected CSV shape.
type dialect struct {
	delimiter        rune
	skipInitialSpace bool
}

// quotedFieldPattern matches a double-quoted field with the characters on
// either side of it. Backreferences are unavailable, so the caller checks
// that both sides are the same delimiter.
var quotedFieldPattern = regexp.MustCompile(`(?m)(^|[^\w\n"'])( ?)"[^"\n]*"([^\w\n"']|$)`)

// sniff guesses the delimiter of sample. Quoted fields are inspected first;
// otherwise the character whose per-line frequency is most consistent wins.
func sniff(sample string) (dialect, error) {
	if len(sample) > sniffSampleSize {
		sample = sample[:sniffSampleSize]
	}
	sample = strings.ReplaceAll(sample, "\r\n", "\n")

	if d, ok := guessFromQuotes(sample); ok {
		return d, nil
	}
	return guessFromFrequency(sample)
}

func guessFromQuotes(sample string) (dialect, bool) {
	votes := make(map[byte]int)
	spaces := 0
	for _, m := range quotedFieldPattern.FindAllStringSubmatch(sample, -1) {
		left, space, right := m[1], m[2], m[3]
		var delim byte
		switch {
		case left != "" && (right == "" || right == left):
			delim = left[0]
		case left == "" && right != "":
			delim = right[0]
		default:
			continue
		}
		if !usableDelimiter(delim) {
			continue
		}
		votes[delim]++
		if space != "" {
			spaces++
		}
	}
	if len(votes) == 0 {
		return dialect{}, false
	}

	best, bestVotes := byte(0), 0
	for d, n := range votes {
		if n > bestVotes || (n == bestVotes && d < best) {
			best, bestVotes = d, n
		}
	}
	return dialect{delimiter: rune(best), skipInitialSpace: spaces == bestVotes}, true
}

type mode struct {
	count   int
	support int
}

func guessFromFrequency(sample string) (dialect, error) {
	var lines []string
	for l := range strings.SplitSeq(sample, "\n") {
		if l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return dialect{}, errNoDelimiter
	}

	chunk := min(sniffChunkLength, len(lines))
	frequencies := make(map[byte]map[int]int)
	// freqOrder keeps first-seen order of counts so mode ties resolve the
	// same way on every run.
	freqOrder := make(map[byte][]int)
	var delims map[byte]mode

	for start, iteration := 0, 1; start < len(lines); start, iteration = start+chunk, iteration+1 {
		end := min(start+chunk, len(lines))
		for _, line := range lines[start:end] {
			for c := byte(1); c < 127; c++ {
				n := strings.Count(line, string(c))
				meta, ok := frequencies[c]
				if !ok {
					meta = make(map[int]int)
					frequencies[c] = meta
				}
				if _, seen := meta[n]; !seen {
					freqOrder[c] = append(freqOrder[c], n)
				}
				meta[n]++
			}
		}

		modes := make(map[byte]mode)
		for c, meta := range frequencies {
			order := freqOrder[c]
			if len(order) == 1 && order[0] == 0 {
				continue
			}
			best := order[0]
			for _, n := range order[1:] {
				if meta[n] > meta[best] {
					best = n
				}
			}
			others := 0
			for _, n := range order {
				if n != best {
					others += meta[n]
				}
			}
			modes[c] = mode{count: best, support: meta[best] - others}
		}

		total := float64(min(chunk*iteration, len(lines)))
		delims = make(map[byte]mode)
		for consistency := 1.0; len(delims) == 0 && consistency >= sniffThreshold; consistency -= 0.01 {
			for c, m := range modes {
				if m.count > 0 && m.support > 0 && float64(m.support)/total >= consistency && usableDelimiter(c) {
					delims[c] = m
				}
			}
		}

		if len(delims) == 1 {
			for c := range delims {
				return dialect{delimiter: rune(c), skipInitialSpace: skipsSpace(lines[0], c)}, nil
			}
		}
	}

	if len(delims) == 0 {
		return dialect{}, errNoDelimiter
	}
	for _, c := range preferredDelimiters {
		if _, ok := delims[c]; ok {
			return dialect{delimiter: rune(c), skipInitialSpace: skipsSpace(lines[0], c)}, nil
		}
	}

	candidates := make([]byte, 0, len(delims))
	for c := range delims {
		candidates = append(candidates, c)
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := delims[candidates[i]], delims[candidates[j]]
		if a.count != b.count {
			return a.count < b.count
		}
		if a.support != b.support {
			return a.support < b.support
		}
		return candidates[i] < candidates[j]
	})
	c := candidates[len(candidates)-1]
	return dialect{delimiter: rune(c), skipInitialSpace: skipsSpace(lines[0], c)}, nil
}

func skipsSpace(line string, delim byte) bool {
	return strings.Count(line, string(delim)) == strings.Count(line, string([]byte{delim, ' '}))
}

// usableDelimiter excludes characters encoding/csv cannot split on.
func usableDelimiter(c byte) bool {
	return c != 0 && c != '"' && c != '\r' && c != '\n'
}
