// Package tokens provides token counting using tiktoken-go.
// Used to report the size of context digests against their level budgets.
package tokens

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Counter provides token counting for text.
// Uses cl100k_base encoding.
type Counter struct {
	enc  *tiktoken.Tiktoken
	once sync.Once
	err  error
}

// Global counter instance
var defaultCounter = &Counter{}

// Count returns the number of tokens in the given text.
func Count(text string) int {
	return defaultCounter.Count(text)
}

// Exact reports whether Count uses the real encoding.
func Exact() bool {
	return defaultCounter.Exact()
}

// Count returns the number of tokens in the given text.
func (c *Counter) Count(text string) int {
	c.init()
	if c.err != nil || c.enc == nil {
		return Estimate{}.Tokens(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}

// Exact reports whether counts come from the real encoding rather than
// the length estimate. The encoding is fetched on first use, so offline
// hosts fall back to estimating.
func (c *Counter) Exact() bool {
	c.init()
	return c.err == nil && c.enc != nil
}

func (c *Counter) init() {
	c.once.Do(func() {
		c.enc, c.err = tiktoken.GetEncoding("cl100k_base")
	})
}

// Estimate provides quick token estimates without full encoding. Count
// falls back to it when the encoding cannot be loaded.
type Estimate struct{}

// Tokens estimates token count from word count.
func (Estimate) Tokens(text string) int {
	words := len(strings.Fields(text))
	// Average 1.3 tokens per word
	return int(float64(words) * 1.3)
}

// Budget is the intended token size of a context digest at each level.
var Budget = map[int]int{
	1: 50,
	2: 200,
	3: 500,
}
