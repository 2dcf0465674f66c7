// Package tokens estimates prompt size for context-window checks. The
// estimator is a byte-based chars/4 heuristic; it only needs to be accurate
// enough to warn before a diff-heavy prompt silently overflows the model
// window and gets truncated server-side.
package tokens

import (
	"fmt"
	"math"
)

// charsPerToken is the estimator divisor, roughly 4 bytes per token for
// typical English and code.
const charsPerToken = 4

// warnFraction of the context window at which ContextWarning starts firing.
const warnFraction = 0.9

// Estimate returns the estimated token count for the prompt. 1 to 4 bytes
// map to 1 token, 5 to 8 to 2, and so on; the empty string is 0.
func Estimate(prompt string) int {
	n := len(prompt)
	if n == 0 {
		return 0
	}
	return (n + charsPerToken - 1) / charsPerToken
}

// ContextWarning returns a non-empty warning when the prompt plus the
// response reserve meets or exceeds 90% of the context window. responseReserve
// is the configured max response tokens; numCtx is the model context window.
// A numCtx of zero or less disables the check.
func ContextWarning(promptTokens, responseReserve, numCtx int) string {
	if numCtx <= 0 || promptTokens < 0 || responseReserve < 0 {
		return ""
	}
	if responseReserve > math.MaxInt-promptTokens {
		return fmt.Sprintf("token estimate overflow (prompt %d + reserve %d)", promptTokens, responseReserve)
	}
	total := promptTokens + responseReserve
	if float64(total) < float64(numCtx)*warnFraction {
		return ""
	}
	return fmt.Sprintf("estimated tokens %d (prompt %d + reserve %d) is near the context window of %d; the model may see a truncated diff",
		total, promptTokens, responseReserve, numCtx)
}
