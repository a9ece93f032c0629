package engine

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/hassansecfix/policy-edit-sub000/pkg/document"
)

// FixedSpaceOffset is the tuning constant added to the raw length
// difference when computing how many spaces to remove before the logo
// placeholder. Calibrated against the template's padding.
const FixedSpaceOffset = -14

// maxLiteralCombo bounds the literal tab/NBSP pattern enumeration.
const maxLiteralCombo = 5

const nbsp = "\u00a0"

// 📐 SpacesDelta computes how many spaces to remove (positive) or add
// (negative) before the placeholder so the logo lands where the template
// expects it, given the company-name record that shifts the line.
func SpacesDelta(target, replacement string) int {
	return len([]rune(replacement)) - len([]rune(target)) + FixedSpaceOffset
}

// removalStrategies is the ordered cascade for the spaces_delta >= 0
// case. Each strategy replaces a whitespace run plus the placeholder with
// the sentinel; the first one yielding at least one replacement wins.
func removalStrategies(doc document.Document, placeholder, sentinel string, n int) []Strategy {
	quoted := regexp.QuoteMeta(placeholder)

	replaceRegex := func(ctx context.Context, pattern string) (bool, error) {
		count, err := doc.ReplaceAll(ctx, document.ReplaceRequest{
			Find:      pattern,
			Replace:   sentinel,
			MatchCase: true,
			Regex:     true,
		})
		return count > 0, err
	}
	replaceLiteral := func(ctx context.Context, find string) (bool, error) {
		count, err := doc.ReplaceAll(ctx, document.ReplaceRequest{
			Find:      find,
			Replace:   sentinel,
			MatchCase: true,
		})
		return count > 0, err
	}

	return []Strategy{
		{
			Name: "whitespace-regex",
			Attempt: func(ctx context.Context) (bool, error) {
				pattern := fmt.Sprintf(`[ \t\x{00A0}\x{2000}-\x{200B}]{0,%d}%s`, n, quoted)
				return replaceRegex(ctx, pattern)
			},
		},
		{
			Name: "space-regex",
			Attempt: func(ctx context.Context) (bool, error) {
				pattern := fmt.Sprintf(` {0,%d}%s`, n, quoted)
				return replaceRegex(ctx, pattern)
			},
		},
		{
			Name: "tab-nbsp-literal",
			Attempt: func(ctx context.Context) (bool, error) {
				limit := maxLiteralCombo
				if n < limit {
					limit = n
				}
				for k := 1; k <= limit; k++ {
					for _, prefix := range []string{
						strings.Repeat("\t", k),
						strings.Repeat(nbsp, k),
						strings.Repeat("\t"+nbsp, k),
					} {
						ok, err := replaceLiteral(ctx, prefix+placeholder)
						if err != nil {
							return false, err
						}
						if ok {
							return true, nil
						}
					}
				}
				return false, nil
			},
		},
		{
			Name: "space-count-enumeration",
			Attempt: func(ctx context.Context) (bool, error) {
				for k := n; k >= 0; k-- {
					ok, err := replaceLiteral(ctx, strings.Repeat(" ", k)+placeholder)
					if err != nil {
						return false, err
					}
					if ok {
						return true, nil
					}
				}
				return false, nil
			},
		},
	}
}
