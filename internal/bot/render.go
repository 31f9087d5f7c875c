package bot

import (
	"fmt"
	"strings"
	"time"

	"catat/internal/core"
)

// maxMessageLen stays under Telegram's 4096 character limit.
const maxMessageLen = 4000

const detailTimeLayout = "02/01 15:04"

// Renderer formats summaries as chat text.
type Renderer struct {
	Format   core.AmountFormatter
	Location *time.Location
}

// Summary renders the totals and, when detail is set, every entry grouped
// by category with the most recent first. Long output is split into
// several messages on line boundaries.
func (r Renderer) Summary(label string, s core.Summary, detail bool) []string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Total %s: %s", label, r.Format.Format(s.Total))
	if s.Empty() {
		b.WriteString("\n\n")
		b.WriteString(msgNoExpenses)
		return []string{b.String()}
	}

	b.WriteString("\n")
	for _, c := range s.ByCategory() {
		fmt.Fprintf(&b, "\n%s: %s", c.Name, r.Format.Format(c.Amount))
	}

	if detail {
		b.WriteString("\n\n🧾 Detail")
		for _, g := range s.DetailGroups() {
			fmt.Fprintf(&b, "\n\n%s (%s)", g.Category, r.Format.Format(g.Total))
			for _, e := range g.Entries {
				fmt.Fprintf(&b, "\n%s %s - %s", r.when(e.Date), e.Title, r.Format.Format(e.Amount))
			}
		}
	}
	return splitMessage(b.String(), maxMessageLen)
}

func (r Renderer) when(t time.Time) string {
	if t.IsZero() {
		return "--/-- --:--"
	}
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(detailTimeLayout)
}

// splitMessage cuts text into chunks of at most limit bytes, breaking after
// a newline where possible.
func splitMessage(text string, limit int) []string {
	var out []string
	for len(text) > limit {
		cut := strings.LastIndexByte(text[:limit], '\n')
		if cut <= 0 {
			cut = limit
			for cut > 0 && !utf8Start(text[cut]) {
				cut--
			}
		}
		out = append(out, text[:cut])
		text = strings.TrimPrefix(text[cut:], "\n")
	}
	return append(out, text)
}

func utf8Start(b byte) bool {
	return b&0xC0 != 0x80
}
