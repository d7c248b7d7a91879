package decompose

import (
	"regexp"
	"strings"
)

var headingRe = regexp.MustCompile(`^(#{1,2})[ \t]+(.+?)[ \t#]*$`)

// splitMarkdown cuts at # and ## headings outside code fences. A section
// runs to the next heading of the same or a higher level, so a # section
// holds its ## subsections. Text before the first heading becomes a
// preamble when it is not blank.
func splitMarkdown(content string) []Instance {
	type cut struct {
		off   int
		level int
		name  string
	}
	var cuts []cut
	fenced := false
	lines(content, func(off int, text string) {
		trimmed := strings.TrimSpace(text)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			fenced = !fenced
			return
		}
		if fenced {
			return
		}
		if m := headingRe.FindStringSubmatch(text); m != nil {
			cuts = append(cuts, cut{off, len(m[1]), m[2]})
		}
	})
	if len(cuts) == 0 {
		return nil
	}

	var out []Instance
	if strings.TrimSpace(content[:cuts[0].off]) != "" {
		out = append(out, part(content, "Preamble", KindPreamble, 0, cuts[0].off))
	}
	for i, c := range cuts {
		end := len(content)
		for _, n := range cuts[i+1:] {
			if n.level <= c.level {
				end = n.off
				break
			}
		}
		out = append(out, part(content, c.name, KindHeading, c.off, end))
	}
	return out
}
