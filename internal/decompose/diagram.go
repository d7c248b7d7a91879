package decompose

import (
	"fmt"
	"regexp"
	"strings"
)

var diagramRe = regexp.MustCompile(`^[ \t]*(graph|flowchart|sequenceDiagram|classDiagram|stateDiagram(?:-v2)?|erDiagram|journey|gantt|pie)\b`)

// splitDiagram starts an instance at every diagram keyword line. Fence
// lines end the current instance and belong to none.
func splitDiagram(content string) []Instance {
	var out []Instance
	counts := map[string]int{}
	start, name := -1, ""
	end := 0
	lines(content, func(off int, text string) {
		lineEnd := off + len(text)
		switch {
		case strings.HasPrefix(strings.TrimSpace(text), "```"):
			closeDiagram(&out, content, &start, name, end)
		case diagramRe.MatchString(text):
			closeDiagram(&out, content, &start, name, end)
			kw := diagramRe.FindStringSubmatch(text)[1]
			kw = strings.TrimSuffix(kw, "-v2")
			counts[kw]++
			start, name = off, fmt.Sprintf("%s %d", kw, counts[kw])
			end = lineEnd
		default:
			if start >= 0 && strings.TrimSpace(text) != "" {
				end = lineEnd
			}
		}
	})
	closeDiagram(&out, content, &start, name, end)
	return out
}

func closeDiagram(out *[]Instance, content string, start *int, name string, end int) {
	if *start < 0 {
		return
	}
	*out = append(*out, part(content, name, KindDiagram, *start, end))
	*start = -1
}
