package recovery

import "strings"

var pendingHeaders = []string{"## In Progress", "## Pending"}

// ParsePending extracts unchecked items listed under "## In Progress" or
// "## Pending" headers, lowercased. A section runs to the next "## " header.
func ParsePending(doc string) []string {
	var (
		out []string
		in  bool
	)
	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimRight(line, "\r")
		if isPendingHeader(line) {
			in = true
			continue
		}
		if strings.HasPrefix(line, "## ") {
			in = false
			continue
		}
		if !in {
			continue
		}
		item := strings.TrimSpace(line)
		for _, box := range []string{"- [ ]", "* [ ]"} {
			if strings.HasPrefix(item, box) {
				if task := strings.TrimSpace(strings.TrimPrefix(item, box)); task != "" {
					out = append(out, strings.ToLower(task))
				}
				break
			}
		}
	}
	return out
}

func isPendingHeader(line string) bool {
	for _, h := range pendingHeaders {
		if strings.Contains(line, h) {
			return true
		}
	}
	return false
}
