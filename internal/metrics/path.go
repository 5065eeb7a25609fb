package metrics

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	uuidSegmentRE  = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F-]{4}-[0-9a-fA-F-]{4,}$`)
	hexSegmentRE   = regexp.MustCompile(`^[0-9a-fA-F]{16,}$`)
	tokenSegmentRE = regexp.MustCompile(`^[A-Za-z0-9_-]{24,}$`)
)

// normalizePath colapsa segmentos dinámicos (ids, keys de confirmación)
// para acotar la cardinalidad del label.
func normalizePath(p string) string {
	clean := strings.SplitN(p, "?", 2)[0]
	if clean == "" {
		return "/"
	}

	var out []string
	for _, seg := range strings.Split(clean, "/") {
		if seg == "" {
			continue
		}
		if isDynamicSegment(seg) {
			out = append(out, ":param")
		} else {
			out = append(out, seg)
		}
	}
	if len(out) == 0 {
		return "/"
	}
	res := "/" + strings.Join(out, "/")
	if strings.HasSuffix(clean, "/") {
		res += "/"
	}
	return res
}

func isDynamicSegment(seg string) bool {
	if len(seg) > 48 {
		return true
	}
	if uuidSegmentRE.MatchString(seg) || hexSegmentRE.MatchString(seg) || tokenSegmentRE.MatchString(seg) {
		return true
	}
	_, err := strconv.Atoi(seg)
	return err == nil
}
