package cardstyle

import (
	"strconv"
	"strings"
)

// IsTransparent reports whether a CSS colour value renders fully transparent.
// An empty value counts as transparent: the browser would draw no border.
func IsTransparent(color string) bool {
	c := strings.ToLower(strings.TrimSpace(color))
	switch {
	case c == "" || c == "transparent":
		return true
	case strings.HasPrefix(c, "#"):
		hex := c[1:]
		switch len(hex) {
		case 4:
			return hex[3] == '0'
		case 8:
			return hex[6:] == "00"
		}
		return false
	case strings.HasPrefix(c, "rgba(") || strings.HasPrefix(c, "rgb(") ||
		strings.HasPrefix(c, "hsla(") || strings.HasPrefix(c, "hsl("):
		alpha, ok := functionAlpha(c)
		return ok && alpha == 0
	}
	return false
}

// functionAlpha extracts the alpha component of rgb()/hsl() notations,
// both the comma form "rgba(0,0,0,0)" and the space form "rgb(0 0 0 / 0%)".
func functionAlpha(c string) (float64, bool) {
	open := strings.IndexByte(c, '(')
	end := strings.LastIndexByte(c, ')')
	if open < 0 || end <= open {
		return 0, false
	}
	body := c[open+1 : end]

	var alpha string
	if slash := strings.IndexByte(body, '/'); slash >= 0 {
		alpha = body[slash+1:]
	} else {
		parts := strings.Split(body, ",")
		if len(parts) != 4 {
			return 0, false
		}
		alpha = parts[3]
	}

	alpha = strings.TrimSpace(alpha)
	percent := strings.HasSuffix(alpha, "%")
	alpha = strings.TrimSuffix(alpha, "%")
	v, err := strconv.ParseFloat(alpha, 64)
	if err != nil {
		return 0, false
	}
	if percent {
		v /= 100
	}
	return v, true
}
