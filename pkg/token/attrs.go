package token

import "regexp"

// validAttrName approximates the HTML attribute-name production: no
// whitespace, quotes, '>', '/', '=' or control characters.
var validAttrName = regexp.MustCompile(`^[^\s"'>/=\x00-\x1f\x7f]+$`)

// ValidAttrName reports whether name can be used as an attribute name.
func ValidAttrName(name string) bool {
	return validAttrName.MatchString(name)
}

// CopyAttrs copies attrs, dropping entries whose name is not a valid
// attribute name. warn is called once per dropped attribute.
func CopyAttrs(attrs []Attr, warn func(a Attr)) []Attr {
	if attrs == nil {
		return nil
	}
	out := make([]Attr, 0, len(attrs))
	for _, a := range attrs {
		if !ValidAttrName(a.Key) {
			if warn != nil {
				warn(a)
			}
			continue
		}
		out = append(out, a)
	}
	return out
}
