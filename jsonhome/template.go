// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package jsonhome

import (
	"strings"
)

// templateOperators are the RFC 6570 expression operators that may
// start an expression.
const templateOperators = "+#./;?&"

// TemplateVariables returns the names of the variables used in an RFC
// 6570 URI template, in the order they first appear.  Each name is
// reported once.  Explode ("*") and prefix (":N") modifiers are
// stripped; a prefix modifier with no length is an error, as are
// unterminated or empty expressions.
//
//     TemplateVariables("/foo{?a,b}")   // ["a", "b"]
//     TemplateVariables("/foo{/id*}")   // ["id"]
//     TemplateVariables("/foo{id:3}")   // ["id"]
//     TemplateVariables("/foo{id:}")    // ErrTemplateFormat
func TemplateVariables(template string) ([]string, error) {
	var names []string
	seen := make(map[string]bool)
	i := 0
	for i < len(template) {
		open := strings.IndexByte(template[i:], '{')
		if open < 0 {
			break
		}
		start := i + open + 1
		end := strings.IndexAny(template[start:], "{}")
		if end < 0 || template[start+end] == '{' {
			return nil, ErrTemplateFormat{Template: template, Reason: "unterminated expression"}
		}
		body := template[start : start+end]
		i = start + end + 1

		if len(body) > 0 && strings.IndexByte(templateOperators, body[0]) >= 0 {
			body = body[1:]
		}
		if body == "" {
			return nil, ErrTemplateFormat{Template: template, Reason: "empty expression"}
		}
		for _, token := range strings.Split(body, ",") {
			name := strings.TrimSuffix(token, "*")
			if colon := strings.IndexByte(name, ':'); colon >= 0 {
				if colon == len(name)-1 {
					return nil, ErrTemplateFormat{Template: template, Reason: "empty prefix modifier on " + name[:colon]}
				}
				name = name[:colon]
			}
			if name == "" {
				return nil, ErrTemplateFormat{Template: template, Reason: "empty variable name"}
			}
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names, nil
}
