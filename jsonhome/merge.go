// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package jsonhome

// MergeLinks combines two links for the same relation type.  Both
// links must have the same kind and the same href or href template;
// the result keeps a's address and href variables and composes the
// hints of both.  Merging a link with itself returns an equal link.
func MergeLinks(a, b ResourceLink) (ResourceLink, error) {
	rel := a.RelationType()
	if b.RelationType() != rel {
		return nil, ErrMergeConflict{
			RelationType: rel,
			Reason:       "different relation type " + string(b.RelationType()),
		}
	}
	switch la := a.(type) {
	case DirectLink:
		lb, ok := b.(DirectLink)
		if !ok {
			return nil, ErrMergeConflict{RelationType: rel, Reason: "direct link and templated link"}
		}
		if la.href != lb.href {
			return nil, ErrMergeConflict{
				RelationType: rel,
				Reason:       "href " + la.href + " differs from " + lb.href,
			}
		}
		return la.WithHints(ComposeHints(la.hints, lb.hints)), nil
	case TemplatedLink:
		lb, ok := b.(TemplatedLink)
		if !ok {
			return nil, ErrMergeConflict{RelationType: rel, Reason: "templated link and direct link"}
		}
		if la.hrefTemplate != lb.hrefTemplate {
			return nil, ErrMergeConflict{
				RelationType: rel,
				Reason:       "href-template " + la.hrefTemplate + " differs from " + lb.hrefTemplate,
			}
		}
		return la.WithHints(ComposeHints(la.hints, lb.hints)), nil
	default:
		return nil, ErrMergeConflict{RelationType: rel, Reason: "unknown resource link type"}
	}
}

// MergeResources combines two lists of links.  Relation types keep
// the position where they were first seen, walking a and then b.
// Links appearing more than once are combined with MergeLinks, and
// the first conflict is returned as an error.
func MergeResources(a, b []ResourceLink) ([]ResourceLink, error) {
	var order []RelationType
	byRel := make(map[RelationType]ResourceLink, len(a)+len(b))
	for _, list := range [][]ResourceLink{a, b} {
		for _, link := range list {
			rel := link.RelationType()
			existing, present := byRel[rel]
			if !present {
				order = append(order, rel)
				byRel[rel] = link
				continue
			}
			merged, err := MergeLinks(existing, link)
			if err != nil {
				return nil, err
			}
			byRel[rel] = merged
		}
	}
	result := make([]ResourceLink, len(order))
	for i, rel := range order {
		result[i] = byRel[rel]
	}
	return result, nil
}

// MergeAll folds any number of link lists together with
// MergeResources, in order.
func MergeAll(collections ...[]ResourceLink) ([]ResourceLink, error) {
	var result []ResourceLink
	for _, collection := range collections {
		var err error
		result, err = MergeResources(result, collection)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}
