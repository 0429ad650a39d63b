// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package jsonhome

// JSONHome is an immutable catalog of resource links keyed by
// relation type.  Relation types keep the order in which they were
// first added.  A nil *JSONHome behaves as an empty catalog.
type JSONHome struct {
	order []RelationType
	links map[RelationType]ResourceLink
}

// New builds a catalog from a list of links.  Links sharing a
// relation type are combined with MergeLinks, and a conflict between
// them is returned as an error.
func New(links ...ResourceLink) (*JSONHome, error) {
	merged, err := MergeResources(links, nil)
	if err != nil {
		return nil, err
	}
	return fromMerged(merged), nil
}

// Empty returns a catalog with no resources.
func Empty() *JSONHome {
	return fromMerged(nil)
}

func fromMerged(links []ResourceLink) *JSONHome {
	home := &JSONHome{
		order: make([]RelationType, len(links)),
		links: make(map[RelationType]ResourceLink, len(links)),
	}
	for i, link := range links {
		home.order[i] = link.RelationType()
		home.links[link.RelationType()] = link
	}
	return home
}

// Len returns the number of relation types in the catalog.
func (h *JSONHome) Len() int {
	if h == nil {
		return 0
	}
	return len(h.order)
}

// RelationTypes returns the relation types in catalog order.
func (h *JSONHome) RelationTypes() []RelationType {
	if h == nil || len(h.order) == 0 {
		return nil
	}
	return append([]RelationType(nil), h.order...)
}

// Resources returns the links in catalog order.
func (h *JSONHome) Resources() []ResourceLink {
	if h == nil || len(h.order) == 0 {
		return nil
	}
	result := make([]ResourceLink, len(h.order))
	for i, rel := range h.order {
		result[i] = h.links[rel]
	}
	return result
}

// Resource looks up the link for a relation type.
func (h *JSONHome) Resource(rel RelationType) (ResourceLink, bool) {
	if h == nil {
		return nil, false
	}
	link, present := h.links[rel]
	return link, present
}

// Has checks whether the catalog has a link for a relation type.
func (h *JSONHome) Has(rel RelationType) bool {
	_, present := h.Resource(rel)
	return present
}

// Merge combines this catalog with another one using MergeResources.
// Neither catalog is changed.
func (h *JSONHome) Merge(other *JSONHome) (*JSONHome, error) {
	merged, err := MergeResources(h.Resources(), other.Resources())
	if err != nil {
		return nil, err
	}
	return fromMerged(merged), nil
}

// Override combines this catalog with another one.  Relation types
// present in both are combined with MergeLinks where possible; when
// the two links conflict, the link from other replaces the existing
// one in its existing position, and onConflict (if non-nil) is called
// with the conflict.  Neither catalog is changed.
func (h *JSONHome) Override(other *JSONHome, onConflict func(ErrMergeConflict)) *JSONHome {
	result := &JSONHome{
		order: h.RelationTypes(),
		links: make(map[RelationType]ResourceLink, h.Len()+other.Len()),
	}
	for _, rel := range result.order {
		result.links[rel] = h.links[rel]
	}
	for _, link := range other.Resources() {
		rel := link.RelationType()
		existing, present := result.links[rel]
		if !present {
			result.order = append(result.order, rel)
			result.links[rel] = link
			continue
		}
		merged, err := MergeLinks(existing, link)
		if err != nil {
			if conflict, isConflict := err.(ErrMergeConflict); isConflict && onConflict != nil {
				onConflict(conflict)
			}
			merged = link
		}
		result.links[rel] = merged
	}
	return result
}
