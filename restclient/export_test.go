// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restclient

// CachedResponses returns the number of responses in c's cache.
func (c *Client) CachedResponses() int {
	return c.store.Len()
}
