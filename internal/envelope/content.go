// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package envelope

import (
	"fmt"
	"sort"
	"strings"
)

// ContentTypeResolver selects the content type of a request body.
//
// A single key is always used as is. With several keys the first entry of
// Preferred present in the content wins; without a match the body is
// rejected rather than picked by map iteration order.
type ContentTypeResolver struct {
	Preferred []string
}

// Resolve returns the content type to use for content.
func (r ContentTypeResolver) Resolve(content map[string]MediaContent) (string, error) {
	switch len(content) {
	case 0:
		return "", ErrContentTypeNotFound
	case 1:
		for key := range content {
			if key == "" {
				return "", ErrContentTypeNotFound
			}
			return key, nil
		}
	}

	for _, want := range r.Preferred {
		if want == "" {
			continue
		}
		if _, ok := content[want]; ok {
			return want, nil
		}
	}

	keys := make([]string, 0, len(content))
	for key := range content {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return "", fmt.Errorf("%w: %s", ErrAmbiguousContentType, strings.Join(keys, ", "))
}
