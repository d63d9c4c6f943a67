// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package adapter

import (
	"errors"
	"fmt"
	"mime"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
)

var errInvalidUTF8 = errors.New("downstream body is not valid UTF-8")

// bodyText returns body as UTF-8 text. A charset parameter other than UTF-8
// is transcoded first; everything else must already be valid UTF-8.
func bodyText(body []byte, contentType string) (string, error) {
	if cs := charsetOf(contentType); cs != "" {
		enc, err := htmlindex.Get(cs)
		if err != nil {
			return "", fmt.Errorf("unsupported charset %q: %w", cs, err)
		}
		if name, _ := htmlindex.Name(enc); name != "utf-8" {
			decoded, err := enc.NewDecoder().Bytes(body)
			if err != nil {
				return "", fmt.Errorf("decode %s body: %w", name, err)
			}
			body = decoded
		}
	}
	if !utf8.Valid(body) {
		return "", errInvalidUTF8
	}
	return string(body), nil
}

func charsetOf(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return params["charset"]
}
