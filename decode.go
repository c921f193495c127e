package cosmic

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/url"
	"strings"
)

// decodeBody decodes raw according to the category of the Content-Type
// header value contentType.
func decodeBody(contentType string, raw []byte) (any, error) {
	switch ct := ClassifyContentType(contentType); ct {
	case ContentTypeXML, ContentTypeText:
		return string(raw), nil
	case ContentTypeBinary, ContentTypeImage:
		return raw, nil
	case ContentTypeMultipartFormData:
		return decodeMultipart(contentType, raw)
	case ContentTypeFormURLEncoded:
		return decodeForm(raw)
	case ContentTypeEventStream:
		return decodeEvent(raw)
	case ContentTypeJSON:
		return decodeJSON(raw)
	default:
		return decodeJSON(raw)
	}
}

func decodeJSON(raw []byte) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("cosmic: decode json body: %w", err)
	}
	return v, nil
}

// decodeEvent decodes one server-sent event whose data lines carry JSON.
// The "data:" prefix is stripped from each line.
func decodeEvent(raw []byte) (any, error) {
	var data []string
	for line := range strings.Lines(string(raw)) {
		line = strings.TrimRight(line, "\r\n")
		if rest, ok := strings.CutPrefix(line, "data:"); ok {
			data = append(data, strings.TrimPrefix(rest, " "))
		}
	}
	if len(data) == 0 {
		return decodeJSON(raw)
	}
	return decodeJSON([]byte(strings.Join(data, "\n")))
}

func decodeForm(raw []byte) (any, error) {
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, fmt.Errorf("cosmic: decode form body: %w", err)
	}
	out := make(map[string]any, len(values))
	for k, vs := range values {
		if len(vs) == 1 {
			out[k] = vs[0]
			continue
		}
		out[k] = vs
	}
	return out, nil
}

// decodeMultipart decodes a multipart body into a map of field name to
// string (plain fields) or []byte (file parts). Repeated names collect into
// a []any.
func decodeMultipart(contentType string, raw []byte) (any, error) {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("cosmic: decode multipart body: %w", err)
	}
	boundary := params["boundary"]
	if boundary == "" {
		return nil, errors.New("cosmic: decode multipart body: missing boundary")
	}
	out := make(map[string]any)
	mr := multipart.NewReader(bytes.NewReader(raw), boundary)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("cosmic: decode multipart body: %w", err)
		}
		data, err := io.ReadAll(part)
		if err != nil {
			return nil, fmt.Errorf("cosmic: decode multipart body: %w", err)
		}
		var value any = string(data)
		if part.FileName() != "" {
			value = data
		}
		name := part.FormName()
		switch prev := out[name].(type) {
		case nil:
			out[name] = value
		case []any:
			out[name] = append(prev, value)
		default:
			out[name] = []any{prev, value}
		}
	}
	return out, nil
}
