package cosmic

import "strings"

// ContentType is the decoding category of a request or response body.
type ContentType int

const (
	ContentTypeJSON ContentType = iota
	ContentTypeXML
	ContentTypeText
	ContentTypeImage
	ContentTypeBinary
	ContentTypeFormURLEncoded
	ContentTypeMultipartFormData
	ContentTypeEventStream
)

func (c ContentType) String() string {
	switch c {
	case ContentTypeJSON:
		return "json"
	case ContentTypeXML:
		return "xml"
	case ContentTypeText:
		return "text"
	case ContentTypeImage:
		return "image"
	case ContentTypeBinary:
		return "binary"
	case ContentTypeFormURLEncoded:
		return "form"
	case ContentTypeMultipartFormData:
		return "multipart"
	case ContentTypeEventStream:
		return "event-stream"
	default:
		return "unknown"
	}
}

// MediaType is the Content-Type header value sent for a request body of this
// category. Image and multipart bodies have no fixed media type and return "".
func (c ContentType) MediaType() string {
	switch c {
	case ContentTypeXML:
		return "application/xml"
	case ContentTypeText:
		return "text/plain"
	case ContentTypeBinary:
		return "application/octet-stream"
	case ContentTypeFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case ContentTypeEventStream:
		return "text/event-stream"
	case ContentTypeImage, ContentTypeMultipartFormData:
		return ""
	default:
		return "application/json"
	}
}

// ClassifyContentType maps a Content-Type header value to its decoding
// category. Unrecognized types are binary so their bytes are preserved.
func ClassifyContentType(header string) ContentType {
	mt, _, _ := strings.Cut(header, ";")
	mt = strings.ToLower(strings.TrimSpace(mt))

	switch {
	case strings.HasPrefix(mt, "application/") && strings.HasSuffix(mt, "xml"):
		return ContentTypeXML
	case mt == "application/x-www-form-urlencoded":
		return ContentTypeFormURLEncoded
	case mt == "text/event-stream":
		return ContentTypeEventStream
	case strings.HasPrefix(mt, "multipart/"):
		return ContentTypeMultipartFormData
	case mt == "application/json", mt == "text/json", strings.HasSuffix(mt, "+json"):
		return ContentTypeJSON
	case mt == "application/javascript", strings.HasPrefix(mt, "text/"), mt == "image/svg+xml":
		return ContentTypeText
	case strings.HasPrefix(mt, "image/"):
		return ContentTypeImage
	case mt == "application/octet-stream", mt == "application/pdf", mt == "*/*":
		return ContentTypeBinary
	default:
		return ContentTypeBinary
	}
}
