package cosmic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"reflect"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gorilla/schema"
)

var formEncoder = schema.NewEncoder()

func init() {
	formEncoder.SetAliasTag("json")
}

const headerContentType = "Content-Type"

// encodeRequest returns a copy of req whose Body is ready for the wire and
// whose Content-Type header describes it. req itself is not modified.
func encodeRequest(req *Request) (*Request, error) {
	if req.Body == nil {
		return req, nil
	}

	var (
		body        any
		contentType string
		override    bool
		err         error
	)
	switch req.RequestContentType {
	case ContentTypeXML, ContentTypeText, ContentTypeImage, ContentTypeBinary, ContentTypeEventStream:
		body = req.Body
		// Readers are drained once here so every retry sends the same bytes.
		if r, ok := req.Body.(io.Reader); ok {
			data, rerr := io.ReadAll(r)
			if rerr != nil {
				return nil, fmt.Errorf("cosmic: read request body: %w", rerr)
			}
			body = data
		}
		contentType = req.RequestContentType.MediaType()
		if b, ok := body.([]byte); ok && len(b) > 0 && req.RequestContentType != ContentTypeText {
			contentType = mimetype.Detect(b).String()
		}
	case ContentTypeFormURLEncoded:
		body, err = encodeForm(req)
		contentType = req.RequestContentType.MediaType()
	case ContentTypeMultipartFormData:
		body, contentType, err = encodeMultipart(req)
		override = true
	default:
		body, err = encodeJSON(req)
		contentType = ContentTypeJSON.MediaType()
	}
	if err != nil {
		return nil, err
	}

	return req.Copy(func(r *Request) {
		r.Body = body
		key, ok := headerKey(&r.HeaderParams, headerContentType)
		switch {
		case ok && override:
			r.HeaderParams.Delete(key)
			r.AddHeaderParam(headerContentType, contentType)
		case !ok && contentType != "":
			r.AddHeaderParam(headerContentType, contentType)
		}
	}), nil
}

// headerKey finds the stored key of a header parameter, ignoring case.
func headerKey(ps *Params, name string) (string, bool) {
	for p := range ps.All() {
		if strings.EqualFold(p.Key, name) {
			return p.Key, true
		}
	}
	return "", false
}

// validateBody parses req.Body with the request schema when request
// validation is enabled. It returns the value to serialize.
func validateBody(req *Request) (any, error) {
	if req.RequestSchema == nil || !req.Config.Validation.RequestValidation {
		return req.Body, nil
	}
	parsed, err := req.RequestSchema.Parse(req.Body)
	if err != nil {
		return nil, err
	}
	if parsed == nil {
		return req.Body, nil
	}
	return parsed, nil
}

func encodeJSON(req *Request) ([]byte, error) {
	body, err := validateBody(req)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("cosmic: encode json body: %w", err)
	}
	return data, nil
}

// encodeForm flattens the body to a urlencoded string. Strings and
// url.Values pass through; null fields are skipped.
func encodeForm(req *Request) (string, error) {
	switch b := req.Body.(type) {
	case string:
		return b, nil
	case url.Values:
		return b.Encode(), nil
	case map[string][]string:
		return url.Values(b).Encode(), nil
	}

	body, err := validateBody(req)
	if err != nil {
		return "", err
	}
	values := url.Values{}
	if entries, ok := asObject(deref(body)); ok && reflect.ValueOf(deref(body)).Kind() == reflect.Map {
		for _, e := range entries {
			if items, ok := asList(e.value); ok {
				for _, item := range items {
					if item != nil {
						values.Add(e.key, stringify(item))
					}
				}
				continue
			}
			values.Set(e.key, stringify(e.value))
		}
		return values.Encode(), nil
	}
	if err := formEncoder.Encode(body, values); err != nil {
		return "", fmt.Errorf("cosmic: encode form body: %w", err)
	}
	return values.Encode(), nil
}

// encodeMultipart writes the body fields as multipart/form-data parts.
// Lists become indexed fields (key[0], key[1], ...); byte slices and
// readers become file parts.
func encodeMultipart(req *Request) ([]byte, string, error) {
	body, err := validateBody(req)
	if err != nil {
		return nil, "", err
	}
	entries, ok := asObject(deref(body))
	if !ok {
		return nil, "", fmt.Errorf("cosmic: multipart body must be a map or struct, got %T", req.Body)
	}
	var buf bytes.Buffer
	mw := newMultipartWriter(&buf)
	for _, e := range entries {
		if items, ok := asList(e.value); ok {
			for i, item := range items {
				name := fmt.Sprintf("%s[%d]", e.key, i)
				filename := name
				if i < len(req.Filenames) {
					filename = req.Filenames[i]
				}
				if err := mw.writeValue(name, filename, item); err != nil {
					return nil, "", err
				}
			}
			continue
		}
		filename := e.key
		if req.Filename != "" {
			filename = req.Filename
		}
		if err := mw.writeValue(e.key, filename, e.value); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("cosmic: encode multipart body: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

type multipartWriter struct {
	*multipart.Writer
}

func newMultipartWriter(w io.Writer) multipartWriter {
	return multipartWriter{multipart.NewWriter(w)}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func (mw multipartWriter) writeValue(name, filename string, value any) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return mw.writeFile(name, filename, v)
	case io.Reader:
		data, err := io.ReadAll(v)
		if err != nil {
			return fmt.Errorf("cosmic: read multipart file %q: %w", name, err)
		}
		return mw.writeFile(name, filename, data)
	}
	text := stringify(value)
	if _, ok := asObject(value); ok {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("cosmic: encode multipart field %q: %w", name, err)
		}
		text = string(data)
	}
	if err := mw.WriteField(name, text); err != nil {
		return fmt.Errorf("cosmic: encode multipart field %q: %w", name, err)
	}
	return nil
}

func (mw multipartWriter) writeFile(name, filename string, data []byte) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(name), quoteEscaper.Replace(filename)))
	h.Set(headerContentType, mimetype.Detect(data).String())
	w, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("cosmic: encode multipart file %q: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("cosmic: encode multipart file %q: %w", name, err)
	}
	return nil
}
