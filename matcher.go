package cosmic

// matchResponse picks the definition describing a response. A single
// definition always matches; otherwise the first exact (content type,
// status) match wins.
func matchResponse(defs []ResponseDefinition, status int, contentType string) (ResponseDefinition, bool) {
	if len(defs) == 1 {
		return defs[0], true
	}
	ct := ClassifyContentType(contentType)
	for _, d := range defs {
		if d.ContentType == ct && d.StatusCode == status {
			return d, true
		}
	}
	return ResponseDefinition{}, false
}

// matchError picks the typed error definition for a failure response.
func matchError(defs []ErrorDefinition, status int, contentType string) (ErrorDefinition, bool) {
	ct := ClassifyContentType(contentType)
	for _, d := range defs {
		if d.ContentType == ct && d.StatusCode == status && d.New != nil {
			return d, true
		}
	}
	return ErrorDefinition{}, false
}
