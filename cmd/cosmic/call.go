package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	cosmic "github.com/cosmicbank/cosmic-go"
)

// CallCmd sends an arbitrary request. Path parameters fill {name} tokens in
// the path; the response is decoded according to its content type and
// printed as JSON.
type CallCmd struct {
	Method string            `arg:"" help:"HTTP method." enum:"GET,HEAD,POST,PUT,PATCH,DELETE,OPTIONS"`
	Path   string            `arg:"" help:"Path pattern, e.g. /accounts/{accountId}."`
	Params map[string]string `help:"Path parameter (repeatable)." name:"path" short:"p"`
	Query  map[string]string `help:"Query parameter (repeatable)." short:"q"`
	Header map[string]string `help:"Header (repeatable)." short:"H"`
	Cookie map[string]string `help:"Cookie (repeatable)."`
	Data   string            `help:"JSON request body; @file reads it from a file, @- from stdin." short:"d"`
	Form   bool              `help:"Send the body form-urlencoded instead of JSON."`
}

func (c *CallCmd) Run(g *Globals) error {
	client, err := g.client()
	if err != nil {
		return err
	}

	b := cosmic.NewRequestBuilder().
		SetConfig(client.Options()...).
		SetBaseURL(client.Config()).
		SetMethod(strings.ToUpper(c.Method)).
		SetPath(c.Path).
		AddAccessTokenAuth(client.Config().AccessToken, "")
	for _, k := range slices.Sorted(maps.Keys(c.Params)) {
		b.AddPathParam(k, c.Params[k])
	}
	for _, k := range slices.Sorted(maps.Keys(c.Query)) {
		b.AddQueryParam(k, c.Query[k])
	}
	for _, k := range slices.Sorted(maps.Keys(c.Header)) {
		b.AddHeaderParam(k, c.Header[k])
	}
	for _, k := range slices.Sorted(maps.Keys(c.Cookie)) {
		b.AddCookieParam(k, c.Cookie[k])
	}
	if c.Data != "" {
		body, err := readBody(c.Data)
		if err != nil {
			return err
		}
		b.AddBody(body)
	}
	if c.Form {
		b.SetRequestContentType(cosmic.ContentTypeFormURLEncoded)
	}

	// A catch-all definition: whatever comes back is decoded by content type.
	req := b.AddResponse(cosmic.ResponseDefinition{Schema: cosmic.Any}).Build()
	resp, err := client.Call(context.Background(), req)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%d %s\n", resp.Metadata.Status, resp.Metadata.StatusText)
	return printJSON(resp.Data)
}

// readBody decodes the --data argument.
func readBody(arg string) (any, error) {
	data := []byte(arg)
	if name, ok := strings.CutPrefix(arg, "@"); ok {
		var err error
		if name == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(name)
		}
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
	}
	var body any
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("body is not valid JSON: %w", err)
	}
	return body, nil
}

func printJSON(v any) error {
	if b, ok := v.([]byte); ok {
		_, err := os.Stdout.Write(b)
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
