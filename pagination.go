package cosmic

import (
	"context"
	"fmt"
	"iter"

	"github.com/cosmicbank/cosmic-go/internal/jsonpath"
)

// Page is one page of a paginated call.
type Page struct {
	// Items is the page content located by the pagination page path.
	Items any
	// NextCursor is the cursor for the following page; nil at the end and
	// always nil for offset pagination.
	NextCursor any
	Response   *Response
}

// GetPage locates the page content in a decoded response using the page
// path and parses it with the page schema. It fails when the path does not
// resolve.
func GetPage(req *Request, data any) (any, error) {
	if req.Pagination == nil {
		return nil, configErrorf("request has no pagination")
	}
	path := req.Pagination.pagePath()
	items, found, err := jsonpath.Lookup(unwrapHeaders(data), path)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("cosmic: page path %v not found in response", path)
	}
	if s := req.Pagination.pageSchema(); s != nil {
		return s.Parse(items)
	}
	return items, nil
}

// GetNextCursor locates the next cursor in a decoded response. A missing or
// null value anywhere along the cursor path means there are no more pages
// and yields nil.
func GetNextCursor(req *Request, data any) (any, error) {
	pg, ok := req.Pagination.(*CursorPagination)
	if !ok {
		return nil, configErrorf("request does not use cursor pagination")
	}
	cursor, found, err := jsonpath.Lookup(unwrapHeaders(data), pg.CursorPath)
	if err != nil || !found {
		return nil, err
	}
	if pg.CursorSchema != nil {
		return pg.CursorSchema.Parse(cursor)
	}
	return cursor, nil
}

func unwrapHeaders(data any) any {
	if wh, ok := data.(WithHeaders); ok {
		return wh.Data
	}
	return data
}

// Pages calls req and each following page in turn. Offset pagination stops
// after a page holding fewer than PageSize items; cursor pagination stops
// when the response carries no next cursor. req is not modified.
func Pages(ctx context.Context, c *Client, req *Request) iter.Seq2[*Page, error] {
	return func(yield func(*Page, error) bool) {
		if req.Pagination == nil {
			yield(nil, configErrorf("request has no pagination"))
			return
		}
		role := RoleCursor
		if pg, ok := req.Pagination.(*OffsetPagination); ok {
			if pg.PageSize <= 0 {
				yield(nil, configErrorf("offset pagination requires a page size"))
				return
			}
			role = RoleOffset
		}
		if !req.hasRole(role) {
			yield(nil, configErrorf("no parameter is marked as the %s", role))
			return
		}

		cur := req.Copy()
		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			resp, err := c.Call(ctx, cur)
			if err != nil {
				yield(nil, err)
				return
			}
			items, err := GetPage(cur, resp.Data)
			if err != nil {
				yield(nil, err)
				return
			}
			page := &Page{Items: items, Response: resp}

			var cursor any
			switch pg := cur.Pagination.(type) {
			case *OffsetPagination:
				if n, ok := asList(deref(items)); !ok || len(n) < pg.PageSize {
					yield(page, nil)
					return
				}
			case *CursorPagination:
				if cursor, err = GetNextCursor(cur, resp.Data); err != nil {
					yield(nil, err)
					return
				}
				page.NextCursor = cursor
				if isUnset(cursor) {
					yield(page, nil)
					return
				}
			}
			if !yield(page, nil) {
				return
			}

			cur = cur.Copy()
			if err := cur.NextPage(cursor); err != nil {
				yield(nil, err)
				return
			}
		}
	}
}
