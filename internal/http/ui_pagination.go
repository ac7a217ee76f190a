package httpx

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/target/dns-manager-ui/internal/http/ui/viewmodel"
)

const (
	defaultPageSize = 25
	maxPageSize     = 100
)

// pageOpts is the page a list view was asked for.
type pageOpts struct {
	Page     int
	PageSize int
}

// pageFromRequest reads page and page_size. Out-of-range values fall back to
// the first page and the default size.
func pageFromRequest(r *http.Request) pageOpts {
	p := pageOpts{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", defaultPageSize),
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 || p.PageSize > maxPageSize {
		p.PageSize = defaultPageSize
	}
	return p
}

// limitOffset asks for one row more than the page holds so the next page
// can be detected without a count query.
func (p pageOpts) limitOffset() (int, int) {
	return p.PageSize + 1, (p.Page - 1) * p.PageSize
}

// paginate fetches one page and fills the navigation metadata. The returned
// Pagination has prev/next URLs relative to r.
func paginate[T any](
	ctx context.Context,
	r *http.Request,
	p pageOpts,
	fetch func(ctx context.Context, limit, offset int) ([]T, error),
) ([]T, viewmodel.Pagination, error) {
	limit, offset := p.limitOffset()
	items, err := fetch(ctx, limit, offset)
	if err != nil {
		return nil, viewmodel.Pagination{}, err
	}

	pg := viewmodel.Pagination{Page: p.Page, PageSize: p.PageSize, HasPrev: p.Page > 1}
	if len(items) > p.PageSize {
		items = items[:p.PageSize]
		pg.HasNext = true
	}
	if len(items) > 0 {
		pg.StartIndex = offset + 1
		pg.EndIndex = offset + len(items)
	}
	if pg.HasPrev {
		pg.PrevURL = pageURL(r, pageOpts{Page: p.Page - 1, PageSize: p.PageSize})
	}
	if pg.HasNext {
		pg.NextURL = pageURL(r, pageOpts{Page: p.Page + 1, PageSize: p.PageSize})
	}
	return items, pg, nil
}

// pageURL rewrites the paging params of r's URL and drops blank and htmx-internal ones.
func pageURL(r *http.Request, p pageOpts) string {
	q := url.Values{}
	for k, vs := range r.URL.Query() {
		if strings.HasPrefix(k, "hx-") || strings.HasPrefix(k, "hx_") {
			continue
		}
		for _, v := range vs {
			if strings.TrimSpace(v) != "" {
				q.Add(k, v)
			}
		}
	}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("page_size", strconv.Itoa(p.PageSize))
	return r.URL.Path + "?" + q.Encode()
}
