package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
	MinLimit     = 1

	// ClaimPageSize is the fixed window for claim listings.
	ClaimPageSize = 15

	// pageSpread is how many page links are offered either side of the current page.
	pageSpread = 2
)

// Params holds validated pagination parameters
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// Parse extracts and validates page/limit from query parameters
func Parse(c *gin.Context) Params {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(DefaultPage)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))

	if page < 1 {
		page = DefaultPage
	}
	if limit < MinLimit {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// Page describes one window of an ordered collection. RangeMin and RangeMax
// are the 1-indexed inclusive ranks shown on the page; both are 0 when the
// collection is empty.
type Page struct {
	Number      int   `json:"page"`
	Size        int   `json:"page_size"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
	RangeMin    int   `json:"range_min"`
	RangeMax    int   `json:"range_max"`
	PageNumbers []int `json:"page_numbers"`
	ShowNewest  bool  `json:"show_newest"`
	ShowOldest  bool  `json:"show_oldest"`

	// RedirectTo is set when the requested page is out of range; the caller
	// should send the client there instead of rendering.
	RedirectTo int `json:"-"`
}

// NeedsRedirect reports whether the requested page must be corrected.
func (p Page) NeedsRedirect() bool {
	return p.RedirectTo != 0
}

// Window computes the page for a collection of total items. Out-of-range
// requests never fail: they come back with RedirectTo set to page-1 when that
// is a valid page, or to page 1 otherwise.
func Window(total int64, page, size int) Page {
	if size < 1 {
		size = ClaimPageSize
	}
	lastPage := int((total + int64(size) - 1) / int64(size))

	p := Page{Number: page, Size: size, Total: total, LastPage: lastPage}

	if total == 0 {
		if page != 1 {
			p.RedirectTo = 1
		}
		p.PageNumbers = []int{}
		return p
	}
	if page < 1 || page > lastPage {
		if prev := page - 1; prev >= 1 && prev <= lastPage {
			p.RedirectTo = prev
		} else {
			p.RedirectTo = 1
		}
		return p
	}

	p.RangeMin = (page-1)*size + 1
	p.RangeMax = page * size
	if int64(p.RangeMax) > total {
		p.RangeMax = int(total)
	}

	first := max(1, page-pageSpread)
	last := min(lastPage, page+pageSpread)
	p.PageNumbers = make([]int, 0, last-first+1)
	for n := first; n <= last; n++ {
		p.PageNumbers = append(p.PageNumbers, n)
	}
	p.ShowNewest = first > 1
	p.ShowOldest = last < lastPage
	return p
}
