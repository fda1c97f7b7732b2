// Package pagination splits ordered result sets into numbered pages.
//
// The rules follow the page-number paginator used by the category pages: a
// page may absorb up to Orphans trailing items instead of leaving them on a
// short last page, an empty result set still has one (empty) first page when
// AllowEmptyFirstPage is set, and the page parameter accepts "last".
package pagination

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultPerPage = 25
	PageParam      = "page"
	LastPage       = "last"
)

var (
	// ErrInvalidPage is the parent of every pagination error.
	ErrInvalidPage = errors.New("invalid page")
	// ErrPageNotAnInteger is returned when the page parameter is neither an
	// integer nor "last".
	ErrPageNotAnInteger = fmt.Errorf("%w: page is not “last”, nor can it be converted to an int", ErrInvalidPage)
	// ErrEmptyPage is returned for page numbers outside the valid range.
	ErrEmptyPage = fmt.Errorf("%w: empty page", ErrInvalidPage)
)

// Paginator describes how a result set of Count items is split.
type Paginator struct {
	Count               int
	PerPage             int
	Orphans             int
	AllowEmptyFirstPage bool
}

// New returns a paginator with the default page size and orphans of 0 that
// allows an empty first page.
func New(count, perPage int) Paginator {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	return Paginator{Count: count, PerPage: perPage, AllowEmptyFirstPage: true}
}

// NumPages returns the total number of pages.
func (p Paginator) NumPages() int {
	if p.Count == 0 && !p.AllowEmptyFirstPage {
		return 0
	}
	hits := max(1, p.Count-p.Orphans)
	return (hits + p.PerPage - 1) / p.PerPage
}

// ParsePage converts a raw page parameter into a page number. An empty value
// means the first page.
func (p Paginator) ParsePage(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, nil
	}
	if raw == LastPage {
		return p.NumPages(), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, ErrPageNotAnInteger
	}
	return n, nil
}

func (p Paginator) validate(number int) error {
	if number < 1 {
		return fmt.Errorf("%w (%d): that page number is less than 1", ErrEmptyPage, number)
	}
	if number > p.NumPages() {
		if number == 1 && p.AllowEmptyFirstPage {
			return nil
		}
		return fmt.Errorf("%w (%d): that page contains no results", ErrEmptyPage, number)
	}
	return nil
}

// Page returns the bounds of page number.
func (p Paginator) Page(number int) (Page, error) {
	if err := p.validate(number); err != nil {
		return Page{}, err
	}

	bottom := (number - 1) * p.PerPage
	top := bottom + p.PerPage
	if top+p.Orphans >= p.Count {
		top = p.Count
	}
	if top < bottom {
		top = bottom
	}

	return Page{
		Number:   number,
		NumPages: p.NumPages(),
		Count:    p.Count,
		Offset:   bottom,
		Limit:    top - bottom,
	}, nil
}

// Resolve parses raw and returns the matching page.
func (p Paginator) Resolve(raw string) (Page, error) {
	n, err := p.ParsePage(raw)
	if err != nil {
		return Page{}, err
	}
	return p.Page(n)
}

// Page is one page of a paginated result set.
type Page struct {
	Number   int
	NumPages int
	Count    int
	// Offset and Limit select the page's rows from the ordered result set.
	Offset int
	Limit  int
}

func (pg Page) HasNext() bool {
	return pg.Number < pg.NumPages
}

func (pg Page) HasPrevious() bool {
	return pg.Number > 1
}

func (pg Page) HasOtherPages() bool {
	return pg.HasNext() || pg.HasPrevious()
}

func (pg Page) NextNumber() int {
	if !pg.HasNext() {
		return 0
	}
	return pg.Number + 1
}

func (pg Page) PreviousNumber() int {
	if !pg.HasPrevious() {
		return 0
	}
	return pg.Number - 1
}

// StartIndex is the 1-based index of the first item on the page, 0 when the
// result set is empty.
func (pg Page) StartIndex() int {
	if pg.Count == 0 {
		return 0
	}
	return pg.Offset + 1
}

// EndIndex is the 1-based index of the last item on the page.
func (pg Page) EndIndex() int {
	return pg.Offset + pg.Limit
}

// Numbers lists every page number, for rendering page links.
func (pg Page) Numbers() []int {
	nums := make([]int, pg.NumPages)
	for i := range nums {
		nums[i] = i + 1
	}
	return nums
}
