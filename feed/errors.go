package feed

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/scipunch/tvfeed/fetcher"
	"github.com/scipunch/tvfeed/fetcher/types"
)

// Semantic failure kinds shared by every fetch path. Match with errors.Is.
var (
	ErrTimeout = errors.New("feed timeout")
	ErrParse   = errors.New("feed parsing error")
	ErrFeed    = errors.New("feed error")
	ErrNetwork = errors.New("network error")
)

var (
	ErrNoCategory    = errors.New("no such category")
	ErrNoSubcategory = errors.New("no subcategory selected")
	ErrNoFeedURL     = errors.New("category has no feed URL")
)

// ErrorKind tags a failure with the fetch path it happened on.
type ErrorKind int

const (
	InitialFeedTimeout ErrorKind = iota
	InitialParsingError
	InitialFeedError
	InitialNetworkError

	CategoryFeedTimeout
	CategoryParsingError
	CategoryFeedError
	CategoryNetworkError

	SubcategoryTimeout
	SubcategoryParsingError
	SubcategoryError
	SubcategoryNetworkError
)

var kindNames = [...]string{
	InitialFeedTimeout:  "InitialFeedTimeout",
	InitialParsingError: "InitialParsingError",
	InitialFeedError:    "InitialFeedError",
	InitialNetworkError: "InitialNetworkError",

	CategoryFeedTimeout:  "CategoryFeedTimeout",
	CategoryParsingError: "CategoryParsingError",
	CategoryFeedError:    "CategoryFeedError",
	CategoryNetworkError: "CategoryNetworkError",

	SubcategoryTimeout:      "SubcategoryTimeout",
	SubcategoryParsingError: "SubcategoryParsingError",
	SubcategoryError:        "SubcategoryError",
	SubcategoryNetworkError: "SubcategoryNetworkError",
}

func (k ErrorKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
	return kindNames[k]
}

func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Semantic collapses the path-specific kind to one of ErrTimeout, ErrParse,
// ErrFeed or ErrNetwork.
func (k ErrorKind) Semantic() error {
	switch k % 4 {
	case 0:
		return ErrTimeout
	case 1:
		return ErrParse
	case 2:
		return ErrFeed
	default:
		return ErrNetwork
	}
}

type fetchPath int

const (
	pathInitial fetchPath = iota
	pathCategory
	pathSubcategory
)

func (p fetchPath) kind(failure types.FailureKind) ErrorKind {
	base := ErrorKind(int(p) * 4)
	switch failure {
	case types.FailureTimeout:
		return base
	case types.FailureParse:
		return base + 1
	case types.FailureStatus:
		return base + 2
	default:
		return base + 3
	}
}

// Error is a fetch failure that no cached payload could mask.
type Error struct {
	Kind  ErrorKind
	URL   string
	Err   error
	Stack []byte
}

func newError(p fetchPath, url string, err error) *Error {
	return &Error{
		Kind:  p.kind(fetcher.Classify(err)),
		URL:   url,
		Err:   err,
		Stack: debug.Stack(),
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == e.Kind.Semantic()
}
