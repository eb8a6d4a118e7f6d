package model

import (
	"fmt"
	"strings"
)

// Variant identifies the page layout a section is extracted with.
type Variant int

const (
	Carousel Variant = iota + 1
	Accordion
	List
	Tenders
)

// Variants lists every known variant in detection priority order.
var Variants = []Variant{Carousel, Accordion, Tenders, List}

func (v Variant) String() string {
	switch v {
	case Carousel:
		return "carousel"
	case Accordion:
		return "accordion"
	case List:
		return "list"
	case Tenders:
		return "tenders"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

func (v Variant) Valid() bool {
	return v >= Carousel && v <= Tenders
}

// ParseVariant maps a stored parser tag back to a Variant. The legacy tag
// "students" is the old name of the generic list layout.
func ParseVariant(tag string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "carousel":
		return Carousel, nil
	case "accordion":
		return Accordion, nil
	case "list", "students":
		return List, nil
	case "tenders":
		return Tenders, nil
	}
	return 0, fmt.Errorf("unknown variant %q", tag)
}

func (v Variant) MarshalText() ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("invalid variant %d", int(v))
	}
	return []byte(v.String()), nil
}

func (v *Variant) UnmarshalText(text []byte) error {
	parsed, err := ParseVariant(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
