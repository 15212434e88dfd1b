package muchmore

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// element is a minimal order-preserving XML tree node.
type element struct {
	name     string
	attrs    []xml.Attr
	children []*element
	text     strings.Builder
}

func (e *element) attr(name string) (string, bool) {
	for _, a := range e.attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (e *element) get(name string) string {
	v, _ := e.attr(name)
	return v
}

func (e *element) optional(name string) *string {
	v, ok := e.attr(name)
	if !ok {
		return nil
	}
	return &v
}

func (e *element) find(name string) *element {
	for _, c := range e.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

func (e *element) findAll(name string) []*element {
	var result []*element
	for _, c := range e.children {
		if c.name == name {
			result = append(result, c)
		}
	}
	return result
}

// passThrough accepts any declared charset: the text was decoded before parsing.
func passThrough(_ string, input io.Reader) (io.Reader, error) {
	return input, nil
}

func buildTree(r io.Reader) (*element, error) {
	d := xml.NewDecoder(r)
	d.CharsetReader = passThrough

	var root *element
	var stack []*element
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &element{name: t.Name.Local, attrs: t.Copy().Attr}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("more than one root element")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}
	return root, nil
}
