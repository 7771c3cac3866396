package adb

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/botts7/visual-mapper-sub000/pkg/core"
)

// ParseHierarchy parses an Android UI hierarchy XML document into a flat
// element list in document order. Both dump formats are handled: plain
// uiautomator output uses the class name as the element tag, Appium-style
// output uses <node> with a class attribute.
func ParseHierarchy(xmlData string) ([]core.Element, error) {
	decoder := xml.NewDecoder(strings.NewReader(xmlData))

	var elements []core.Element
	foundHierarchy := false

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			if len(elements) > 0 {
				break
			}
			return nil, fmt.Errorf("parse hierarchy: %w", err)
		}

		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local == "hierarchy" {
			foundHierarchy = true
			continue
		}

		e := elementFromNode(start)
		if e.Bounds.Width <= 0 || e.Bounds.Height <= 0 {
			continue
		}
		elements = append(elements, e)
	}

	if !foundHierarchy {
		return nil, fmt.Errorf("invalid page source: no hierarchy element found")
	}
	return elements, nil
}

func elementFromNode(start xml.StartElement) core.Element {
	e := core.Element{
		ClassName: start.Name.Local,
		Visible:   true,
	}
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "text":
			e.Text = attr.Value
		case "resource-id":
			e.ResourceID = attr.Value
		case "content-desc":
			e.ContentDesc = attr.Value
		case "class":
			if attr.Value != "" {
				e.ClassName = attr.Value
			}
		case "bounds":
			e.Bounds = parseBounds(attr.Value)
		case "clickable":
			e.Clickable = attr.Value == "true"
		case "enabled":
			e.Enabled = attr.Value == "true"
		case "focused":
			e.Focused = attr.Value == "true"
		case "scrollable":
			e.Scrollable = attr.Value == "true"
		case "displayed":
			e.Visible = attr.Value != "false"
		}
	}
	return e
}

// parseBounds parses the Android bounds attribute "[x1,y1][x2,y2]".
func parseBounds(s string) core.Bounds {
	s = strings.ReplaceAll(s, "][", ",")
	s = strings.Trim(s, "[]")
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return core.Bounds{}
	}

	x1, _ := strconv.Atoi(parts[0])
	y1, _ := strconv.Atoi(parts[1])
	x2, _ := strconv.Atoi(parts[2])
	y2, _ := strconv.Atoi(parts[3])

	return core.Bounds{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}
