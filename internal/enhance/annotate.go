package enhance

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Category is a kind of section that can carry a call-out.
type Category int

const (
	CategoryVideo Category = iota + 1
	CategoryImages
	CategoryCode
	CategoryText
	CategoryAudio
)

var categoryNames = map[Category]string{
	CategoryVideo:  "video",
	CategoryImages: "images",
	CategoryCode:   "code",
	CategoryText:   "text",
	CategoryAudio:  "audio",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "unknown"
}

// rule maps a lower-case title prefix onto one or more categories.
type rule struct {
	prefix     string
	categories []Category
}

// legendMarkers open the section whose bullet list describes the categories.
var legendMarkers = []string{
	"чем отличаются категории",
	"how the categories differ",
}

// legendRules classify legend bullets. Evaluated in order, first match wins,
// so combined entries precede their single-category prefixes.
var legendRules = []rule{
	{"генераторы видео/изображений", []Category{CategoryVideo, CategoryImages}},
	{"video/image generators", []Category{CategoryVideo, CategoryImages}},
	{"генераторы видео", []Category{CategoryVideo}},
	{"video generators", []Category{CategoryVideo}},
	{"генераторы изображений", []Category{CategoryImages}},
	{"image generators", []Category{CategoryImages}},
	{"ассистенты для кода", []Category{CategoryCode}},
	{"coding assistants", []Category{CategoryCode}},
	{"чат-боты", []Category{CategoryText}},
	{"chatbots", []Category{CategoryText}},
	{"аудио", []Category{CategoryAudio}},
	{"audio", []Category{CategoryAudio}},
}

// titleRules pick the category of a top-level section. Evaluated in order.
var titleRules = []rule{
	{"генерация видео", []Category{CategoryVideo}},
	{"video generation", []Category{CategoryVideo}},
	{"генерация изображений", []Category{CategoryImages}},
	{"image generation", []Category{CategoryImages}},
	{"ассистенты для кода", []Category{CategoryCode}},
	{"coding assistants", []Category{CategoryCode}},
	{"чат-боты", []Category{CategoryText}},
	{"chatbots", []Category{CategoryText}},
	{"аудио", []Category{CategoryAudio}},
	{"audio", []Category{CategoryAudio}},
}

// fallbackDescriptions cover every category the legend does not describe.
var fallbackDescriptions = map[Category]string{
	CategoryVideo:  "Создают короткие видеоролики по текстовому описанию или изображению.",
	CategoryImages: "Генерируют и редактируют изображения по текстовому запросу.",
	CategoryCode:   "Помогают писать, объяснять и рефакторить код прямо в редакторе.",
	CategoryText:   "Отвечают на вопросы, пишут и редактируют тексты в формате диалога.",
	CategoryAudio:  "Синтезируют речь и музыку, расшифровывают аудиозаписи.",
}

const calloutClass = "callout"

func match(rules []rule, title string) []Category {
	lower := strings.ToLower(strings.TrimSpace(title))
	for _, r := range rules {
		if strings.HasPrefix(lower, r.prefix) {
			return r.categories
		}
	}
	return nil
}

func hasAnyPrefix(title string, prefixes []string) bool {
	lower := strings.ToLower(strings.TrimSpace(title))
	for _, p := range prefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// Annotate injects a call-out after every top-level heading whose title
// names a known category, then removes the legend section the descriptions
// were taken from. It returns the descriptions it resolved per category.
func Annotate(root *html.Node) map[Category]string {
	tops := headings(root, true)

	var legend, legendList *html.Node
	for _, h := range tops {
		if hasAnyPrefix(textContent(h), legendMarkers) {
			legend = h
			if next := nextElement(h); next != nil && next.DataAtom == atom.Ul {
				legendList = next
			}
			break
		}
	}

	descriptions := make(map[Category]string, len(fallbackDescriptions))
	if legendList != nil {
		for li := legendList.FirstChild; li != nil; li = li.NextSibling {
			if li.Type != html.ElementNode || li.DataAtom != atom.Li {
				continue
			}
			line := textContent(li)
			for _, c := range match(legendRules, line) {
				if _, ok := descriptions[c]; !ok {
					descriptions[c] = line
				}
			}
		}
	}
	for c, d := range fallbackDescriptions {
		if _, ok := descriptions[c]; !ok {
			descriptions[c] = d
		}
	}

	for _, h := range tops {
		if h == legend {
			continue
		}
		cats := match(titleRules, textContent(h))
		if len(cats) == 0 {
			continue
		}
		if next := nextElement(h); next != nil && next.DataAtom == atom.Blockquote && hasClass(next, calloutClass) {
			continue
		}
		insertAfter(h, callout(descriptions[cats[0]]))
	}

	if legend != nil {
		if legendList != nil {
			detach(legendList)
		}
		detach(legend)
	}
	return descriptions
}

func callout(description string) *html.Node {
	q := element(atom.Blockquote, html.Attribute{Key: "class", Val: calloutClass})
	p := element(atom.P)
	p.AppendChild(text(description))
	q.AppendChild(p)
	return q
}
