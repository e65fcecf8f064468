package enhance

import "fmt"

// Messages holds the user-visible strings the pipeline emits.
type Messages struct {
	AnchorLabel string
	TOCTitle    string
	LoadFailed  string
}

var locales = map[string]Messages{
	"ru": {
		AnchorLabel: "Ссылка на раздел",
		TOCTitle:    "Оглавление",
		LoadFailed:  "Не удалось загрузить контент.",
	},
	"en": {
		AnchorLabel: "Link to this section",
		TOCTitle:    "Contents",
		LoadFailed:  "Failed to load content.",
	},
}

// DefaultLocale matches the language of the documents the viewer was built for.
const DefaultLocale = "ru"

// Locale returns the message set for name.
func Locale(name string) (Messages, error) {
	m, ok := locales[name]
	if !ok {
		return Messages{}, fmt.Errorf("unknown locale %q", name)
	}
	return m, nil
}
