package content

import "regexp"

// ConversionKind tags which document-conversion pipeline produced a source.
type ConversionKind string

const (
	ConversionDynamic ConversionKind = "dynamic"
	ConversionStatic  ConversionKind = "static"
)

// ConversionTask identifies a pending slide-conversion job extracted from a
// scene's rendering source.
type ConversionTask struct {
	Kind   ConversionKind
	TaskID string
	URL    string
}

// A pending conversion source looks like
//
//	pptx://cdn.example.com/prefix/dynamicConvert/TASK123/1.slide
//
// scheme (pptx = dynamic, ppt = static), then the conversion base path,
// then the task identifier, then a per-page sequence segment.
var conversionSrcRE = regexp.MustCompile(`^(pptx?)://(.+)/([^/]+)/([^/]+)$`)

// ParseConversionSource reports whether src is a pending conversion source
// and, if so, the task id and the https base URL reconstructed from the
// matched prefix.
func ParseConversionSource(src string) (ConversionTask, bool) {
	m := conversionSrcRE.FindStringSubmatch(src)
	if m == nil {
		return ConversionTask{}, false
	}

	kind := ConversionStatic
	if m[1] == "pptx" {
		kind = ConversionDynamic
	}

	return ConversionTask{
		Kind:   kind,
		TaskID: m[3],
		URL:    "https://" + m[2],
	}, true
}
