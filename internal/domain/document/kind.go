package document

// Kind is the content kind of a document.
type Kind string

// Document kinds form a small closed set.
const (
	KindTool   Kind = "tool"
	KindBlog   Kind = "blog"
	KindNews   Kind = "news"
	KindUpdate Kind = "update"
)

// IsValid reports whether k is a known document kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindTool, KindBlog, KindNews, KindUpdate:
		return true
	}
	return false
}

func (k Kind) String() string { return string(k) }
