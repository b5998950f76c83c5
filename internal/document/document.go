// Package document 构建与渲染器无关的文档模型，并将其输出为 PDF 或可打印 HTML。
package document

// Document 渲染就绪的文档：标题 + 顺序排列的内容块
type Document struct {
	Title    string
	Date     string // 标题下方右对齐的作成日期，可为空
	Blocks   []Block
	FileName string // 不含扩展名
}

// Block 内容块
type Block interface {
	Kind() string
}

// Heading 区段标题，如 "1. 목표"
type Heading struct {
	Text string
}

// Paragraph 多行正文，保留行首缩进
type Paragraph struct {
	Text string
}

// KeyValue 左侧标签 + 右侧内容
type KeyValue struct {
	Key   string
	Value string
}

// Align 单元格对齐
type Align string

const (
	AlignLeft   Align = "L"
	AlignCenter Align = "C"
)

// Cell 表格单元格。RowSpan > 1 为合并组的锚点；RowSpan == 0 表示被上方锚点覆盖，不单独绘制。
type Cell struct {
	Text    string
	RowSpan int
	Align   Align
}

// Table 表格。Widths 为各列相对宽度。
type Table struct {
	Header []string
	Rows   [][]Cell
	Widths []float64
}

// Image 附件图片。Source 为 data URL 或裸 base64。
type Image struct {
	Caption string
	Source  string
}

// PageBreak 分页
type PageBreak struct{}

// Closing 右对齐的结束语 "- 이 상 –"
type Closing struct {
	Text string
}

func (Heading) Kind() string   { return "heading" }
func (Paragraph) Kind() string { return "paragraph" }
func (KeyValue) Kind() string  { return "keyvalue" }
func (Table) Kind() string     { return "table" }
func (Image) Kind() string     { return "image" }
func (PageBreak) Kind() string { return "pagebreak" }
func (Closing) Kind() string   { return "closing" }

// Rendered 渲染结果
type Rendered struct {
	Body        []byte
	ContentType string
	FileName    string
	Fallback    bool // true 表示主渲染器不可用，输出的是打印版 HTML
}

// Renderer 将文档模型转换为二进制输出
type Renderer interface {
	Render(doc *Document) (*Rendered, error)
}
