package document

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	apperrors "github.com/kpcnc-co/seminar/pkg/errors"
)

// A4 版心边距（mm）
const (
	marginSide   = 14.0
	marginTop    = 21.0
	marginBottom = 21.0
	lineHeight   = 6.0
	cellPadding  = 1.5
)

// PDFRenderer 基于 fpdf 的主渲染器，依赖可嵌入的 UTF-8 字体（韩文字形）
type PDFRenderer struct {
	fontPath   string
	family     string
	imageWidth float64
	logger     *zap.Logger

	mu   sync.Mutex
	font []byte
}

// NewPDFRenderer 创建 PDF 渲染器。imageWidthMM <= 0 时使用 140mm。
func NewPDFRenderer(fontPath, family string, imageWidthMM float64, logger *zap.Logger) *PDFRenderer {
	if imageWidthMM <= 0 {
		imageWidthMM = 140
	}
	if family == "" {
		family = "Korean"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PDFRenderer{fontPath: fontPath, family: family, imageWidth: imageWidthMM, logger: logger}
}

// Available 字体文件可读即视为可用；读取成功后缓存
func (r *PDFRenderer) Available() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.font != nil {
		return true
	}
	data, err := os.ReadFile(r.fontPath)
	if err != nil || len(data) == 0 {
		return false
	}
	r.font = data
	return true
}

func (r *PDFRenderer) fontBytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.font
}

// Render 生成 A4 PDF，页脚居中显示 "- n -"
func (r *PDFRenderer) Render(doc *Document) (*Rendered, error) {
	if !r.Available() {
		return nil, apperrors.ErrRendererUnavailable
	}
	font := r.fontBytes()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddUTF8FontFromBytes(r.family, "", font)
	pdf.AddUTF8FontFromBytes(r.family, "B", font)
	pdf.SetMargins(marginSide, marginTop, marginSide)
	pdf.SetAutoPageBreak(true, marginBottom)
	pdf.SetTitle(doc.Title, true)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(r.family, "", 10)
		pdf.CellFormat(0, 10, fmt.Sprintf("- %d -", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	w := &pdfWriter{pdf: pdf, family: r.family, imageWidth: r.imageWidth, logger: r.logger}
	w.title(doc)
	for i, b := range doc.Blocks {
		switch v := b.(type) {
		case Heading:
			w.heading(v)
		case Paragraph:
			w.paragraph(v)
		case KeyValue:
			w.keyValue(v)
		case Table:
			w.table(v)
		case Image:
			w.image(v, i)
		case PageBreak:
			pdf.AddPage()
		case Closing:
			w.closing(v)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("生成 PDF 失败: %w", err)
	}
	return &Rendered{
		Body:        buf.Bytes(),
		ContentType: "application/pdf",
		FileName:    doc.FileName + ".pdf",
	}, nil
}

// ── 绘制 ──

type pdfWriter struct {
	pdf        *fpdf.Fpdf
	family     string
	imageWidth float64
	logger     *zap.Logger
}

func (w *pdfWriter) title(doc *Document) {
	w.pdf.AddPage()
	w.pdf.SetFont(w.family, "B", 18)
	w.pdf.MultiCell(0, 9, doc.Title, "", "C", false)
	if doc.Date != "" {
		w.pdf.SetFont(w.family, "", 10)
		w.pdf.CellFormat(0, lineHeight, doc.Date, "", 1, "R", false, 0, "")
	}
	w.pdf.Ln(6)
}

func (w *pdfWriter) heading(h Heading) {
	w.pdf.SetFont(w.family, "B", 14)
	w.pdf.SetTextColor(0x2c, 0x3e, 0x50)
	w.pdf.MultiCell(0, 8, h.Text, "", "L", false)
	w.pdf.SetTextColor(0, 0, 0)
	w.pdf.Ln(1)
}

func (w *pdfWriter) paragraph(p Paragraph) {
	w.pdf.SetFont(w.family, "", 10)
	w.pdf.MultiCell(0, lineHeight, p.Text, "", "L", false)
	w.pdf.Ln(3)
}

func (w *pdfWriter) keyValue(kv KeyValue) {
	w.pdf.SetFont(w.family, "B", 10)
	kw := w.pdf.GetStringWidth(kv.Key) + 2
	w.pdf.CellFormat(kw, lineHeight, kv.Key, "", 0, "L", false, 0, "")
	w.pdf.SetFont(w.family, "", 10)
	w.pdf.MultiCell(0, lineHeight, kv.Value, "", "L", false)
	w.pdf.Ln(1)
}

func (w *pdfWriter) closing(c Closing) {
	w.pdf.Ln(2)
	w.pdf.SetFont(w.family, "", 10)
	w.pdf.CellFormat(0, lineHeight, c.Text, "", 1, "R", false, 0, "")
}

// table 手工绘制以支持纵向合并单元格；同一合并组不跨页
func (w *pdfWriter) table(t Table) {
	pageW, pageH := w.pdf.GetPageSize()
	left, _, right, bottom := w.pdf.GetMargins()
	usable := pageW - left - right
	limit := pageH - bottom

	var total float64
	for _, x := range t.Widths {
		total += x
	}
	widths := make([]float64, len(t.Widths))
	for i, x := range t.Widths {
		widths[i] = usable * x / total
	}

	w.pdf.SetFont(w.family, "", 9)
	heights := w.rowHeights(t.Rows, widths)

	auto, autoMargin := w.pdf.GetAutoPageBreak()
	w.pdf.SetAutoPageBreak(false, autoMargin)
	defer w.pdf.SetAutoPageBreak(auto, autoMargin)

	w.tableHeader(t.Header, widths)
	for start := 0; start < len(t.Rows); {
		end := groupEnd(t.Rows, start)
		var groupH float64
		for i := start; i < end; i++ {
			groupH += heights[i]
		}
		if w.pdf.GetY()+groupH > limit {
			w.pdf.AddPage()
			w.tableHeader(t.Header, widths)
		}

		w.pdf.SetFont(w.family, "", 9)
		for i := start; i < end; i++ {
			y := w.pdf.GetY()
			x := left
			for c, cell := range t.Rows[i] {
				if c >= len(widths) {
					break
				}
				if cell.RowSpan > 0 {
					h := heights[i]
					for k := 1; k < cell.RowSpan && i+k < len(heights); k++ {
						h += heights[i+k]
					}
					w.drawCell(x, y, widths[c], h, cell)
				}
				x += widths[c]
			}
			w.pdf.SetXY(left, y+heights[i])
		}
		start = end
	}
	w.pdf.Ln(2)
}

func (w *pdfWriter) tableHeader(header []string, widths []float64) {
	w.pdf.SetFont(w.family, "B", 10)
	w.pdf.SetFillColor(0xec, 0xf0, 0xf1)
	for i, h := range header {
		if i >= len(widths) {
			break
		}
		w.pdf.CellFormat(widths[i], lineHeight+2, h, "1", 0, "C", true, 0, "")
	}
	w.pdf.Ln(-1)
}

func (w *pdfWriter) drawCell(x, y, width, height float64, cell Cell) {
	w.pdf.Rect(x, y, width, height, "D")
	align := string(cell.Align)
	if align == "" {
		align = string(AlignLeft)
	}
	for i, line := range w.wrap(cell.Text, width-2*cellPadding) {
		w.pdf.SetXY(x+cellPadding, y+cellPadding+float64(i)*lineHeight)
		w.pdf.CellFormat(width-2*cellPadding, lineHeight, line, "", 0, align, false, 0, "")
	}
}

// rowHeights 按非合并单元格计算各行高度；锚点所需高度不足时补到组内最后一行
func (w *pdfWriter) rowHeights(rows [][]Cell, widths []float64) []float64 {
	heights := make([]float64, len(rows))
	need := func(c Cell, col int) float64 {
		n := len(w.wrap(c.Text, widths[col]-2*cellPadding))
		if n == 0 {
			n = 1
		}
		return float64(n)*lineHeight + 2*cellPadding
	}
	for i, row := range rows {
		heights[i] = lineHeight + 2*cellPadding
		for c, cell := range row {
			if c >= len(widths) || cell.RowSpan != 1 {
				continue
			}
			if h := need(cell, c); h > heights[i] {
				heights[i] = h
			}
		}
	}
	for i, row := range rows {
		for c, cell := range row {
			if c >= len(widths) || cell.RowSpan <= 1 {
				continue
			}
			last := min(i+cell.RowSpan, len(rows)) - 1
			var sum float64
			for k := i; k <= last; k++ {
				sum += heights[k]
			}
			if h := need(cell, c); h > sum {
				heights[last] += h - sum
			}
		}
	}
	return heights
}

// groupEnd 返回从 start 开始、被合并单元格连在一起的行区间终点（不含）
func groupEnd(rows [][]Cell, start int) int {
	end := start + 1
	for i := start; i < end && i < len(rows); i++ {
		for _, cell := range rows[i] {
			if e := i + cell.RowSpan; e > end {
				end = e
			}
		}
	}
	return min(end, len(rows))
}

// wrap 按当前字体把文本折成不超过 width 的行，优先在空格处断开
func (w *pdfWriter) wrap(text string, width float64) []string {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		runes := []rune(para)
		if len(runes) == 0 {
			out = append(out, "")
			continue
		}
		for start := 0; start < len(runes); {
			end, lastSpace := start, -1
			for end < len(runes) && w.pdf.GetStringWidth(string(runes[start:end+1])) <= width {
				if runes[end] == ' ' {
					lastSpace = end
				}
				end++
			}
			if end == len(runes) {
				out = append(out, string(runes[start:]))
				break
			}
			switch {
			case end == start:
				end = start + 1
			case lastSpace > start:
				end = lastSpace + 1
			}
			out = append(out, strings.TrimRight(string(runes[start:end]), " "))
			start = end
		}
	}
	return out
}

func (w *pdfWriter) image(img Image, idx int) {
	pageW, pageH := w.pdf.GetPageSize()
	_, _, _, bottom := w.pdf.GetMargins()

	w.pdf.SetFont(w.family, "B", 11)
	w.pdf.MultiCell(0, 7, img.Caption, "", "L", false)

	data, ratio, err := prepareImage(img.Source)
	if err != nil {
		w.logger.Warn("图片无法嵌入 PDF", zap.String("caption", img.Caption), zap.Error(err))
		w.pdf.SetFont(w.family, "", 9)
		w.pdf.MultiCell(0, lineHeight, "(이미지를 표시할 수 없습니다)", "", "L", false)
		w.pdf.Ln(4)
		return
	}

	width := w.imageWidth
	height := width * ratio
	if maxH := pageH - marginTop - bottom - 10; height > maxH {
		height = maxH
		width = height / ratio
	}
	if w.pdf.GetY()+height > pageH-bottom {
		w.pdf.AddPage()
	}

	name := fmt.Sprintf("sketch-%d", idx)
	opts := fpdf.ImageOptions{ImageType: "JPG"}
	w.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	x := (pageW - width) / 2
	y := w.pdf.GetY()
	w.pdf.ImageOptions(name, x, y, width, height, false, opts, 0, "")
	w.pdf.SetY(y + height + 6)
}
