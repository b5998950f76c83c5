package spreadsheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	apperrors "github.com/kpcnc-co/seminar/pkg/errors"
)

// 接受的上传扩展名
const (
	ExtXLSX = ".xlsx"
	ExtXLS  = ".xls"
)

// CheckExtension 仅接受 .xlsx/.xls，其他扩展名在读取内容前即被拒绝
func CheckExtension(fileName string) error {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ExtXLSX, ExtXLS:
		return nil
	}
	return &apperrors.ImportFormatError{FileName: fileName}
}

// ReadFirstSheet 读取上传文件的第一张工作表。maxRows 为 0 表示不限制。
func ReadFirstSheet(fileName string, r io.Reader, maxRows int) (Grid, error) {
	if err := CheckExtension(fileName); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("读取上传文件失败: %w", err)
	}

	var rows [][]string
	if strings.ToLower(filepath.Ext(fileName)) == ExtXLS {
		rows, err = readXLS(data, maxRows)
	} else {
		rows, err = readXLSX(data)
	}
	if err != nil {
		return nil, apperrors.NewValidation("file", fmt.Sprintf("엑셀 파일을 읽을 수 없습니다: %v", err))
	}
	if maxRows > 0 && len(rows) > maxRows {
		return nil, apperrors.NewValidation("file", fmt.Sprintf("행 수가 너무 많습니다 (최대 %d행)", maxRows))
	}
	return StringGrid(rows), nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no worksheet found")
	}
	return f.GetRows(sheetName)
}

func readXLS(data []byte, maxRows int) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("no worksheet found")
	}

	var rows [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		// 多读一行即可判断超限
		if maxRows > 0 && len(rows) > maxRows {
			break
		}
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, []string{})
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for j := 0; j < row.LastCol(); j++ {
			if j < row.FirstCol() {
				cells = append(cells, "")
				continue
			}
			cells = append(cells, row.Col(j))
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// ── 写出 ──

// ErrNoSheets 调用 WriteWorkbook 时未给出任何工作表
var ErrNoSheets = errors.New("工作簿至少需要一张表")

// Sheet 工作簿中的一张表
type Sheet struct {
	Name string
	Rows Grid
}

// WriteWorkbook 生成 .xlsx。标题、区段标记与表头行加粗。
func (c *Codec) WriteWorkbook(sheets []Sheet) (*bytes.Buffer, error) {
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	f := excelize.NewFile()
	defer f.Close()

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	if err != nil {
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}
	sectionStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
	})
	if err != nil {
		return nil, err
	}

	for _, sh := range sheets {
		if _, err := f.NewSheet(sh.Name); err != nil {
			return nil, fmt.Errorf("创建工作表 %s 失败: %w", sh.Name, err)
		}

		_ = f.SetColWidth(sh.Name, "A", "A", 14)
		_ = f.SetColWidth(sh.Name, "B", "B", 40)
		_ = f.SetColWidth(sh.Name, "C", "F", 16)

		for r, row := range sh.Rows {
			if len(row) == 0 {
				continue
			}
			cellName, _ := excelize.CoordinatesToCellName(1, r+1)
			values := []interface{}(row)
			if err := f.SetSheetRow(sh.Name, cellName, &values); err != nil {
				return nil, fmt.Errorf("写入工作表 %s 第 %d 行失败: %w", sh.Name, r+1, err)
			}

			var style int
			switch c.rowKind(row) {
			case rowTitle:
				style = titleStyle
			case rowSection:
				style = sectionStyle
			case rowHeader:
				style = headerStyle
			default:
				continue
			}
			lastCell, _ := excelize.CoordinatesToCellName(len(row), r+1)
			_ = f.SetCellStyle(sh.Name, cellName, lastCell, style)
		}
	}

	// 删除默认 Sheet1
	if idx, err := f.GetSheetIndex("Sheet1"); err == nil && idx >= 0 && sheets[0].Name != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}
	if idx, err := f.GetSheetIndex(sheets[0].Name); err == nil {
		f.SetActiveSheet(idx)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

type rowKind int

const (
	rowPlain rowKind = iota
	rowTitle
	rowSection
	rowHeader
)

func (c *Codec) rowKind(row Row) rowKind {
	first := cellAt(row, 0)
	switch {
	case first == c.m.Title, first == c.m.SummaryTitle:
		return rowTitle
	case first == c.m.Basic, first == c.m.TimeSchedule, first == c.m.AttendeeList:
		return rowSection
	case len(row) > 1 && (first == c.m.timeHeaderCell() ||
		first == c.m.attendeeHeaderCell() ||
		(len(c.m.SummaryHeader) > 1 && first == c.m.SummaryHeader[0] && cellAt(row, 1) == c.m.SummaryHeader[1])):
		return rowHeader
	}
	return rowPlain
}
