package service

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/kpcnc-co/seminar/internal/model"
	"github.com/kpcnc-co/seminar/internal/spreadsheet"
)

// ── 导入模块业务错误 ──

var ErrImportNoRecords = errors.New("가져올 세미나 데이터가 없습니다")

// ImportMode 导入方式
type ImportMode string

const (
	ImportSingle ImportMode = "single"
	ImportBatch  ImportMode = "batch"
)

// ImportFailure 单条记录导入失败的原因
type ImportFailure struct {
	Index    int    `json:"index"`
	Session  string `json:"session"`
	Datetime string `json:"datetime"`
	Reason   string `json:"reason"`
}

// ImportReport 导入结果统计
type ImportReport struct {
	Mode     ImportMode      `json:"mode"`
	Total    int             `json:"total"`
	Created  int             `json:"created"`
	Updated  int             `json:"updated"`
	Failed   int             `json:"failed"`
	Results  []UpsertOutcome `json:"results"`
	Failures []ImportFailure `json:"failures,omitempty"`
}

// ImportService 表格导入业务接口
type ImportService interface {
	// ImportFile 读取上传文件的第一张表，按单条或批量方式写入
	ImportFile(ctx context.Context, fileName string, r io.Reader) (*ImportReport, error)
}

type importService struct {
	seminar SeminarService
	codec   *spreadsheet.Codec
	maxRows int
	logger  *zap.Logger
}

// NewImportService 创建 ImportService 实例
func NewImportService(seminar SeminarService, codec *spreadsheet.Codec, maxRows int, logger *zap.Logger) ImportService {
	return &importService{seminar: seminar, codec: codec, maxRows: maxRows, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ImportFile
// ═══════════════════════════════════════════════════════════
//
// 判定规则：
//   - ProduceRecords 按分隔行拆分；0 条记录 → ErrImportNoRecords
//   - 恰好 1 条且含 회차 + 일시 → 单条
//   - 否则批量：逐条顺序写入，单条失败不中断

func (s *importService) ImportFile(ctx context.Context, fileName string, r io.Reader) (*ImportReport, error) {
	grid, err := spreadsheet.ReadFirstSheet(fileName, r, s.maxRows)
	if err != nil {
		return nil, err
	}

	records := s.codec.ProduceRecords(grid)
	if len(records) == 0 {
		return nil, ErrImportNoRecords
	}

	if len(records) == 1 && model.Keyed(records[0].Session, records[0].Datetime) {
		single := records[0]
		out, err := s.seminar.UpsertPlan(ctx, &single)
		if err != nil {
			return nil, err
		}
		report := &ImportReport{Mode: ImportSingle, Total: 1, Results: []UpsertOutcome{*out}}
		report.count(out.Action)
		s.logger.Info("单条导入完成",
			zap.String("file", fileName),
			zap.String("session", single.Session),
			zap.String("action", string(out.Action)),
		)
		return report, nil
	}

	report := &ImportReport{Mode: ImportBatch, Total: len(records), Results: []UpsertOutcome{}}
	for i := range records {
		rec := records[i]
		out, err := s.seminar.UpsertPlan(ctx, &rec)
		if err != nil {
			report.Failed++
			report.Failures = append(report.Failures, ImportFailure{
				Index:    i,
				Session:  rec.Session,
				Datetime: rec.Datetime,
				Reason:   err.Error(),
			})
			s.logger.Warn("批量导入单条失败", zap.Int("index", i), zap.String("session", rec.Session), zap.Error(err))
			continue
		}
		report.Results = append(report.Results, *out)
		report.count(out.Action)
	}

	s.logger.Info("批量导入完成",
		zap.String("file", fileName),
		zap.Int("total", report.Total),
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

func (r *ImportReport) count(a Action) {
	switch a {
	case ActionCreated:
		r.Created++
	case ActionUpdated:
		r.Updated++
	}
}
