package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kpcnc-co/seminar/internal/model"
	"github.com/kpcnc-co/seminar/internal/repository"
	"github.com/kpcnc-co/seminar/internal/spreadsheet"
	apperrors "github.com/kpcnc-co/seminar/pkg/errors"
)

// ── 测试辅助 ──

func setupTestImportService() (ImportService, SeminarService, *repository.Repository, *spreadsheet.Codec) {
	repo := repository.NewMemoryRepository()
	codec := spreadsheet.NewCodec(spreadsheet.DefaultMarkers())
	seminar := NewSeminarService(repo, nil, zap.NewNop())
	return NewImportService(seminar, codec, 5000, zap.NewNop()), seminar, repo, codec
}

func workbookBytes(t *testing.T, codec *spreadsheet.Codec, rows spreadsheet.Grid) []byte {
	t.Helper()
	buf, err := codec.WriteWorkbook([]spreadsheet.Sheet{{Name: "Data", Rows: rows}})
	if err != nil {
		t.Fatalf("生成工作簿失败: %v", err)
	}
	return buf.Bytes()
}

// ── ImportFile 测试 ──

func TestImportService_Single_CreatedThenUpdated(t *testing.T) {
	svc, _, repo, codec := setupTestImportService()
	ctx := context.Background()
	plan := newPlan("제 1회", "2025-08-10 14:00")
	data := workbookBytes(t, codec, codec.Serialize(plan))

	first, err := svc.ImportFile(ctx, "plan.xlsx", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("导入失败: %v", err)
	}
	if first.Mode != ImportSingle || first.Created != 1 {
		t.Errorf("期望单条新建，实际 %+v", first)
	}

	second, err := svc.ImportFile(ctx, "plan.xlsx", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("再次导入失败: %v", err)
	}
	if second.Updated != 1 || second.Results[0].ID != first.Results[0].ID {
		t.Errorf("期望覆盖同一记录，实际 %+v", second)
	}

	entries, _ := repo.Plan.List(ctx)
	if len(entries) != 1 {
		t.Fatalf("期望 1 条记录，实际 %d", len(entries))
	}
	if got := entries[0].Record.AttendeeList; len(got) != 2 || got[0].Attendance != "Y" {
		t.Errorf("参会名单未完整导入: %+v", got)
	}
}

func TestImportService_Batch(t *testing.T) {
	svc, seminar, repo, codec := setupTestImportService()
	ctx := context.Background()

	// 预先存在一条，导入时应被覆盖
	_, _ = seminar.UpsertPlan(ctx, newPlan("제 2회", "2025-02-01"))

	plans := []model.SeminarPlan{
		*newPlan("제 1회", "2025-01-01"),
		*newPlan("제 2회", "2025-02-01"),
		*newPlan("제 3회", "2025-03-01"),
	}
	report, err := svc.ImportFile(ctx, "all.xlsx", bytes.NewReader(workbookBytes(t, codec, codec.SerializeAll(plans))))
	if err != nil {
		t.Fatalf("批量导入失败: %v", err)
	}
	if report.Mode != ImportBatch || report.Total != 3 || report.Created != 2 || report.Updated != 1 || report.Failed != 0 {
		t.Errorf("统计不符: %+v", report)
	}
	entries, _ := repo.Plan.List(ctx)
	if len(entries) != 3 {
		t.Errorf("期望 3 条记录，实际 %d", len(entries))
	}
}

func TestImportService_Batch_ContinuesPastFailures(t *testing.T) {
	svc, _, repo, codec := setupTestImportService()
	ctx := context.Background()

	plans := []model.SeminarPlan{
		*newPlan("제 1회", "2025-01-01"),
		*newPlan("제 2회", ""), // 缺少일시：写入失败
		*newPlan("제 3회", "2025-03-01"),
	}
	report, err := svc.ImportFile(ctx, "all.xlsx", bytes.NewReader(workbookBytes(t, codec, codec.SerializeAll(plans))))
	if err != nil {
		t.Fatalf("批量导入失败: %v", err)
	}
	if report.Created != 2 || report.Failed != 1 {
		t.Errorf("统计不符: %+v", report)
	}
	if len(report.Failures) != 1 || report.Failures[0].Session != "제 2회" || report.Failures[0].Index != 1 {
		t.Errorf("失败明细不符: %+v", report.Failures)
	}
	entries, _ := repo.Plan.List(ctx)
	if len(entries) != 2 {
		t.Errorf("期望 2 条记录，实际 %d", len(entries))
	}
}

func TestImportService_TwoRecordsOneSeparatorIsBatch(t *testing.T) {
	svc, _, repo, codec := setupTestImportService()
	ctx := context.Background()

	// 无标题行，两条记录之间只有一个分隔行
	first := newPlan("제 1회", "2025-01-01")
	first.TimeSchedule = []model.TimeSlot{{Type: "발표", Content: "A"}}
	second := newPlan("제 2회", "2025-02-01")
	rows := spreadsheet.Grid{}
	rows = append(rows, codec.Serialize(first)[1:]...)
	rows = append(rows, spreadsheet.Row{strings.Repeat("=", 25)})
	rows = append(rows, codec.Serialize(second)[1:]...)

	report, err := svc.ImportFile(ctx, "two.xlsx", bytes.NewReader(workbookBytes(t, codec, rows)))
	if err != nil {
		t.Fatalf("导入失败: %v", err)
	}
	if report.Mode != ImportBatch || report.Total != 2 || report.Created != 2 {
		t.Errorf("期望批量新建 2 条，实际 %+v", report)
	}

	entries, _ := repo.Plan.List(ctx)
	if len(entries) != 2 {
		t.Fatalf("期望 2 条记录，实际 %d", len(entries))
	}
	for _, e := range entries {
		if e.Record.Session == "제 1회" && len(e.Record.TimeSchedule) != 1 {
			t.Errorf("第 1 条记录的时间计划不应与第 2 条合并: %+v", e.Record.TimeSchedule)
		}
		if len(e.Record.AttendeeList) != 2 {
			t.Errorf("参会名单不应跨记录拼接: %s 有 %d 人", e.Record.Session, len(e.Record.AttendeeList))
		}
	}
}

func TestImportService_SingleUnkeyedRecordReportsFailure(t *testing.T) {
	svc, _, repo, codec := setupTestImportService()

	data := workbookBytes(t, codec, codec.Serialize(newPlan("제 1회", "")))
	report, err := svc.ImportFile(context.Background(), "plan.xlsx", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("导入失败: %v", err)
	}
	if report.Mode != ImportBatch || report.Failed != 1 {
		t.Errorf("缺少일시的单条记录应作为失败项报告，实际 %+v", report)
	}
	entries, _ := repo.Plan.List(context.Background())
	if len(entries) != 0 {
		t.Errorf("不应写入记录")
	}
}

func TestImportService_NoRecords(t *testing.T) {
	svc, _, _, codec := setupTestImportService()
	data := workbookBytes(t, codec, spreadsheet.Grid{{"전사 신기술 세미나 실행계획"}, {"메모", "내용 없음"}})

	_, err := svc.ImportFile(context.Background(), "empty.xlsx", bytes.NewReader(data))
	if !errors.Is(err, ErrImportNoRecords) {
		t.Errorf("期望 ErrImportNoRecords，实际: %v", err)
	}
}

func TestImportService_RejectsExtension(t *testing.T) {
	svc, _, repo, _ := setupTestImportService()

	_, err := svc.ImportFile(context.Background(), "plan.csv", strings.NewReader("회차,제 1회"))
	if !apperrors.IsImportFormat(err) {
		t.Errorf("期望 ImportFormatError，实际: %v", err)
	}
	entries, _ := repo.Plan.List(context.Background())
	if len(entries) != 0 {
		t.Errorf("被拒绝的文件不应产生记录")
	}
}

func TestImportService_StorageFailureInSingleMode(t *testing.T) {
	codec := spreadsheet.NewCodec(spreadsheet.DefaultMarkers())
	seminar := NewSeminarService(newFailingRepo(), nil, zap.NewNop())
	svc := NewImportService(seminar, codec, 5000, zap.NewNop())

	data := workbookBytes(t, codec, codec.Serialize(newPlan("제 1회", "2025-01-01")))
	_, err := svc.ImportFile(context.Background(), "plan.xlsx", bytes.NewReader(data))
	if !apperrors.IsStorage(err) {
		t.Errorf("期望 StorageError，实际: %v", err)
	}
}
