package service

import (
	"go.uber.org/zap"

	"github.com/kpcnc-co/seminar/internal/document"
	"github.com/kpcnc-co/seminar/internal/repository"
	"github.com/kpcnc-co/seminar/internal/spreadsheet"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Seminar SeminarService
	Import  ImportService
	Export  ExportService
}

// Deps 构建 Service 聚合所需的依赖
type Deps struct {
	Repo     *repository.Repository
	Locker   *KeyLocker
	Codec    *spreadsheet.Codec
	Exporter *document.Exporter
	MaxRows  int
	Export   ExportOptions
}

// NewService 创建 Service 聚合
func NewService(d Deps, logger *zap.Logger) *Service {
	seminar := NewSeminarService(d.Repo, d.Locker, logger)
	return &Service{
		Seminar: seminar,
		Import:  NewImportService(seminar, d.Codec, d.MaxRows, logger),
		Export:  NewExportService(seminar, d.Codec, d.Exporter, d.Export, logger),
	}
}
